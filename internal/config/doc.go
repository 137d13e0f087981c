// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the prometheus3d configuration.
//
// Configuration is layered: built-in defaults, then an optional CUE config
// file (validated against an embedded schema), then PROMETHEUS3D_* environment
// variables. The config file lives in the platform config directory
// (~/.config/prometheus3d/config.cue on Linux) or the current directory.
package config
