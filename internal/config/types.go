// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DeviceAuto lets the host probe pick the accelerator.
	DeviceAuto DeviceMode = "auto"
	// DeviceMPS forces the Metal Performance Shaders backend.
	DeviceMPS DeviceMode = "mps"
	// DeviceCUDA forces the NVIDIA CUDA backend.
	DeviceCUDA DeviceMode = "cuda"
	// DeviceCPU forces the CPU backend.
	DeviceCPU DeviceMode = "cpu"
)

var (
	// ErrInvalidDeviceMode is the sentinel error wrapped by InvalidDeviceModeError.
	ErrInvalidDeviceMode = errors.New("invalid device mode")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// DeviceMode specifies the accelerator preference for pipeline runs.
	// Defined locally to avoid coupling config to internal/device; the
	// orchestrating commands cast to device.Kind at the boundary.
	DeviceMode string

	// InvalidDeviceModeError is returned when a DeviceMode value is not
	// recognized. It wraps ErrInvalidDeviceMode for errors.Is() compatibility.
	InvalidDeviceModeError struct {
		Value DeviceMode
	}

	// InvalidConfigError is returned when a loaded configuration fails
	// validation. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Field  string
		Reason string
	}

	// ConverterConfig controls USDZ archive production.
	ConverterConfig struct {
		// Tool is the external conversion binary name or path.
		Tool string `mapstructure:"tool"`
		// DisableExternal skips the external tool and always uses the
		// built-in packager.
		DisableExternal bool `mapstructure:"disable_external"`
	}

	// UIConfig controls terminal output.
	UIConfig struct {
		// Verbose enables verbose output.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the resolved prometheus3d configuration.
	Config struct {
		// OutputDir is where generated assets are written.
		OutputDir string `mapstructure:"output_dir"`
		// Device is the accelerator preference for pipeline runs.
		Device DeviceMode `mapstructure:"device"`
		// Python is the interpreter used to run the pipeline scripts.
		Python string `mapstructure:"python"`
		// ScriptsDir contains the generator scripts.
		ScriptsDir string `mapstructure:"scripts_dir"`
		// ModelDir contains the pretrained material estimator weights.
		ModelDir string `mapstructure:"model_dir"`
		// Converter controls USDZ archive production.
		Converter ConverterConfig `mapstructure:"converter"`
		// UI controls terminal output.
		UI UIConfig `mapstructure:"ui"`
	}
)

// Error implements the error interface for InvalidDeviceModeError.
func (e *InvalidDeviceModeError) Error() string {
	return fmt.Sprintf("%v: %q (valid: auto, mps, cuda, cpu)", ErrInvalidDeviceMode, e.Value)
}

// Unwrap returns the sentinel for errors.Is().
func (e *InvalidDeviceModeError) Unwrap() error {
	return ErrInvalidDeviceMode
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Unwrap returns the sentinel for errors.Is().
func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// IsValid reports whether m is a recognized device mode.
func (m DeviceMode) IsValid() bool {
	switch m {
	case DeviceAuto, DeviceMPS, DeviceCUDA, DeviceCPU:
		return true
	}
	return false
}

// Validate returns an InvalidDeviceModeError when m is not recognized.
func (m DeviceMode) Validate() error {
	if !m.IsValid() {
		return &InvalidDeviceModeError{Value: m}
	}
	return nil
}

// DefaultConfig returns the built-in defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:  "output",
		Device:     DeviceAuto,
		Python:     "python3",
		ScriptsDir: ".",
		ModelDir:   "pretrained_models",
		Converter: ConverterConfig{
			Tool: "usdzconvert",
		},
	}
}

// Validate checks constraints the CUE schema cannot express on already-merged
// values (the schema only sees the user's file, not env overrides).
func (c *Config) Validate() error {
	if err := c.Device.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Python) == "" {
		return &InvalidConfigError{Field: "python", Reason: "interpreter must not be empty"}
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return &InvalidConfigError{Field: "output_dir", Reason: "directory must not be empty"}
	}
	if strings.TrimSpace(c.Converter.Tool) == "" {
		return &InvalidConfigError{Field: "converter.tool", Reason: "tool must not be empty"}
	}
	return nil
}
