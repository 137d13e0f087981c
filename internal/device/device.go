// SPDX-License-Identifier: MPL-2.0

// Package device probes the host for the accelerator the generation
// pipelines should run on. Preference order mirrors what the pipelines
// themselves support: Apple's Metal Performance Shaders on Apple Silicon,
// CUDA when an NVIDIA driver is present, CPU otherwise.
package device

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

const (
	// KindAuto defers the choice to Detect.
	KindAuto Kind = "auto"
	// KindMPS is the Metal Performance Shaders backend (Apple Silicon).
	KindMPS Kind = "mps"
	// KindCUDA is the NVIDIA CUDA backend.
	KindCUDA Kind = "cuda"
	// KindCPU is the portable CPU fallback.
	KindCPU Kind = "cpu"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid device kind")

type (
	// Kind identifies an accelerator backend.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// LookPathFunc resolves a binary name on PATH. Tests inject a mock.
	LookPathFunc func(file string) (string, error)

	// Prober detects the best available accelerator for a host.
	Prober struct {
		// GOOS and GOARCH identify the host platform; they default to
		// the runtime values and exist so tests can probe other hosts.
		GOOS   string
		GOARCH string

		lookPath LookPathFunc
	}

	// ProberOption configures a Prober.
	ProberOption func(*Prober)
)

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("%v: %q (valid: auto, mps, cuda, cpu)", ErrInvalidKind, e.Value)
}

// Unwrap returns the sentinel for errors.Is().
func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

// IsValid reports whether k is a recognized device kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindAuto, KindMPS, KindCUDA, KindCPU:
		return true
	}
	return false
}

// Validate returns an InvalidKindError when k is not recognized.
func (k Kind) Validate() error {
	if !k.IsValid() {
		return &InvalidKindError{Value: k}
	}
	return nil
}

// WithLookPath overrides how probe binaries are resolved.
func WithLookPath(f LookPathFunc) ProberOption {
	return func(p *Prober) { p.lookPath = f }
}

// NewProber creates a Prober for the current host.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detect returns the preferred accelerator: MPS on Apple Silicon, CUDA when
// the NVIDIA driver tooling is installed, CPU otherwise.
func (p *Prober) Detect() Kind {
	if p.GOOS == "darwin" && p.GOARCH == "arm64" {
		return KindMPS
	}
	if _, err := p.lookPath("nvidia-smi"); err == nil {
		return KindCUDA
	}
	return KindCPU
}

// Resolve maps a configured kind to a concrete one: KindAuto triggers
// detection, anything else is validated and passed through.
func (p *Prober) Resolve(k Kind) (Kind, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	if k == KindAuto {
		return p.Detect(), nil
	}
	return k, nil
}

// Detect probes the current host with default settings.
func Detect() Kind {
	return NewProber().Detect()
}

// Resolve maps a configured kind using a default prober for the current host.
func Resolve(k Kind) (Kind, error) {
	return NewProber().Resolve(k)
}
