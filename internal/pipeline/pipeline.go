// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives the 3D generation pipelines: the Shap-E
// text/image-to-3D generator (a Python subprocess), the NeRF multi-view
// reconstructor, and the MaterialAnything PBR map estimator. Runners share
// the Pipeline interface and report their artifacts as ordered KEY/path
// pairs, mirroring the machine-readable stdout contract of the generator
// scripts so the CLI composes in shell pipelines.
package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Well-known result keys emitted by the runners.
const (
	KeyOutputPath = "OUTPUT_PATH"
	KeyArchive    = "USDZ_PATH"
	KeyAlbedo     = "ALBEDO"
	KeyRoughness  = "ROUGHNESS"
	KeyMetallic   = "METALLIC"
	KeyBump       = "BUMP"
	KeyMesh       = "MESH"
	KeyVideo      = "VIDEO"
)

var (
	// ErrNotImplemented reports a pipeline stage that validates its inputs
	// but has no training/inference backend wired up yet.
	ErrNotImplemented = errors.New("pipeline not implemented")

	// ErrPythonNotFound is the sentinel error for a missing interpreter.
	ErrPythonNotFound = errors.New("python interpreter not found")

	// ErrScriptNotFound is the sentinel error for a missing generator script.
	ErrScriptNotFound = errors.New("pipeline script not found")

	// ErrMissingResult reports a runner that exited successfully but never
	// printed the artifact path it was asked to produce.
	ErrMissingResult = errors.New("pipeline reported no output path")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc resolves an executable on the host PATH.
	LookPathFunc func(file string) (string, error)

	// Request carries the inputs a runner needs. Each runner reads the
	// fields relevant to it and ignores the rest.
	Request struct {
		Mode        string // "text" or "image" (Shap-E)
		Prompt      string
		ImagePath   string // single input image (Shap-E image mode)
		ImagesDir   string // multi-view capture directory (NeRF)
		DatasetType string // "llff", "blender" or "deepvoxels" (NeRF)
		ConfigFile  string // pre-existing training config (NeRF)
		MeshPath    string // input mesh (materials)
		OutputDir   string
		Materials   bool // also estimate PBR maps after generation (Shap-E)
	}

	// Result is an ordered set of KEY/path pairs describing the artifacts
	// a runner produced.
	Result struct {
		keys []string
		vals map[string]string
	}

	// Pipeline is a generation stage the CLI can probe and run.
	Pipeline interface {
		// Name identifies the pipeline in logs and error messages.
		Name() string
		// Available reports whether the pipeline's prerequisites
		// (interpreter, scripts, model weights) are in place.
		Available() error
		// Run executes the pipeline. The returned Result lists produced
		// artifacts even when err is non-nil, so callers can surface
		// partial output.
		Run(ctx context.Context, req Request) (*Result, error)
	}
)

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{vals: make(map[string]string)}
}

// Set records an artifact path under key, preserving insertion order.
// Setting an existing key updates the value in place.
func (r *Result) Set(key, value string) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Get returns the path recorded under key, or "".
func (r *Result) Get(key string) string {
	return r.vals[key]
}

// Has reports whether key was recorded.
func (r *Result) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Keys returns the recorded keys in insertion order.
func (r *Result) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of recorded artifacts.
func (r *Result) Len() int {
	return len(r.keys)
}

// Emit writes the result as "KEY: path" lines in insertion order. This is
// the machine-readable contract consumed by scripts wrapping the CLI.
func (r *Result) Emit(w io.Writer) error {
	for _, k := range r.keys {
		if _, err := fmt.Fprintf(w, "%s: %s\n", k, r.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

// parseResultLines extracts KEY/path pairs from a runner's stdout. Keys are
// sequences of uppercase letters and underscores followed by ": "; anything
// else is progress chatter and is skipped.
func parseResultLines(r io.Reader) *Result {
	res := NewResult()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || !isResultKey(key) {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		res.Set(key, value)
	}
	return res
}

func isResultKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

// lineWriter forwards complete lines to a logger. Runners attach it to a
// subprocess's stderr so progress chatter lands in the component log
// instead of interleaving with result lines on stdout.
type lineWriter struct {
	logger *log.Logger
	buf    bytes.Buffer
}

func newLineWriter(logger *log.Logger) *lineWriter {
	return &lineWriter{logger: logger}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line; keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			w.logger.Info(line)
		}
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *lineWriter) Flush() {
	if line := strings.TrimRight(w.buf.String(), "\r\n"); line != "" {
		w.logger.Info(line)
	}
	w.buf.Reset()
}
