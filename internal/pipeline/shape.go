// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	"prometheus3d-cli/pkg/fspath"
	"prometheus3d-cli/pkg/usdz"
)

// ShapEScript is the generator script driven by the Shap-E runner.
const ShapEScript = "shap_e_generator.py"

// Generation modes accepted by the Shap-E runner.
const (
	ModeText  = "text"
	ModeImage = "image"
)

// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
var ErrInvalidMode = errors.New("invalid generation mode")

// InvalidModeError reports a generation mode that is neither text nor image.
// It wraps ErrInvalidMode for errors.Is() compatibility.
type InvalidModeError struct {
	Value string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("%v: %q (valid: text, image)", ErrInvalidMode, e.Value)
}

func (e *InvalidModeError) Unwrap() error {
	return ErrInvalidMode
}

// ShapEOption configures a ShapE runner.
type ShapEOption func(*ShapE)

// ShapE runs the Shap-E text/image-to-3D generator as a Python subprocess
// and packages its mesh export into a portable AR archive when the script's
// own conversion did not succeed.
type ShapE struct {
	python      string
	scriptsDir  string
	execCommand ExecCommandFunc
	lookPath    LookPathFunc
	converters  []usdz.Converter
	logger      *log.Logger
}

// WithShapEExecCommand injects the exec.Cmd factory, for tests.
func WithShapEExecCommand(f ExecCommandFunc) ShapEOption {
	return func(s *ShapE) { s.execCommand = f }
}

// WithShapELookPath injects the PATH resolver, for tests.
func WithShapELookPath(f LookPathFunc) ShapEOption {
	return func(s *ShapE) { s.lookPath = f }
}

// WithShapEConverters overrides the archive converter chain.
func WithShapEConverters(cs []usdz.Converter) ShapEOption {
	return func(s *ShapE) { s.converters = cs }
}

// NewShapE returns a Shap-E runner using the given Python interpreter and
// the generator script found under scriptsDir.
func NewShapE(python, scriptsDir string, opts ...ShapEOption) *ShapE {
	s := &ShapE{
		python:      python,
		scriptsDir:  scriptsDir,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
		converters:  usdz.DefaultConverters(),
		logger:      log.NewWithOptions(os.Stderr, log.Options{Prefix: "shap-e"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Pipeline.
func (s *ShapE) Name() string { return "shap-e" }

func (s *ShapE) scriptPath() string {
	return filepath.Join(s.scriptsDir, ShapEScript)
}

// Available implements Pipeline. It checks that the interpreter resolves on
// PATH and the generator script exists.
func (s *ShapE) Available() error {
	if _, err := s.lookPath(s.python); err != nil {
		return fmt.Errorf("%w: %q", ErrPythonNotFound, s.python)
	}
	if _, err := os.Stat(s.scriptPath()); err != nil {
		return fmt.Errorf("%w: %s", ErrScriptNotFound, s.scriptPath())
	}
	return nil
}

// Run implements Pipeline. It invokes the generator script, parses the
// artifact paths from its stdout, and then packages the mesh into a .usdz
// archive as a best-effort step: the run never fails because the archive
// could not be produced.
func (s *ShapE) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validateShapERequest(req); err != nil {
		return nil, err
	}

	args := []string{
		s.scriptPath(),
		"--mode", req.Mode,
		"--prompt", req.Prompt,
		"--output", req.OutputDir,
	}
	if req.Mode == ModeImage {
		args = append(args, "--image", req.ImagePath)
	}
	if req.Materials {
		args = append(args, "--generate-materials")
	}

	s.logger.Info("generating 3D model", "mode", req.Mode, "output", req.OutputDir)

	var stdout bytes.Buffer
	stderr := newLineWriter(s.logger)
	cmd := s.execCommand(ctx, s.python, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	stderr.Flush()
	if err != nil {
		return nil, fmt.Errorf("shap-e generator failed: %w", err)
	}

	res := parseResultLines(&stdout)
	if !res.Has(KeyOutputPath) {
		return nil, ErrMissingResult
	}

	s.packageArchive(ctx, res)
	return res, nil
}

func validateShapERequest(req Request) error {
	switch req.Mode {
	case ModeText, ModeImage:
	default:
		return &InvalidModeError{Value: req.Mode}
	}
	if req.Mode == ModeImage && req.ImagePath == "" {
		return errors.New("image mode requires an input image path")
	}
	if req.Prompt == "" {
		return errors.New("a text prompt is required")
	}
	if req.OutputDir == "" {
		return errors.New("an output directory is required")
	}
	return nil
}

// packageArchive converts the script's intermediate OBJ export into a .usdz
// archive when the script did not produce one itself. The intermediate file
// is only left behind on the script's own conversion failure, so its absence
// means there is nothing to do.
func (s *ShapE) packageArchive(ctx context.Context, res *Result) {
	if res.Has(KeyArchive) {
		return
	}
	objPath := fspath.ReplaceExt(res.Get(KeyOutputPath), ".obj")
	if _, err := os.Stat(objPath); err != nil {
		return
	}

	usdzPath := fspath.ReplaceExt(objPath, ".usdz")
	if err := usdz.ConvertWith(ctx, s.converters, objPath, usdzPath); err != nil {
		s.logger.Warn("archive packaging failed; mesh output is unaffected",
			"obj", objPath, "err", err)
		return
	}

	// The OBJ was an intermediate; drop it now that the archive exists.
	if err := os.Remove(objPath); err != nil {
		s.logger.Warn("could not remove intermediate mesh", "path", objPath, "err", err)
	}
	res.Set(KeyArchive, usdzPath)
	s.logger.Info("packaged AR archive", "path", usdzPath)
}
