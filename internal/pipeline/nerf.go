// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// MinNeRFImages is the minimum number of viewpoints reconstruction needs.
	MinNeRFImages = 3

	// PosesFileName is the LLFF camera poses file expected next to the images.
	PosesFileName = "poses_bounds.npy"

	// nerfConfigName is the training config written into the output dir when
	// the caller did not supply one.
	nerfConfigName = "nerf_config.txt"
)

// Dataset layouts understood by the reconstruction config.
const (
	DatasetLLFF       = "llff"
	DatasetBlender    = "blender"
	DatasetDeepVoxels = "deepvoxels"
)

var (
	// ErrTooFewImages is the sentinel error wrapped by TooFewImagesError.
	ErrTooFewImages = errors.New("not enough input images")

	// ErrInvalidDatasetType is the sentinel error wrapped by InvalidDatasetTypeError.
	ErrInvalidDatasetType = errors.New("invalid dataset type")
)

// TooFewImagesError reports an image directory with fewer viewpoints than
// reconstruction needs. It wraps ErrTooFewImages for errors.Is() compatibility.
type TooFewImagesError struct {
	Dir   string
	Found int
}

func (e *TooFewImagesError) Error() string {
	return fmt.Sprintf("%v: need at least %d, found %d in %s",
		ErrTooFewImages, MinNeRFImages, e.Found, e.Dir)
}

func (e *TooFewImagesError) Unwrap() error {
	return ErrTooFewImages
}

// InvalidDatasetTypeError reports an unrecognized dataset layout. It wraps
// ErrInvalidDatasetType for errors.Is() compatibility.
type InvalidDatasetTypeError struct {
	Value string
}

func (e *InvalidDatasetTypeError) Error() string {
	return fmt.Sprintf("%v: %q (valid: llff, blender, deepvoxels)",
		ErrInvalidDatasetType, e.Value)
}

func (e *InvalidDatasetTypeError) Unwrap() error {
	return ErrInvalidDatasetType
}

// NeRFOption configures a NeRF runner.
type NeRFOption func(*NeRF)

// NeRF validates a multi-view capture and prepares a training configuration
// for neural radiance field reconstruction. The training loop itself is not
// wired up: Run always ends in ErrNotImplemented after the preparation
// steps, reporting exactly what a full integration still needs.
type NeRF struct {
	logger *log.Logger
}

// NewNeRF returns a NeRF runner.
func NewNeRF(opts ...NeRFOption) *NeRF {
	n := &NeRF{
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "nerf"}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name implements Pipeline.
func (n *NeRF) Name() string { return "nerf" }

// Available implements Pipeline. Input validation and config generation have
// no external prerequisites.
func (n *NeRF) Available() error { return nil }

// Run implements Pipeline. It validates the capture directory, warns when
// camera poses are missing, writes the training config, and then reports
// that the training backend is not implemented.
func (n *NeRF) Run(ctx context.Context, req Request) (*Result, error) {
	if req.DatasetType == "" {
		req.DatasetType = DatasetLLFF
	}
	switch req.DatasetType {
	case DatasetLLFF, DatasetBlender, DatasetDeepVoxels:
	default:
		return nil, &InvalidDatasetTypeError{Value: req.DatasetType}
	}

	count, err := countImages(req.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("images directory: %w", err)
	}
	if count < MinNeRFImages {
		return nil, &TooFewImagesError{Dir: req.ImagesDir, Found: count}
	}
	n.logger.Info("found input images", "count", count, "dir", req.ImagesDir)

	if _, err := os.Stat(filepath.Join(req.ImagesDir, PosesFileName)); err != nil {
		n.logger.Warn("camera poses not found; reconstruction needs poses_bounds.npy",
			"hint", "generate poses with COLMAP or the LLFF tooling")
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}

	configPath := req.ConfigFile
	if configPath == "" {
		configPath = filepath.Join(req.OutputDir, nerfConfigName)
		if err := writeNeRFConfig(configPath, req.ImagesDir, req.OutputDir, req.DatasetType); err != nil {
			return nil, fmt.Errorf("write training config: %w", err)
		}
		n.logger.Info("created training config", "path", configPath)
	}

	res := NewResult()
	res.Set("CONFIG", configPath)

	return res, fmt.Errorf("%w: radiance field training needs TensorFlow 1.15, CUDA and several hours of compute", ErrNotImplemented)
}

// countImages counts files in dir with an image extension.
func countImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			count++
		}
	}
	return count, nil
}

// writeNeRFConfig writes the flag-style training configuration consumed by
// the reference NeRF implementation.
func writeNeRFConfig(path, imagesDir, outputDir, datasetType string) error {
	var b strings.Builder
	b.WriteString("# NeRF Configuration\n")
	b.WriteString("# Generated automatically for Prometheus\n\n")
	b.WriteString("# Dataset settings\n")
	fmt.Fprintf(&b, "--datadir=%s\n", imagesDir)
	fmt.Fprintf(&b, "--dataset_type=%s\n", datasetType)
	b.WriteString("--expname=prometheus_nerf\n")
	fmt.Fprintf(&b, "--basedir=%s/logs\n", outputDir)
	b.WriteString("\n# Training settings\n")
	b.WriteString("--N_iters=200000\n")
	b.WriteString("--N_samples=64\n")
	b.WriteString("--N_rand=1024\n")
	b.WriteString("--lrate=5e-4\n")
	b.WriteString("--lrate_decay=250\n")
	b.WriteString("\n# Network settings\n")
	b.WriteString("--netdepth=8\n")
	b.WriteString("--netwidth=256\n")
	b.WriteString("--netdepth_fine=8\n")
	b.WriteString("--netwidth_fine=256\n")
	b.WriteString("\n# Rendering settings\n")
	b.WriteString("--chunk=1024*32\n")
	b.WriteString("--no_batching\n")
	b.WriteString("--no_reload\n")
	return os.WriteFile(path, []byte(b.String()), 0644)
}
