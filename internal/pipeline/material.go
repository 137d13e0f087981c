// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"prometheus3d-cli/internal/device"
	"prometheus3d-cli/pkg/fspath"
)

const (
	// ModelEstimatorDir is the subdirectory of the model dir that must hold
	// the downloaded estimator weights.
	ModelEstimatorDir = "material_estimator"

	// materialMapSize is the edge length of generated material maps.
	materialMapSize = 1024

	// materialStemMax bounds the sanitized map stem, matching the prompt
	// truncation applied to generated mesh names upstream.
	materialStemMax = 30
)

// Simplified-mode base values for the generated maps.
var (
	baseAlbedo    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	baseRoughness = color.Gray{Y: 128}
	baseMetallic  = color.Gray{Y: 0}
	baseBump      = color.Gray{Y: 128}
)

// ErrModelsNotDownloaded is returned when the pretrained estimator weights
// are missing from the configured model directory.
var ErrModelsNotDownloaded = errors.New("material estimator models not found")

// MaterialOption configures a Material runner.
type MaterialOption func(*Material)

// Material produces PBR material maps (albedo, roughness, metallic, bump)
// for a mesh. The full estimator pipeline needs CUDA plus heavyweight
// rendering dependencies; on every current device the runner uses simplified
// mode, writing neutral base maps that downstream tooling can texture with.
type Material struct {
	modelDir string
	device   device.Kind
	logger   *log.Logger
}

// WithMaterialDevice overrides the probed accelerator.
func WithMaterialDevice(k device.Kind) MaterialOption {
	return func(m *Material) { m.device = k }
}

// NewMaterial returns a material runner backed by the pretrained weights
// under modelDir.
func NewMaterial(modelDir string, opts ...MaterialOption) *Material {
	m := &Material{
		modelDir: modelDir,
		device:   device.Detect(),
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "materials"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Pipeline.
func (m *Material) Name() string { return "materials" }

// Available implements Pipeline. The estimator weights are downloaded
// separately and must be present even for simplified mode, so their absence
// is surfaced before any run.
func (m *Material) Available() error {
	path := filepath.Join(m.modelDir, ModelEstimatorDir)
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrModelsNotDownloaded, path)
	}
	return nil
}

// Run implements Pipeline. It writes the four material maps next to each
// other in the output directory, named after the mesh's stem.
func (m *Material) Run(ctx context.Context, req Request) (*Result, error) {
	if req.MeshPath == "" {
		return nil, errors.New("a mesh path is required")
	}
	if _, err := os.Stat(req.MeshPath); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	if err := m.Available(); err != nil {
		return nil, err
	}

	outDir := req.OutputDir
	if outDir == "" {
		outDir = "materials"
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}

	m.logger.Info("generating materials", "mesh", req.MeshPath, "device", m.device)
	if m.device == device.KindCUDA {
		m.logger.Warn("full estimator pipeline is not wired up; using simplified mode")
	} else {
		m.logger.Info("using simplified mode", "reason", "full estimator needs CUDA")
	}

	// Mesh names are often prompt-derived; sanitize before using them as
	// the map file stem.
	stem := fspath.SafeStem(fspath.Stem(req.MeshPath), materialStemMax)
	base := filepath.Join(outDir, stem)
	maps := []struct {
		key  string
		path string
		img  image.Image
	}{
		{KeyAlbedo, base + "_albedo.png", uniformRGBA(baseAlbedo)},
		{KeyRoughness, base + "_roughness.png", uniformGray(baseRoughness)},
		{KeyMetallic, base + "_metallic.png", uniformGray(baseMetallic)},
		{KeyBump, base + "_bump.png", uniformGray(baseBump)},
	}

	res := NewResult()
	for _, mp := range maps {
		if err := writePNG(mp.path, mp.img); err != nil {
			return res, fmt.Errorf("write %s map: %w", mp.key, err)
		}
		res.Set(mp.key, mp.path)
	}

	m.logger.Info("material maps generated", "dir", outDir)
	return res, nil
}

func uniformRGBA(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, materialMapSize, materialMapSize))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func uniformGray(c color.Gray) image.Image {
	img := image.NewGray(image.Rect(0, 0, materialMapSize, materialMapSize))
	for i := range img.Pix {
		img.Pix[i] = c.Y
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
