// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"prometheus3d-cli/internal/device"
	"prometheus3d-cli/internal/testutil"
)

// modelDirWithEstimator creates a model dir containing the estimator subdir.
func modelDirWithEstimator(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, ModelEstimatorDir), 0755)
	return dir
}

func writeMesh(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chair.ply")
	if err := os.WriteFile(path, []byte("ply"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMaterialAvailable(t *testing.T) {
	t.Run("estimator present", func(t *testing.T) {
		m := NewMaterial(modelDirWithEstimator(t))
		if err := m.Available(); err != nil {
			t.Errorf("Available() = %v, want nil", err)
		}
	})

	t.Run("estimator missing", func(t *testing.T) {
		m := NewMaterial(t.TempDir())
		if err := m.Available(); !errors.Is(err, ErrModelsNotDownloaded) {
			t.Errorf("Available() = %v, want ErrModelsNotDownloaded", err)
		}
	})

	t.Run("estimator is a file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ModelEstimatorDir), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		m := NewMaterial(dir)
		if err := m.Available(); !errors.Is(err, ErrModelsNotDownloaded) {
			t.Errorf("Available() = %v, want ErrModelsNotDownloaded", err)
		}
	})
}

func TestMaterialRunWritesMaps(t *testing.T) {
	out := t.TempDir()
	m := NewMaterial(modelDirWithEstimator(t), WithMaterialDevice(device.KindCPU))

	res, err := m.Run(context.Background(), Request{
		MeshPath:  writeMesh(t),
		Prompt:    "weathered oak",
		OutputDir: out,
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	wantSuffixes := map[string]string{
		KeyAlbedo:    "chair_albedo.png",
		KeyRoughness: "chair_roughness.png",
		KeyMetallic:  "chair_metallic.png",
		KeyBump:      "chair_bump.png",
	}
	for key, suffix := range wantSuffixes {
		path := res.Get(key)
		if want := filepath.Join(out, suffix); path != want {
			t.Errorf("%s = %q, want %q", key, path, want)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("%s map not written: %v", key, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s map is not a PNG: %v", key, err)
		}
		if b := img.Bounds(); b.Dx() != 1024 || b.Dy() != 1024 {
			t.Errorf("%s map bounds = %v, want 1024x1024", key, b)
		}
	}

	// Spot-check pixel values of the generated maps.
	checks := []struct {
		key        string
		r, g, b, a uint32
	}{
		{KeyAlbedo, 200, 200, 200, 255},
		{KeyRoughness, 128, 128, 128, 255},
		{KeyMetallic, 0, 0, 0, 255},
		{KeyBump, 128, 128, 128, 255},
	}
	for _, c := range checks {
		f, err := os.Open(res.Get(c.key))
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		r, g, b, a := img.At(512, 512).RGBA()
		if r>>8 != c.r || g>>8 != c.g || b>>8 != c.b || a>>8 != c.a {
			t.Errorf("%s pixel = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
				c.key, r>>8, g>>8, b>>8, a>>8, c.r, c.g, c.b, c.a)
		}
	}
}

func TestMaterialRunSanitizesMapStem(t *testing.T) {
	out := t.TempDir()
	mesh := filepath.Join(t.TempDir(), "a shiny chair!.ply")
	if err := os.WriteFile(mesh, []byte("ply"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewMaterial(modelDirWithEstimator(t), WithMaterialDevice(device.KindCPU))
	res, err := m.Run(context.Background(), Request{
		MeshPath:  mesh,
		OutputDir: out,
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	want := filepath.Join(out, "a_shiny_chair_albedo.png")
	if got := res.Get(KeyAlbedo); got != want {
		t.Errorf("ALBEDO = %q, want %q", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("sanitized map not written: %v", err)
	}
}

func TestMaterialRunValidation(t *testing.T) {
	t.Run("missing mesh path", func(t *testing.T) {
		m := NewMaterial(modelDirWithEstimator(t))
		if _, err := m.Run(context.Background(), Request{OutputDir: t.TempDir()}); err == nil {
			t.Error("Run() = nil error, want missing mesh failure")
		}
	})

	t.Run("mesh does not exist", func(t *testing.T) {
		m := NewMaterial(modelDirWithEstimator(t))
		_, err := m.Run(context.Background(), Request{
			MeshPath:  filepath.Join(t.TempDir(), "absent.ply"),
			OutputDir: t.TempDir(),
		})
		if err == nil {
			t.Error("Run() = nil error, want stat failure")
		}
	})

	t.Run("models not downloaded", func(t *testing.T) {
		m := NewMaterial(t.TempDir())
		_, err := m.Run(context.Background(), Request{
			MeshPath:  writeMesh(t),
			OutputDir: t.TempDir(),
		})
		if !errors.Is(err, ErrModelsNotDownloaded) {
			t.Errorf("Run() = %v, want ErrModelsNotDownloaded", err)
		}
	})
}

func TestMaterialName(t *testing.T) {
	if got := NewMaterial(".").Name(); got != "materials" {
		t.Errorf("Name() = %q", got)
	}
}
