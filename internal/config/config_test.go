// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"prometheus3d-cli/internal/testutil"
)

// useConfigDir points config resolution at a temp dir for the test's duration.
func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)
	return dir
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	useConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	want := DefaultConfig()
	if cfg.OutputDir != want.OutputDir {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, want.OutputDir)
	}
	if cfg.Device != DeviceAuto {
		t.Errorf("Device = %q, want auto", cfg.Device)
	}
	if cfg.Converter.Tool != "usdzconvert" {
		t.Errorf("Converter.Tool = %q, want usdzconvert", cfg.Converter.Tool)
	}
	if cfg.Converter.DisableExternal {
		t.Error("Converter.DisableExternal = true, want false")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := useConfigDir(t)
	writeConfigFile(t, dir, `
output_dir: "/tmp/assets"
device: "cuda"
converter: {
	disable_external: true
}
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.OutputDir != "/tmp/assets" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Device != DeviceCUDA {
		t.Errorf("Device = %q, want cuda", cfg.Device)
	}
	if !cfg.Converter.DisableExternal {
		t.Error("Converter.DisableExternal = false, want true")
	}
	// Unset fields keep defaults.
	if cfg.Python != "python3" {
		t.Errorf("Python = %q, want python3", cfg.Python)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown device", content: `device: "tpu"`},
		{name: "empty output dir", content: `output_dir: ""`},
		{name: "wrong type", content: `converter: {disable_external: "yes"}`},
		{name: "cue syntax error", content: `device: "cuda`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := useConfigDir(t)
			writeConfigFile(t, dir, tt.content)

			if _, err := Load(); err == nil {
				t.Errorf("Load() = nil error for %q", tt.content)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	useConfigDir(t)
	t.Setenv("PROMETHEUS3D_DEVICE", "cpu")
	t.Setenv("PROMETHEUS3D_OUTPUT_DIR", "/tmp/env-out")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Device != DeviceCPU {
		t.Errorf("Device = %q, want cpu", cfg.Device)
	}
	if cfg.OutputDir != "/tmp/env-out" {
		t.Errorf("OutputDir = %q, want /tmp/env-out", cfg.OutputDir)
	}
}

func TestLoadEnvOverrideValidated(t *testing.T) {
	useConfigDir(t)
	t.Setenv("PROMETHEUS3D_DEVICE", "tpu")

	_, err := Load()
	if !errors.Is(err, ErrInvalidDeviceMode) {
		t.Errorf("Load() error = %v, want ErrInvalidDeviceMode", err)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	t.Run("missing file is an error", func(t *testing.T) {
		useConfigDir(t)
		SetConfigFilePathOverride(filepath.Join(t.TempDir(), "absent.cue"))

		_, err := Load()
		if err == nil {
			t.Fatal("Load() expected error for missing --config file")
		}
		if !strings.Contains(err.Error(), "load configuration") {
			t.Errorf("Load() error lacks operation context: %v", err)
		}
	})

	t.Run("explicit file is used", func(t *testing.T) {
		useConfigDir(t)
		path := filepath.Join(t.TempDir(), "custom.cue")
		if err := os.WriteFile(path, []byte(`device: "mps"`), 0644); err != nil {
			t.Fatal(err)
		}
		SetConfigFilePathOverride(path)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if cfg.Device != DeviceMPS {
			t.Errorf("Device = %q, want mps", cfg.Device)
		}
	})
}

func TestConfigDirPlatformResolution(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG resolution only applies on Linux and friends")
	}

	t.Run("XDG_CONFIG_HOME wins", func(t *testing.T) {
		xdg := t.TempDir()
		t.Cleanup(testutil.MustSetenv(t, "XDG_CONFIG_HOME", xdg))

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() unexpected error: %v", err)
		}
		if want := filepath.Join(xdg, AppName); dir != want {
			t.Errorf("ConfigDir() = %q, want %q", dir, want)
		}
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		home := t.TempDir()
		t.Cleanup(testutil.MustUnsetenv(t, "XDG_CONFIG_HOME"))
		t.Cleanup(testutil.SetHomeDir(t, home))

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() unexpected error: %v", err)
		}
		if want := filepath.Join(home, ".config", AppName); dir != want {
			t.Errorf("ConfigDir() = %q, want %q", dir, want)
		}
	})
}

func TestConfigFilePath(t *testing.T) {
	dir := useConfigDir(t)

	path, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath() unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("ConfigFilePath() = %q, want %q", path, want)
	}
}

func TestDeviceModeValidate(t *testing.T) {
	for _, m := range []DeviceMode{DeviceAuto, DeviceMPS, DeviceCUDA, DeviceCPU} {
		if err := m.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v", m, err)
		}
	}

	err := DeviceMode("gpu").Validate()
	if !errors.Is(err, ErrInvalidDeviceMode) {
		t.Errorf("Validate(gpu) = %v, want ErrInvalidDeviceMode", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "blank python", mutate: func(c *Config) { c.Python = "  " }},
		{name: "blank output dir", mutate: func(c *Config) { c.OutputDir = "" }},
		{name: "blank converter tool", mutate: func(c *Config) { c.Converter.Tool = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
