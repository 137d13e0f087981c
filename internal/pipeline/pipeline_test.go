// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestResultOrderAndLookup(t *testing.T) {
	res := NewResult()
	res.Set(KeyOutputPath, "/out/model.ply")
	res.Set(KeyArchive, "/out/model.usdz")
	res.Set(KeyOutputPath, "/out/other.ply") // update keeps position

	if got := res.Get(KeyOutputPath); got != "/out/other.ply" {
		t.Errorf("Get(OUTPUT_PATH) = %q", got)
	}
	if !res.Has(KeyArchive) {
		t.Error("Has(USDZ_PATH) = false")
	}
	if res.Has("VIDEO") {
		t.Error("Has(VIDEO) = true for unset key")
	}
	if want := []string{KeyOutputPath, KeyArchive}; !reflect.DeepEqual(res.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", res.Keys(), want)
	}
	if res.Len() != 2 {
		t.Errorf("Len() = %d, want 2", res.Len())
	}
}

func TestResultEmit(t *testing.T) {
	res := NewResult()
	res.Set(KeyOutputPath, "/out/chair.ply")
	res.Set(KeyArchive, "/out/chair.usdz")

	var buf bytes.Buffer
	if err := res.Emit(&buf); err != nil {
		t.Fatalf("Emit() unexpected error: %v", err)
	}

	want := "OUTPUT_PATH: /out/chair.ply\nUSDZ_PATH: /out/chair.usdz\n"
	if buf.String() != want {
		t.Errorf("Emit() = %q, want %q", buf.String(), want)
	}
}

func TestParseResultLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "plain result lines",
			input: "OUTPUT_PATH: /tmp/a.ply\nUSDZ_PATH: /tmp/a.usdz\n",
			want:  map[string]string{"OUTPUT_PATH": "/tmp/a.ply", "USDZ_PATH": "/tmp/a.usdz"},
		},
		{
			name: "chatter interleaved",
			input: "Decoding mesh...\n" +
				"OUTPUT_PATH: /tmp/a.ply\n" +
				"Successfully generated 3D model: /tmp/a.ply\n",
			want: map[string]string{"OUTPUT_PATH": "/tmp/a.ply"},
		},
		{
			name:  "lowercase keys skipped",
			input: "output_path: /tmp/a.ply\nTensorFlow version: 1.15\n",
			want:  map[string]string{},
		},
		{
			name:  "underscored keys accepted",
			input: "MATERIAL_ALBEDO: /tmp/m_albedo.png\n",
			want:  map[string]string{"MATERIAL_ALBEDO": "/tmp/m_albedo.png"},
		},
		{
			name:  "empty value skipped",
			input: "OUTPUT_PATH:\nOUTPUT_PATH:   \n",
			want:  map[string]string{},
		},
		{
			name:  "value may contain colons",
			input: "OUTPUT_PATH: C:/out/a.ply\n",
			want:  map[string]string{"OUTPUT_PATH": "C:/out/a.ply"},
		},
		{
			name:  "no trailing newline",
			input: "OUTPUT_PATH: /tmp/a.ply",
			want:  map[string]string{"OUTPUT_PATH": "/tmp/a.ply"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseResultLines(strings.NewReader(tt.input))
			got := map[string]string{}
			for _, k := range res.Keys() {
				got[k] = res.Get(k)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseResultLines() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsResultKey(t *testing.T) {
	valid := []string{"OUTPUT_PATH", "MESH", "MATERIAL_ALBEDO", "A"}
	for _, k := range valid {
		if !isResultKey(k) {
			t.Errorf("isResultKey(%q) = false", k)
		}
	}

	invalid := []string{"", "output_path", "Mesh", "HTTP/2", "KEY NAME"}
	for _, k := range invalid {
		if isResultKey(k) {
			t.Errorf("isResultKey(%q) = true", k)
		}
	}
}
