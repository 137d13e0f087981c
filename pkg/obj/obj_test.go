// SPDX-License-Identifier: MPL-2.0

package obj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantErr      error
		wantVertices int
		wantFaces    []Face
	}{
		{
			name: "minimal triangle",
			input: `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "comments and blank lines ignored",
			input: `# exported mesh

v 0 0 0
v 1 0 0

v 0 1 0
# face follows
f 1 2 3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "slash-separated texture and normal refs discarded",
			input: `v 0 0 0
v 1 0 0
v 0 1 0
f 1/1/1 2/2/2 3//3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "malformed vertex line skipped",
			input: `v 0 0 0
v 1 abc 0
v 1 0 0
v 0 1 0
f 1 2 3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "vertex with too few coordinates skipped",
			input: `v 0 0
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "out-of-range face index drops only that face",
			input: `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
f 1 2 99
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "zero face index invalid",
			input: `v 0 0 0
v 1 0 0
v 0 1 0
f 0 1 2
f 1 2 3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "quad keeps leading three indices only",
			input: `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`,
			wantVertices: 4,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "unknown directives ignored",
			input: `mtllib scene.mtl
o shape
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vt 0.5 0.5
s off
usemtl default
f 1 2 3
`,
			wantVertices: 3,
			wantFaces:    []Face{{0, 1, 2}},
		},
		{
			name: "only out-of-range faces yields no geometry",
			input: `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 99
`,
			wantErr: ErrNoGeometry,
		},
		{
			name:    "no vertices yields no geometry",
			input:   "f 1 2 3\n",
			wantErr: ErrNoGeometry,
		},
		{
			name:    "empty document yields no geometry",
			input:   "",
			wantErr: ErrNoGeometry,
		},
		{
			name: "faces only without vertices dropped then fails",
			input: `# nothing but comments
# and more comments
`,
			wantErr: ErrNoGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := Parse(strings.NewReader(tt.input))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}

			if got := mesh.NumVertices(); got != tt.wantVertices {
				t.Errorf("NumVertices() = %d, want %d", got, tt.wantVertices)
			}
			if got := len(mesh.Faces); got != len(tt.wantFaces) {
				t.Fatalf("NumFaces() = %d, want %d", got, len(tt.wantFaces))
			}
			for i, want := range tt.wantFaces {
				if mesh.Faces[i] != want {
					t.Errorf("Faces[%d] = %v, want %v", i, mesh.Faces[i], want)
				}
			}
		})
	}
}

func TestParseFaceIndicesInRange(t *testing.T) {
	input := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 2 3 4
f 1 3 4
`
	mesh, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	for _, f := range mesh.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= mesh.NumVertices() {
				t.Errorf("face index %d out of range [0, %d)", idx, mesh.NumVertices())
			}
		}
	}
}

func TestParseFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tri.obj")
		content := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		mesh, err := ParseFile(path)
		if err != nil {
			t.Fatalf("ParseFile() unexpected error: %v", err)
		}
		if mesh.NumVertices() != 3 || mesh.NumFaces() != 1 {
			t.Errorf("ParseFile() = %d vertices / %d faces, want 3/1", mesh.NumVertices(), mesh.NumFaces())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseFile(filepath.Join(t.TempDir(), "absent.obj")); err == nil {
			t.Error("ParseFile() expected error for missing file")
		}
	})
}
