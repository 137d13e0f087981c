// SPDX-License-Identifier: MPL-2.0

// Package usd serializes triangle meshes to the USDA text format, the
// human-readable flavor of Universal Scene Description. The emitted document
// is the minimal subset AR viewers need: a default Root prim holding a single
// Mesh with face counts, face indices and points. Normals and texture
// coordinates are declared but left empty so the document stays valid even
// though the generation pipelines never compute them.
package usd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"prometheus3d-cli/pkg/obj"
)

// DefaultPrim is the name of the root prim declared in the document header.
const DefaultPrim = "Root"

// arrayIndent continues array literals under the opening bracket, matching
// the layout AR Quick Look tooling produces.
const arrayIndent = ",\n            "

// Marshal renders m as a complete USDA document.
func Marshal(m *obj.Mesh) []byte {
	var b strings.Builder
	// Rough preallocation: a point renders to ~30 bytes, an index to ~4.
	b.Grow(256 + 30*len(m.Vertices) + 16*len(m.Faces))

	b.WriteString("#usda 1.0\n")
	b.WriteString("(\n")
	fmt.Fprintf(&b, "    defaultPrim = %q\n", DefaultPrim)
	b.WriteString("    metersPerUnit = 1\n")
	b.WriteString("    upAxis = \"Y\"\n")
	b.WriteString(")\n\n")

	fmt.Fprintf(&b, "def Xform %q\n{\n", DefaultPrim)
	b.WriteString("    def Mesh \"Mesh\"\n    {\n")

	b.WriteString("        int[] faceVertexCounts = [")
	for i := range m.Faces {
		if i > 0 {
			b.WriteString(arrayIndent)
		}
		b.WriteByte('3')
	}
	b.WriteString("]\n")

	b.WriteString("        int[] faceVertexIndices = [")
	for i, f := range m.Faces {
		for j, idx := range f {
			if i > 0 || j > 0 {
				b.WriteString(arrayIndent)
			}
			b.WriteString(strconv.Itoa(idx))
		}
	}
	b.WriteString("]\n")

	b.WriteString("        point3f[] points = [")
	for i, v := range m.Vertices {
		if i > 0 {
			b.WriteString(arrayIndent)
		}
		fmt.Fprintf(&b, "(%s, %s, %s)", formatCoord(v[0]), formatCoord(v[1]), formatCoord(v[2]))
	}
	b.WriteString("]\n")

	b.WriteString("        normal3f[] normals = []\n")
	b.WriteString("        texCoord2f[] primvars:st = []\n")
	b.WriteString("    }\n}\n")

	return []byte(b.String())
}

// Encode writes the USDA rendering of m to w.
func Encode(w io.Writer, m *obj.Mesh) error {
	if _, err := w.Write(Marshal(m)); err != nil {
		return fmt.Errorf("failed to write scene document: %w", err)
	}
	return nil
}

// formatCoord renders a coordinate with the shortest exact representation.
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
