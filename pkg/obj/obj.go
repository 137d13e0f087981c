// SPDX-License-Identifier: MPL-2.0

// Package obj parses the subset of the Wavefront OBJ text format needed to
// repackage generated triangle meshes: vertex positions and triangular faces.
//
// The parser is deliberately lenient: malformed vertex lines are skipped,
// faces referencing out-of-range vertices are dropped individually, and all
// directives other than "v" and "f" (normals, texture coordinates, groups,
// materials) are ignored. Only when the document yields no usable geometry at
// all does parsing fail.
package obj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoGeometry is returned when an OBJ document contains no parseable
// vertices or no face that resolves to three valid vertex indices.
var ErrNoGeometry = errors.New("no usable geometry")

type (
	// Vertex is a single 3D point in mesh-local coordinates.
	Vertex [3]float64

	// Face is a triangle described by three zero-based vertex indices.
	// OBJ face directives are 1-based on the wire; Parse converts them.
	Face [3]int

	// Mesh is an immutable triangle mesh read from an OBJ document.
	// Every face index is guaranteed to be in [0, len(Vertices)).
	Mesh struct {
		Vertices []Vertex
		Faces    []Face
	}
)

// NumVertices returns the number of vertices in the mesh.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumFaces returns the number of retained triangular faces.
func (m *Mesh) NumFaces() int { return len(m.Faces) }

// ParseFile reads and parses the OBJ file at path.
func ParseFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh file: %w", err)
	}
	defer f.Close()

	mesh, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return mesh, nil
}

// Parse reads an OBJ document from r and returns the retained mesh.
// It returns ErrNoGeometry (wrapped) when no vertices parse or no face
// survives index validation.
func Parse(r io.Reader) (*Mesh, error) {
	mesh := &Mesh{}

	scanner := bufio.NewScanner(r)
	// Generated meshes can carry long face directives; grow past the
	// default 64KiB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if v, ok := parseVertex(fields[1:]); ok {
				mesh.Vertices = append(mesh.Vertices, v)
			}
		case "f":
			if f, ok := parseFace(fields[1:], len(mesh.Vertices)); ok {
				mesh.Faces = append(mesh.Faces, f)
			}
		default:
			// vn, vt, o, g, s, usemtl, mtllib, ... are irrelevant here.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mesh data: %w", err)
	}

	if len(mesh.Vertices) == 0 || len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%w: %d vertices, %d faces", ErrNoGeometry, len(mesh.Vertices), len(mesh.Faces))
	}

	return mesh, nil
}

// parseVertex parses the fields following a "v" directive. A vertex needs at
// least three coordinates; any malformed coordinate invalidates the line.
func parseVertex(fields []string) (Vertex, bool) {
	if len(fields) < 3 {
		return Vertex{}, false
	}

	var v Vertex
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Vertex{}, false
		}
		v[i] = f
	}
	return v, true
}

// parseFace parses the fields following an "f" directive. Each field may be
// "v", "v/vt", "v//vn" or "v/vt/vn"; only the leading vertex index is kept.
// Indices are converted from 1-based to 0-based, and the face is dropped
// unless its first three indices all resolve within [0, numVertices).
func parseFace(fields []string, numVertices int) (Face, bool) {
	if len(fields) < 3 {
		return Face{}, false
	}

	var f Face
	for i := 0; i < 3; i++ {
		ref, _, _ := strings.Cut(fields[i], "/")
		idx, err := strconv.Atoi(ref)
		if err != nil {
			return Face{}, false
		}
		idx-- // OBJ indices are 1-based
		if idx < 0 || idx >= numVertices {
			return Face{}, false
		}
		f[i] = idx
	}
	return f, true
}
