// SPDX-License-Identifier: MPL-2.0

// Package usdz produces USDZ archives (a zip container holding a single USD
// scene document) from OBJ mesh files.
//
// Conversion runs an ordered list of converter strategies: the external
// usdzconvert tool when it is installed, then a self-contained fallback that
// parses the OBJ, renders a USDA document and zips it. Whichever strategy
// succeeds first wins; a conversion fails only when every strategy fails.
// Archive production is a best-effort enhancement over the primary mesh
// output, so callers are expected to log a failed conversion and move on.
package usdz

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"prometheus3d-cli/pkg/obj"
	"prometheus3d-cli/pkg/usd"
)

const (
	// EntryName is the fixed name of the scene document inside the archive.
	EntryName = "model.usd"

	// DefaultTool is the preferred external conversion binary. It ships
	// with Xcode's USD tools on macOS and with Pixar's USD distribution
	// elsewhere.
	DefaultTool = "usdzconvert"

	// MinArchiveSize is the smallest byte count accepted from the external
	// tool. Anything smaller is treated as a truncated or empty container
	// even when the tool exited cleanly. The fallback packager verifies
	// its own output structurally instead.
	MinArchiveSize = 1000

	// externalTimeout bounds a single external tool run.
	externalTimeout = 30 * time.Second
)

var (
	// ErrUndersizedArchive is returned when a converter produced a file
	// below MinArchiveSize.
	ErrUndersizedArchive = errors.New("archive below minimum plausible size")

	// ErrToolUnavailable is returned by ExternalConverter when its binary
	// is not on PATH.
	ErrToolUnavailable = errors.New("conversion tool not available")
)

type (
	// ExecCommandFunc creates the exec.Cmd used to run the external tool.
	// Tests inject a mock implementation.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc resolves a binary name on PATH. Tests inject a mock.
	LookPathFunc func(file string) (string, error)

	// Converter is a single strategy for producing a USDZ archive from an
	// OBJ mesh file. Implementations must not leave a partial destination
	// file behind on failure.
	Converter interface {
		// Name identifies the strategy in logs and error messages.
		Name() string
		// Convert produces the archive at usdzPath from objPath.
		Convert(ctx context.Context, objPath, usdzPath string) error
	}

	// ExternalConverter shells out to the usdzconvert CLI.
	ExternalConverter struct {
		// Tool is the binary name or path; empty means DefaultTool.
		Tool string

		execCommand ExecCommandFunc
		lookPath    LookPathFunc
	}

	// ExternalConverterOption configures an ExternalConverter.
	ExternalConverterOption func(*ExternalConverter)

	// ArchiveConverter is the hand-rolled fallback packager. It parses the
	// OBJ mesh, writes a USDA scene document to an ephemeral file and zips
	// that document into the destination as the single archive entry.
	ArchiveConverter struct{}
)

// WithExecCommand overrides how the external tool process is created.
func WithExecCommand(f ExecCommandFunc) ExternalConverterOption {
	return func(c *ExternalConverter) { c.execCommand = f }
}

// WithLookPath overrides how the external tool binary is resolved.
func WithLookPath(f LookPathFunc) ExternalConverterOption {
	return func(c *ExternalConverter) { c.lookPath = f }
}

// NewExternalConverter creates a converter for the given tool binary.
// An empty tool selects DefaultTool.
func NewExternalConverter(tool string, opts ...ExternalConverterOption) *ExternalConverter {
	if tool == "" {
		tool = DefaultTool
	}
	c := &ExternalConverter{
		Tool:        tool,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultConverters returns the standard strategy order: the external tool
// first, the fallback packager second.
func DefaultConverters() []Converter {
	return []Converter{
		NewExternalConverter(""),
		ArchiveConverter{},
	}
}

// Convert produces a USDZ archive at usdzPath from the OBJ file at objPath
// using the default strategy order.
func Convert(ctx context.Context, objPath, usdzPath string) error {
	return ConvertWith(ctx, DefaultConverters(), objPath, usdzPath)
}

// ConvertWith tries each converter in order until one succeeds. The returned
// error aggregates every strategy's failure.
func ConvertWith(ctx context.Context, converters []Converter, objPath, usdzPath string) error {
	if len(converters) == 0 {
		return errors.New("no converters configured")
	}

	var errs []error
	for _, c := range converters {
		if err := c.Convert(ctx, objPath, usdzPath); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		return nil
	}
	return fmt.Errorf("usdz conversion failed: %w", errors.Join(errs...))
}

// Name identifies the external tool strategy.
func (c *ExternalConverter) Name() string {
	return c.Tool
}

// Available reports whether the external tool can be resolved on PATH.
func (c *ExternalConverter) Available() bool {
	_, err := c.lookPath(c.Tool)
	return err == nil
}

// Convert runs the external tool with a bounded timeout and accepts its
// output only when the destination passes the size guard.
func (c *ExternalConverter) Convert(ctx context.Context, objPath, usdzPath string) error {
	toolPath, err := c.lookPath(c.Tool)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrToolUnavailable, c.Tool)
	}

	ctx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	cmd := c.execCommand(ctx, toolPath, objPath, usdzPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		removeIfExists(usdzPath)
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", c.Tool, err, msg)
		}
		return fmt.Errorf("%s failed: %w", c.Tool, err)
	}

	if err := verifyArchive(usdzPath); err != nil {
		removeIfExists(usdzPath)
		return err
	}
	return nil
}

// Name identifies the fallback strategy.
func (ArchiveConverter) Name() string {
	return "archive fallback"
}

// Convert parses the OBJ file, serializes the mesh as a USDA document in an
// ephemeral file, and packages that document into a fresh deflate zip at
// usdzPath. The ephemeral file is removed on every exit path; a failed
// packaging attempt never leaves a destination file behind.
func (ArchiveConverter) Convert(ctx context.Context, objPath, usdzPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mesh, err := obj.ParseFile(objPath)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(usdzPath), "scene-*.usd")
	if err != nil {
		return fmt.Errorf("failed to create intermediate scene file: %w", err)
	}
	tmpPath := tmp.Name()
	defer removeIfExists(tmpPath)

	if err := usd.Encode(tmp, mesh); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize intermediate scene file: %w", err)
	}

	if err := writeArchive(usdzPath, tmpPath); err != nil {
		removeIfExists(usdzPath)
		return err
	}

	// The external tool's output is opaque, so it gets a byte-count guard.
	// Here the container structure is known, so verify it directly: one
	// non-empty scene entry.
	if err := verifyArchiveStructure(usdzPath); err != nil {
		removeIfExists(usdzPath)
		return err
	}
	return nil
}

// writeArchive creates a zip container at dest holding the file at srcPath as
// its single deflate-compressed EntryName entry.
func writeArchive(dest, srcPath string) error {
	zipFile, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)

	header := &zip.FileHeader{
		Name:     EntryName,
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to create archive entry: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to read intermediate scene file: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(w, src); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write archive entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return zipFile.Close()
}

// ReadDocument opens a USDZ archive and returns the name and contents of its
// single scene document entry.
func ReadDocument(usdzPath string) (string, []byte, error) {
	zr, err := zip.OpenReader(usdzPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	if len(zr.File) != 1 {
		return "", nil, fmt.Errorf("archive has %d entries, want exactly 1", len(zr.File))
	}

	entry := zr.File[0]
	rc, err := entry.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read archive entry %s: %w", entry.Name, err)
	}
	return entry.Name, data, nil
}

// verifyArchive enforces the size guard on a produced archive.
func verifyArchive(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("archive not produced: %w", err)
	}
	if info.Size() <= MinArchiveSize {
		return fmt.Errorf("%w: %d bytes", ErrUndersizedArchive, info.Size())
	}
	return nil
}

// verifyArchiveStructure checks that a produced archive is a readable zip
// container holding exactly one non-empty scene document.
func verifyArchiveStructure(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("archive not readable: %w", err)
	}
	defer zr.Close()

	if len(zr.File) != 1 {
		return fmt.Errorf("archive has %d entries, want exactly 1", len(zr.File))
	}
	if zr.File[0].UncompressedSize64 == 0 {
		return fmt.Errorf("%w: empty scene document", ErrUndersizedArchive)
	}
	return nil
}

// removeIfExists deletes path, swallowing errors. Cleanup of ephemeral and
// partial files is best-effort.
func removeIfExists(path string) {
	_ = os.Remove(path)
}
