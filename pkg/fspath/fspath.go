// SPDX-License-Identifier: MPL-2.0

// Package fspath provides small filesystem path helpers shared by the
// generation pipelines: deriving filesystem-safe output stems from free-form
// text (prompts, image names) and swapping file extensions.
package fspath

import (
	"path/filepath"
	"strings"
)

// FallbackStem is used when sanitization leaves nothing usable.
const FallbackStem = "model"

// SafeStem derives a filesystem-safe file stem from free-form text such as a
// generation prompt. Only letters, digits, spaces, dashes and underscores
// survive; the input is truncated to maxLen runes first (maxLen <= 0 means
// unbounded), surrounding whitespace is trimmed, and interior spaces become
// underscores. An empty result falls back to FallbackStem.
func SafeStem(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen > 0 && len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	var b strings.Builder
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	stem := strings.TrimSpace(b.String())
	stem = strings.ReplaceAll(stem, " ", "_")
	if stem == "" {
		return FallbackStem
	}
	return stem
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReplaceExt returns path with its extension replaced by newExt, which must
// include the leading dot. A path without an extension gets newExt appended.
func ReplaceExt(path, newExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + newExt
}
