package sng

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"songqs/internal/logging"
)

// Render returns the file as SNG text without any encoding prefix:
// headers first, then each block introduced by "---" and its name, with
// further "---" separators between non-empty slides.
func (f *File) Render() string {
	var b strings.Builder

	for _, key := range f.Header.Keys() {
		b.WriteString("#")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(f.Header.Get(key))
		b.WriteString("\n")
	}

	for _, block := range f.Blocks {
		b.WriteString("---\n")
		b.WriteString(block.Name())
		b.WriteString("\n")
		first := true
		for _, slide := range block.Slides {
			if len(slide) == 0 {
				continue
			}
			if !first {
				b.WriteString("---\n")
			}
			for _, line := range slide {
				b.WriteString(line)
				b.WriteString("\n")
			}
			first = false
		}
	}
	return b.String()
}

// Bytes returns the encoded on-disk representation: UTF-8 with BOM, or
// ISO-8859-1 when the file was read in that legacy encoding.
func (f *File) Bytes() ([]byte, error) {
	text := f.Render()
	if f.Encoding == EncodingLatin1 {
		encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s as iso-8859-1: %w", f.Name, err)
		}
		return encoded, nil
	}
	return append(append([]byte{}, utf8BOM...), text...), nil
}

// Write writes the file back to its path, creating the directory when
// needed.
func (f *File) Write() error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if f.Dir != "" {
		if err := os.MkdirAll(f.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", f.Dir, err)
		}
	}
	path := f.Path()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sng file %s: %w", path, err)
	}
	logging.L().Debug("wrote sng file", zap.String("path", path))
	return nil
}

// Rebase points the file at a different parent directory, keeping the
// songbook folder name. Used to write cleaned copies next to the
// originals instead of over them.
func (f *File) Rebase(newParentDir string) {
	newDir := filepath.Join(newParentDir, filepath.Base(f.Dir))
	logging.L().Debug("changing path",
		zap.String("from", f.Dir), zap.String("to", newDir))
	f.Dir = newDir
}
