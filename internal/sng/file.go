// Package sng models SongBeamer SNG files: parsing, validation, cleanup
// fixes and rewriting. An SNG file is a line oriented text format with
// "#Key=Value" headers followed by slides separated by "---" lines,
// grouped into verse blocks by marker lines ("Verse 1", "Chorus", or
// custom "$$M=" labels).
package sng

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"songqs/internal/logging"
)

// Encoding identifies the on-disk encoding of a parsed file.
type Encoding int

const (
	// EncodingUTF8 is the canonical encoding, written with a BOM.
	EncodingUTF8 Encoding = iota
	// EncodingLatin1 marks legacy ISO-8859-1 files. Kept on rewrite so a
	// cleanup run does not silently re-encode a whole library.
	EncodingLatin1
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Block is one named verse block: a label ("Verse 1", "$$M=Outro 2", ...)
// and its slides, each slide being a list of lyric lines.
type Block struct {
	Label  []string
	Slides [][]string
}

// Name returns the block name as it appears in file content and VerseOrder.
func (b *Block) Name() string {
	if len(b.Label) > 0 && b.Label[0] == "$$M=" {
		return "$$M=" + b.Label[1]
	}
	return strings.Join(b.Label, " ")
}

// OrderName returns the name used inside the VerseOrder header, which
// drops the "$$M=" prefix for custom labels.
func (b *Block) OrderName() string {
	if len(b.Label) > 0 && b.Label[0] == "$$M=" {
		return b.Label[1]
	}
	return strings.Join(b.Label, " ")
}

// File is a single parsed SNG file.
type File struct {
	Name     string // base filename including .sng
	Dir      string // directory the file was read from
	Prefix   string // songbook prefix of the containing folder, e.g. "EG"
	Header   *Header
	Blocks   []*Block
	Encoding Encoding

	modified bool
}

// ParseFile reads and parses the SNG file at path. The songbook prefix
// comes from the folder the file lives in and drives songbook validation.
//
// UTF-8 with BOM is the canonical encoding. A missing BOM is tolerated
// (logged at info); invalid UTF-8 falls back to ISO-8859-1 and the file
// is flagged so a rewrite keeps the legacy encoding.
func ParseFile(path, prefix string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sng file: %w", err)
	}

	f := &File{
		Name:   filepath.Base(path),
		Dir:    filepath.Dir(path),
		Prefix: prefix,
		Header: NewHeader(),
	}

	var text string
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		logging.L().Debug("detected utf-8 because of BOM", zap.String("file", path))
		text = string(raw[len(utf8BOM):])
	case utf8.Valid(raw):
		logging.L().Info("read as utf-8 but no BOM", zap.String("file", path))
		text = string(raw)
	default:
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		logging.L().Info("read as iso-8859-1 - encoding kept on write",
			zap.String("file", path))
		text = string(decoded)
		f.Encoding = EncodingLatin1
	}

	f.parse(text)
	return f, nil
}

// Parse parses SNG content that is already in memory, for tests and for
// content received from ChurchTools.
func Parse(name, prefix, text string) *File {
	f := &File{
		Name:   name,
		Prefix: prefix,
		Header: NewHeader(),
	}
	f.parse(strings.TrimPrefix(text, "\uFEFF"))
	return f
}

// parse splits the raw text into header parameters and slides, then
// groups the slides into verse blocks.
func (f *File) parse(text string) {
	var slides [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "##"):
			f.parseParam(trimmed)
		case trimmed == "---":
			slides = append(slides, []string{})
		default:
			if len(slides) == 0 {
				// Lyric line before the first slide separator.
				slides = append(slides, []string{})
			}
			slides[len(slides)-1] = append(slides[len(slides)-1], trimmed)
		}
	}
	logging.L().Debug("parsing content", zap.String("file", f.Name))
	f.groupSlides(slides)
}

// groupSlides assigns slides to verse blocks. A slide whose first line is
// a verse marker opens a new block; leading unnamed content collects in an
// "Unknown" block and counts as a modification worth fixing.
func (f *File) groupSlides(slides [][]string) {
	var current *Block
	for _, slide := range slides {
		if len(slide) == 0 {
			f.markModified()
			continue
		}
		if label := VerseMarkerLine(slide[0]); label != nil {
			current = &Block{Label: label}
			current.Slides = append(current.Slides, slide[1:])
			f.Blocks = append(f.Blocks, current)
			continue
		}
		if current == nil {
			f.markModified()
			current = &Block{Label: []string{"Unknown"}}
			current.Slides = append(current.Slides, slide)
			f.Blocks = append(f.Blocks, current)
			continue
		}
		current.Slides = append(current.Slides, slide)
	}
}

// parseParam interprets one "#Key=Value" header line. Lines without "="
// are dropped.
func (f *File) parseParam(line string) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return
	}
	f.Header.Set(line[1:idx], line[idx+1:])
}

// markModified stamps the Editor header so changed files are identifiable
// against their originals.
func (f *File) markModified() {
	f.Header.Set("Editor", DefaultEditor())
	f.modified = true
}

// Modified reports whether any parse or fix step changed the file.
func (f *File) Modified() bool {
	return f.modified
}

// Path returns the full path of the file.
func (f *File) Path() string {
	return filepath.Join(f.Dir, f.Name)
}

// Block returns the block with the given name, or nil.
func (f *File) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Title returns the Title header, or "" when missing.
func (f *File) Title() string {
	return f.Header.Get("Title")
}

// ID returns the ChurchTools song id stored in the header, or -1.
// Files written by older tooling may carry "ID" instead of "id".
func (f *File) ID() int {
	for _, key := range []string{"id", "ID"} {
		if v, ok := f.Header.Lookup(key); ok {
			if id, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return id
			}
		}
	}
	return -1
}

// SetID stores a ChurchTools song id in the header.
func (f *File) SetID(id int) {
	f.Header.Delete("ID")
	f.Header.Set("id", strconv.Itoa(id))
	f.markModified()
}

// IsPsalm reports whether the song is a psalm: its songbook prefix has a
// known psalm range and the numeric filename prefix falls inside it.
// Psalms are exempt from several fixes (titles keep their numbers, the
// songbook entry cannot be derived from the filename).
func (f *File) IsPsalm() bool {
	for prefix, r := range PsalmRanges {
		if !strings.Contains(strings.ToUpper(f.Prefix), prefix) {
			continue
		}
		first := strings.SplitN(f.Name, " ", 2)[0]
		n, err := strconv.ParseFloat(first, 64)
		if err != nil {
			return false
		}
		return r.Start <= n && n <= r.End
	}
	return false
}
