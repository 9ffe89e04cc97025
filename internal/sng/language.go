package sng

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// AllLanguageMarkers are the language marker prefixes SongBeamer knows.
// The empty string stands for lines without a marker.
var AllLanguageMarkers = []string{"", "##1", "##2", "##3", "##4"}

// UniqueLanguageMarkers returns the set of language markers explicitly
// used in the content. Lines without a marker contribute the empty
// string, so the set size equals the number of languages present.
func (f *File) UniqueLanguageMarkers() map[string]bool {
	markers := make(map[string]bool)
	for _, b := range f.Blocks {
		for _, slide := range b.Slides {
			for _, line := range slide {
				if strings.HasPrefix(line, "##") && len(line) >= 3 {
					markers[line[:3]] = true
				} else {
					markers[""] = true
				}
			}
		}
	}
	return markers
}

// languageCount is the number of languages the content actually uses.
// Unmarked lines count as ##1 when explicit markers exist alongside.
func (f *File) languageCount() int {
	markers := f.UniqueLanguageMarkers()
	count := len(markers)
	if count > 1 && markers[""] {
		count--
	}
	return count
}

// ValidateLangCount checks the LangCount header against the number of
// languages used in the content, overwriting it when fix is set.
func (f *File) ValidateLangCount(fix bool) bool {
	current := -1
	if v, ok := f.Header.Lookup("LangCount"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			current = n
		}
	}

	used := f.languageCount()
	if current == used {
		return true
	}
	if !fix {
		return false
	}

	logging.L().Info("overwriting language count",
		zap.Int("from", current), zap.Int("to", used),
		zap.String("file", f.Name))
	f.Header.Set("LangCount", strconv.Itoa(used))
	f.markModified()
	return f.ValidateLangCount(false)
}

// ValidateLanguageMarkers checks that content lines carry the language
// markers the LangCount header promises. The fix prepends ##1..##N to
// unmarked lines, cycling per slide. Psalms are checked against their
// own marker convention and never fixed because their language blocks
// span multiple lines.
func (f *File) ValidateLanguageMarkers(fix bool) bool {
	if f.IsPsalm() {
		return f.validatePsalmLanguageMarkers(fix)
	}

	expected := 1
	if v, ok := f.Header.Lookup("LangCount"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			expected = n
		}
	}

	if expected == 1 && len(f.UniqueLanguageMarkers()) == 1 {
		return true
	}

	markers := make([]string, expected)
	for i := range markers {
		markers[i] = "##" + strconv.Itoa(i+1) + " "
	}

	valid := true
	for _, b := range f.Blocks {
		for _, slide := range b.Slides {
			valid = f.validateSlideLanguageMarkers(slide, markers, fix) && valid
		}
	}
	return valid
}

func (f *File) validateSlideLanguageMarkers(slide, markers []string, fix bool) bool {
	next := 0
	for i, line := range slide {
		if strings.HasPrefix(line, "##") {
			continue
		}
		if !fix {
			return false
		}
		slide[i] = markers[next%len(markers)] + line
		next++
		f.markModified()
	}
	return true
}

// validatePsalmLanguageMarkers checks the psalm convention: every line
// carries ##1, ##3 or ##4 (##2 is reserved there).
func (f *File) validatePsalmLanguageMarkers(fix bool) bool {
	for _, b := range f.Blocks {
		for _, slide := range b.Slides {
			for _, line := range slide {
				if strings.HasPrefix(line, "##1") ||
					strings.HasPrefix(line, "##3") ||
					strings.HasPrefix(line, "##4") {
					continue
				}
				if fix {
					logging.L().Warn("cannot fix line because song is a psalm",
						zap.String("line", line), zap.String("file", f.Name))
				}
				return false
			}
		}
	}
	return true
}

// ContentForLanguages strips the content down to lines matching the
// given language markers, in place. The empty string selects unmarked
// lines; nil keeps everything. Slide structure is preserved even when a
// slide ends up empty.
func (f *File) ContentForLanguages(languages []string) {
	if len(languages) == 0 {
		languages = AllLanguageMarkers
	}
	for _, b := range f.Blocks {
		for si, slide := range b.Slides {
			kept := slide[:0]
			for _, line := range slide {
				if lineMatchesLanguages(line, languages) {
					kept = append(kept, line)
				}
			}
			b.Slides[si] = kept
		}
	}
}

func lineMatchesLanguages(line string, languages []string) bool {
	for _, lang := range languages {
		if lang == "" {
			if !strings.HasPrefix(line, "##") {
				return true
			}
			continue
		}
		if strings.HasPrefix(line, lang) {
			return true
		}
	}
	return false
}
