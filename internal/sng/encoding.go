package sng

import (
	"strings"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// mojibake pairs of german umlauts: UTF-8 bytes misread as ISO-8859-1.
var mojibake = []struct{ broken, fixed string }{
	{"\u00c3\u00a4", "ä"},
	{"\u00c3\u00b6", "ö"},
	{"\u00c3\u00bc", "ü"},
	{"\u00c3\u0084", "Ä"},
	{"\u00c3\u0096", "Ö"},
	{"\u00c3\u009c", "Ü"},
	{"\u00c3\u009f", "ß"},
}

// RepairMojibake checks a string for double-encoded german umlauts and
// optionally repairs it. Detection looks at the string start (matching
// the checks this replaces); repair substitutes all occurrences.
// Returns whether the text is clean after the call and the (possibly
// repaired) text.
func RepairMojibake(text string, fix bool) (bool, string) {
	suspicious := false
	for _, m := range mojibake {
		if strings.HasPrefix(text, m.broken) {
			suspicious = true
			break
		}
	}
	if !suspicious {
		return true, text
	}

	logging.L().Info("found problematic encoding", zap.String("text", text))
	if !fix {
		return false, text
	}

	repaired := text
	for _, m := range mojibake {
		repaired = strings.ReplaceAll(repaired, m.broken, m.fixed)
	}
	if repaired != text {
		logging.L().Debug("replaced suspicious encoding",
			zap.String("from", text), zap.String("to", repaired))
	} else {
		logging.L().Warn("could not fix suspicious encoding automatically",
			zap.String("text", text))
	}
	return true, repaired
}

// ValidateEncoding checks header and content for mojibake, optionally
// repairing both. Returns whether the file is free of suspicious
// sequences after the call.
func (f *File) ValidateEncoding(fix bool) bool {
	header := f.validateEncodingHeader(fix)
	content := f.validateEncodingContent(fix)
	return header && content
}

func (f *File) validateEncodingHeader(fix bool) bool {
	valid := true
	for _, key := range f.Header.Keys() {
		ok, repaired := RepairMojibake(f.Header.Get(key), fix)
		if !ok {
			valid = false
			logging.L().Info("problematic encoding in header",
				zap.String("key", key), zap.String("file", f.Name))
			continue
		}
		if fix && repaired != f.Header.Get(key) {
			f.Header.Set(key, repaired)
			f.markModified()
		}
	}
	return valid
}

func (f *File) validateEncodingContent(fix bool) bool {
	for _, block := range f.Blocks {
		for slideNo, slide := range block.Slides {
			for lineNo, line := range slide {
				ok, repaired := RepairMojibake(line, fix)
				if !ok {
					logging.L().Info("problematic encoding in content",
						zap.String("block", block.Name()),
						zap.Int("slide", slideNo),
						zap.Int("line", lineNo),
						zap.String("file", f.Name))
					return false
				}
				if fix && repaired != line {
					slide[lineNo] = repaired
					f.markModified()
				}
			}
		}
	}
	return true
}
