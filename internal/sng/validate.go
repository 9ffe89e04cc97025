package sng

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// songbookRe validates Songbook/ChurchSongID syntax: "Wwdlp 123",
// "FJ1/123" .. "FJ6/123", "EG 123", "EG 123.45" or "EG 712 - Psalm 23".
var songbookRe = regexp.MustCompile(
	`^(Wwdlp \d{3})$|(^FJ([1-6])/\d{3})$|^(EG \d{3}(\.\d{1,2})?)( - Psalm \d{1,3}( .{1,3})?)?$`)

// ValidateRequiredHeaders checks that all required headers are present.
// Psalms additionally need a Bible reference, multi-language songs a
// Translation header. Report-only, there is no generic fix.
func (f *File) ValidateRequiredHeaders() bool {
	var missing []string
	for _, key := range RequiredHeaders {
		if !f.Header.Has(key) {
			missing = append(missing, key)
		}
	}

	if f.IsPsalm() && !f.Header.Has("Bible") {
		missing = append(missing, "Bible")
	}

	if v, ok := f.Header.Lookup("LangCount"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 1 && !f.Header.Has("Translation") {
			missing = append(missing, "Translation")
		}
	}

	if len(missing) > 0 {
		logging.L().Warn("missing required headers",
			zap.String("file", f.Name), zap.Strings("missing", missing))
		return false
	}
	return true
}

// ValidateTitle checks the Title header: it must exist and must not carry
// a songbook number or prefix. Songs without a songbook prefix and psalms
// are exempt because titles like "Psalm 21" are legitimate there.
func (f *File) ValidateTitle(fix bool) bool {
	title := f.Header.Get("Title")
	var problem string

	switch {
	case title == "":
		problem = "song without a title in header"
	case f.Prefix == "" || f.IsPsalm():
		return true
	case containsTitleNumber(title):
		problem = "song with number in title"
	case ContainsSongbookPrefix(title):
		problem = "song with songbook in title"
	}

	if problem == "" {
		return true
	}
	if fix {
		return f.fixTitle()
	}
	logging.L().Warn(problem,
		zap.String("title", title), zap.String("file", f.Name))
	return false
}

// fixTitle rebuilds the title from the filename, dropping numeric tokens
// and songbook prefixes. Psalm filenames carry structure that cannot be
// recovered automatically.
func (f *File) fixTitle() bool {
	base := strings.TrimSuffix(f.Name, ".sng")
	parts := strings.Split(base, " ")

	for _, p := range parts {
		if p == "Psalm" {
			logging.L().Warn("cannot fix title of psalm without complete heading",
				zap.String("file", f.Name))
			return f.ValidateTitle(false)
		}
	}

	var kept []string
	for _, p := range parts {
		if p == "" || isTitleNumber(p) || ContainsSongbookPrefix(p) {
			f.markModified()
			continue
		}
		kept = append(kept, p)
	}
	f.Header.Set("Title", strings.Join(kept, " "))
	logging.L().Debug("fixed title",
		zap.String("title", f.Header.Get("Title")), zap.String("file", f.Name))
	return f.ValidateTitle(false)
}

// ValidateSongbook checks Songbook and ChurchSongID: both present and
// equal, and matching the songbook syntax when they belong to the
// folder's own songbook. The fix normalizes header key capitalization
// and rebuilds both entries from the filename number.
func (f *File) ValidateSongbook(fix bool) bool {
	valid := f.songbookValid()
	logging.L().Debug("songbook validation",
		zap.String("file", f.Name), zap.Bool("valid", valid))

	if fix && !valid {
		f.FixHeaderKeyCase("ChurchSongID")
		f.FixSongbookFromFilename()
		valid = f.songbookValid()
	}

	if !valid {
		logging.L().Error("songbook not valid - kept original",
			zap.String("file", f.Name),
			zap.String("songbook", f.Header.Get("Songbook")),
			zap.String("churchSongID", f.Header.Get("ChurchSongID")))
		return false
	}
	return true
}

func (f *File) songbookValid() bool {
	songbook, hasSongbook := f.Header.Lookup("Songbook")
	csID, hasCSID := f.Header.Lookup("ChurchSongID")
	// SongBeamer silently drops blank ChurchSongID entries on edit.
	if !hasSongbook || !hasCSID {
		return false
	}

	valid := songbook == csID
	// Syntax rules only apply to entries of the folder's own songbook.
	// Consistent foreign or blanked entries pass as-is.
	if f.Prefix != "" && strings.Contains(songbook, f.Prefix) {
		valid = valid && songbookRe.MatchString(songbook)
	}
	return valid
}

// FixHeaderKeyCase renames any wrong-case variant of the canonical header
// key (churchsongid -> ChurchSongID, ccli -> CCLI). Returns whether a
// rename happened.
func (f *File) FixHeaderKeyCase(canonical string) bool {
	if f.Header.Has(canonical) {
		return false
	}
	for _, key := range f.Header.Keys() {
		if strings.EqualFold(key, canonical) {
			f.Header.Rename(key, canonical)
			logging.L().Debug("normalized header key",
				zap.String("from", key), zap.String("to", canonical),
				zap.String("file", f.Name))
			f.markModified()
			return true
		}
	}
	return false
}

// ValidateIllegalHeaders checks that none of the headers SongBeamer
// should not persist are present, removing them when fix is set.
func (f *File) ValidateIllegalHeaders(fix bool) bool {
	for _, key := range IllegalHeaders {
		if !f.Header.Has(key) {
			continue
		}
		if !fix {
			logging.L().Debug("not fixing illegal header",
				zap.String("key", key), zap.String("file", f.Name))
			return false
		}
		f.Header.Delete(key)
		f.markModified()
		logging.L().Debug("removed illegal header",
			zap.String("key", key), zap.String("file", f.Name))
	}
	return true
}

// ValidateBackground checks the BackgroundImage header. Every song needs
// one; psalms must use the shared songbook background for a consistent
// look. Only the psalm case is fixable.
func (f *File) ValidateBackground(fix bool) bool {
	var problem string
	if !f.Header.Has("BackgroundImage") {
		problem = "no background image"
	} else if f.IsPsalm() && f.Header.Get("BackgroundImage") != PsalmBackground {
		problem = "incorrect background for psalm"
	}

	if problem == "" {
		return true
	}
	if fix {
		return f.fixBackground()
	}
	logging.L().Debug(problem, zap.String("file", f.Name))
	return false
}

func (f *File) fixBackground() bool {
	if f.IsPsalm() {
		f.Header.Set("BackgroundImage", PsalmBackground)
		f.markModified()
		logging.L().Debug("fixed psalm background", zap.String("file", f.Name))
		return true
	}
	logging.L().Warn("cannot fix background", zap.String("file", f.Name))
	return false
}

// FixSongbookFromFilename rebuilds Songbook and ChurchSongID from the
// numeric filename prefix and the folder prefix. Songs without either
// get the blank " " entry SongBeamer expects. Returns whether anything
// was updated.
func (f *File) FixSongbookFromFilename() bool {
	first := strings.SplitN(f.Name, " ", 2)[0]
	before := f.Header.Get("Songbook")

	if isTitleNumber(first) {
		return f.fixSongbookWithNumber(first)
	}

	if f.Prefix != "" {
		if KnownSongbookPrefixes[f.Prefix] {
			logging.L().Warn("missing digits as first block in filename - cannot fix songbook",
				zap.String("file", f.Name))
		} else {
			logging.L().Warn("unknown songbook prefix - cannot fix songbook",
				zap.String("file", f.Name), zap.String("prefix", f.Prefix))
		}
	}

	if f.Header.Get("Songbook") == " " && f.Header.Get("ChurchSongID") == " " {
		return false
	}
	f.Header.Set("Songbook", " ")
	f.Header.Set("ChurchSongID", " ")
	logging.L().Debug("blanked songbook",
		zap.String("from", before), zap.String("file", f.Name))
	f.markModified()
	return true
}

func (f *File) fixSongbookWithNumber(number string) bool {
	before := f.Header.Get("Songbook")

	if f.IsPsalm() {
		// Psalm entries combine number and psalm reference; needs a human.
		if !f.Header.Has("Songbook") {
			f.Header.Set("Songbook", " ")
		}
		if !f.Header.Has("ChurchSongID") {
			f.Header.Set("ChurchSongID", " ")
		}
		logging.L().Info("psalm cannot be auto corrected - adjust manually",
			zap.String("file", f.Name),
			zap.String("songbook", f.Header.Get("Songbook")))
		return false
	}

	var songbook string
	if strings.Contains(f.Prefix, "FJ") {
		songbook = f.Prefix + "/" + number
	} else {
		songbook = f.Prefix + " " + number
	}

	if f.Header.Get("Songbook") == songbook && f.Header.Get("ChurchSongID") == songbook {
		return false
	}
	f.Header.Set("Songbook", songbook)
	f.Header.Set("ChurchSongID", songbook)
	logging.L().Debug("corrected songbook",
		zap.String("from", before), zap.String("to", songbook),
		zap.String("file", f.Name))
	f.markModified()
	return true
}
