package library

import (
	"go.uber.org/zap"

	"songqs/internal/logging"
	"songqs/internal/sng"
)

// Check identifies one validation rule.
type Check string

const (
	CheckVerseOrder      Check = "verse_order"
	CheckStop            Check = "stop"
	CheckVerseNumbers    Check = "verse_numbers"
	CheckSlideLines      Check = "slide_lines"
	CheckTitle           Check = "title"
	CheckSongbook        Check = "songbook"
	CheckIllegalHeaders  Check = "illegal_headers"
	CheckBackground      Check = "background"
	CheckRequiredHeaders Check = "required_headers"
	CheckEncoding        Check = "encoding"
	CheckLangCount       Check = "lang_count"
)

// Issue is one failed check on one song.
type Issue struct {
	File  string
	Check Check
}

// ValidateSong runs every check on a song without changing it and
// returns the failures.
func ValidateSong(f *sng.File, linesPerSlide int) []Issue {
	var issues []Issue
	record := func(check Check, ok bool) {
		if !ok {
			issues = append(issues, Issue{File: f.Name, Check: check})
		}
	}

	record(CheckVerseOrder, f.ValidateVerseOrder(false))
	record(CheckStop, f.ValidateStop(false, false))
	record(CheckVerseNumbers, f.ValidateVerseNumbers(false))
	record(CheckSlideLines, f.ValidateSlideLineCount(linesPerSlide, false))
	record(CheckTitle, f.ValidateTitle(false))
	record(CheckSongbook, f.ValidateSongbook(false))
	record(CheckIllegalHeaders, f.ValidateIllegalHeaders(false))
	if f.IsPsalm() {
		record(CheckBackground, f.ValidateBackground(false))
	}
	record(CheckRequiredHeaders, f.ValidateRequiredHeaders())
	record(CheckEncoding, f.ValidateEncoding(false))
	record(CheckLangCount, f.ValidateLangCount(false))
	return issues
}

// CleanSong applies every fix to a song in a fixed order. Content
// structure is repaired first so the header fixes see final blocks.
// Returns the issues that remain unfixable.
func CleanSong(f *sng.File, linesPerSlide int) []Issue {
	var issues []Issue
	record := func(check Check, ok bool) {
		if !ok {
			issues = append(issues, Issue{File: f.Name, Check: check})
		}
	}

	record(CheckVerseOrder, f.ValidateVerseOrder(true))
	f.FixIntroSlide()
	// STOP entries elsewhere than at the end can be intentional, only a
	// missing one is added.
	record(CheckStop, f.ValidateStop(true, false))
	record(CheckVerseNumbers, f.ValidateVerseNumbers(true))
	record(CheckSlideLines, f.ValidateSlideLineCount(linesPerSlide, true))

	record(CheckTitle, f.ValidateTitle(true))
	record(CheckSongbook, f.ValidateSongbook(true))
	record(CheckIllegalHeaders, f.ValidateIllegalHeaders(true))
	f.FixHeaderKeyCase("CCLI")
	if f.IsPsalm() {
		record(CheckBackground, f.ValidateBackground(true))
	}
	record(CheckRequiredHeaders, f.ValidateRequiredHeaders())

	record(CheckEncoding, f.ValidateEncoding(true))
	record(CheckLangCount, f.ValidateLangCount(true))
	return issues
}

// CleanAll cleans every song and returns all remaining issues.
func CleanAll(files []*sng.File, linesPerSlide int) []Issue {
	logging.L().Info("cleaning songs", zap.Int("count", len(files)))
	var issues []Issue
	for _, f := range files {
		issues = append(issues, CleanSong(f, linesPerSlide)...)
	}
	logging.L().Info("cleaning finished",
		zap.Int("songs", len(files)), zap.Int("open_issues", len(issues)))
	return issues
}

// ValidateAll validates every song without fixing and returns all issues.
func ValidateAll(files []*sng.File, linesPerSlide int) []Issue {
	var issues []Issue
	for _, f := range files {
		issues = append(issues, ValidateSong(f, linesPerSlide)...)
	}
	return issues
}
