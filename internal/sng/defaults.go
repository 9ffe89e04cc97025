package sng

import (
	"fmt"
	"time"
)

// Header keys that every song must carry.
var RequiredHeaders = []string{
	"Title",
	"Author",
	"Melody",
	"(c)",
	"CCLI",
	"Songbook",
	"ChurchSongID",
	"VerseOrder",
	"Version",
	"Editor",
}

// Header keys that are allowed but not required.
var OptionalHeaders = []string{
	"ID",
	"OTitle",
	"TitleLang2",
	"Translation",
	"Bible",
	"RECHTE",
}

// Header keys that SongBeamer writes but which should not survive cleaning.
var IllegalHeaders = []string{
	"TitleFormat",
	"FontSize",
	"Format",
}

// TitleNumberChars are the characters making up songbook numbers.
// A title containing any of these is suspect.
const TitleNumberChars = "0123456789."

// SongbookPrefixes are the short prefixes that must not appear in titles.
var SongbookPrefixes = []string{"EG", "FJ", "WWDLP"}

// KnownSongbookPrefixes lists every prefix that is expected to be followed
// by a number in filenames and Songbook headers.
var KnownSongbookPrefixes = map[string]bool{
	"EG":    true,
	"FJ1":   true,
	"FJ2":   true,
	"FJ3":   true,
	"FJ4":   true,
	"FJ5":   true,
	"FJ6":   true,
	"Wwdlp": true,
	"test":  true,
}

// DefaultFolderPrefixes maps songbook folder names to their prefix.
// Folders mapped to "" hold songs without a songbook number.
var DefaultFolderPrefixes = map[string]string{
	"EG Lieder":                "EG",
	"EG Psalmen & Sonstiges":   "EG",
	"Feiert Jesus 1":           "FJ1",
	"Feiert Jesus 2":           "FJ2",
	"Feiert Jesus 3":           "FJ3",
	"Feiert Jesus 4":           "FJ4",
	"Feiert Jesus 5":           "FJ5",
	"Feiert Jesus 6":           "FJ6",
	"Sonstige Lieder":          "",
	"Sonstige Texte":           "",
	"Hintergrundmusik":         "",
	"Test":                     "",
	"Wwdlp (Wo wir dich loben, wachsen neue Lieder plus)": "Wwdlp",
}

// PsalmRange is an inclusive numeric filename range holding psalms.
type PsalmRange struct {
	Start float64
	End   float64
}

// PsalmRanges maps songbook prefixes to the number range of their psalms.
// EG psalms live at 701-758 in the Wuerttemberg edition.
var PsalmRanges = map[string]PsalmRange{
	"EG":    {Start: 701, End: 758},
	"WWDLP": {Start: 901, End: 921},
}

// PsalmBackground is the background image every EG psalm must use.
const PsalmBackground = "Evangelisches Gesangbuch.jpg"

// VerseMarkers is the vocabulary of block labels SongBeamer understands.
var VerseMarkers = []string{
	"Unbekannt",
	"Unbenannt",
	"Unknown",
	"Intro",
	"Vers",
	"Verse",
	"Strophe",
	"Pre - Bridge",
	"Bridge",
	"Misc",
	"Pre-Refrain",
	"Refrain",
	"Pre-Chorus",
	"Chorus",
	"Pre-Coda",
	"Zwischenspiel",
	"Instrumental",
	"Interlude",
	"Coda",
	"Ending",
	"Outro",
	"Teil",
	"Part",
	"Chor",
	"Solo",
}

// Default header values applied to songs that lack them.
const (
	DefaultVersion   = "3"
	DefaultLangCount = "1"
)

var berlin *time.Location

func init() {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.Local
	}
	berlin = loc
}

// DefaultEditor returns the Editor header value stamped on modified files.
// It carries the current date so changed files are identifiable.
func DefaultEditor() string {
	return fmt.Sprintf("songqs cleanup on %s", time.Now().In(berlin).Format("2006-01-02"))
}

func isVerseMarker(word string) bool {
	for _, m := range VerseMarkers {
		if m == word {
			return true
		}
	}
	return false
}

func isTitleNumber(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		ok := false
		for _, c := range TitleNumberChars {
			if r == c {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
