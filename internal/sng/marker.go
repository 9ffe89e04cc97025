package sng

import (
	"fmt"
	"regexp"
	"strings"
)

// VerseMarkerLine checks whether a content line is a verse block label.
// Returns the split label ("Verse 1" -> ["Verse","1"], "$$M=x" ->
// ["$$M=","x"]) or nil when the line is regular lyrics.
func VerseMarkerLine(line string) []string {
	if strings.HasPrefix(line, "$$M=") {
		return []string{"$$M=", line[4:]}
	}

	parts := strings.Split(line, " ")
	// A label is at most marker plus one qualifier.
	if len(parts) > 2 {
		return nil
	}
	if isVerseMarker(parts[0]) {
		return parts
	}
	return nil
}

var songbookPrefixRes = buildSongbookPrefixRes()

func buildSongbookPrefixRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(SongbookPrefixes))
	for _, p := range SongbookPrefixes {
		pattern := fmt.Sprintf(
			`^((%[1]s\W+.*)|(.*\W+%[1]s)|(%[1]s\d+.*)|(.*\d+%[1]s)|(^%[1]s)|(%[1]s$))`, p)
		res = append(res, regexp.MustCompile(pattern))
	}
	return res
}

// ContainsSongbookPrefix reports whether text carries a songbook prefix
// like "EG", "FJ5/999" or "999EG" in any of the usual spellings.
func ContainsSongbookPrefix(text string) bool {
	upper := strings.ToUpper(text)
	for _, re := range songbookPrefixRes {
		if re.MatchString(upper) {
			return true
		}
	}
	return false
}

// containsTitleNumber reports whether any rune of text is a songbook
// number character.
func containsTitleNumber(text string) bool {
	return strings.ContainsAny(text, TitleNumberChars)
}

// detectMarkerRe matches an optional verse/chorus/bridge prefix, an
// optional number and an optional ":" or "." separator at line start.
var detectMarkerRe = regexp.MustCompile(
	`(?i)^((?:R(?:efrain)? ?)|(?:C(?:horus)? ?)|(?:V(?:erse)? ?)|(?:S(?:trophe)? ?)|(?:B(?:ridge)? ?))?(\d*)[:.]?`)

// DetectVerseMarker derives a verse label from a free-form lyric line,
// used when segmenting "Unknown" blocks. It understands prefixes like
// "Refrain 1:", "R1", "Strophe 10:" and bare leading numbers ("4. Text"
// becomes Verse 4). Returns nil and the unchanged line when nothing is
// detected.
func DetectVerseMarker(line string) ([]string, string) {
	m := detectMarkerRe.FindStringSubmatch(line)
	prefix, number := m[1], m[2]
	if prefix == "" && number == "" {
		return nil, line
	}
	rest := strings.TrimLeft(line[len(m[0]):], " ")

	var kind string
	switch {
	case prefix == "":
		kind = "Verse" // bare leading number
	case prefix[0] == 'B' || prefix[0] == 'b':
		kind = "Bridge"
	case prefix[0] == 'R' || prefix[0] == 'r' || prefix[0] == 'C' || prefix[0] == 'c':
		kind = "Chorus"
	default:
		kind = "Verse"
	}
	return []string{kind, number}, rest
}
