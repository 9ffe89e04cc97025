package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songqs/internal/sng"
)

func checks(issues []Issue) map[Check]bool {
	set := make(map[Check]bool)
	for _, issue := range issues {
		set[issue.Check] = true
	}
	return set
}

func TestValidateSong(t *testing.T) {
	f := sng.Parse("123 Lied.sng", "EG",
		"#Title=123 Lied\n#FontSize=30\n---\nVerse 1\nText\n")

	issues := ValidateSong(f, 4)
	set := checks(issues)

	assert.True(t, set[CheckTitle])
	assert.True(t, set[CheckIllegalHeaders])
	assert.True(t, set[CheckSongbook])
	assert.True(t, set[CheckRequiredHeaders])
	assert.True(t, set[CheckStop])
	assert.False(t, set[CheckSlideLines])
	assert.False(t, set[CheckEncoding])
}

func TestCleanSong(t *testing.T) {
	f := sng.Parse("123 Lied.sng", "EG",
		"#Title=123 Lied\n#FontSize=30\n#VerseOrder=Verse 1\n---\nVerse 1\nText\n")

	issues := CleanSong(f, 4)
	set := checks(issues)

	assert.Equal(t, "Lied", f.Title())
	assert.False(t, f.Header.Has("FontSize"))
	assert.Equal(t, "EG 123", f.Header.Get("Songbook"))
	assert.Equal(t, "EG 123", f.Header.Get("ChurchSongID"))

	order := f.Header.VerseOrder()
	assert.Equal(t, "Intro", order[0])
	assert.Equal(t, "STOP", order[len(order)-1])
	require.NotNil(t, f.Block("Intro"))

	assert.False(t, set[CheckTitle])
	assert.False(t, set[CheckSongbook])
	assert.False(t, set[CheckIllegalHeaders])
	// Author, Melody etc. cannot be invented
	assert.True(t, set[CheckRequiredHeaders])
	assert.True(t, f.Modified())
}

func TestCleanSongReflowsSlides(t *testing.T) {
	f := sng.Parse("Lied.sng", "",
		"#Title=Lied\n#VerseOrder=Verse 1\n---\nVerse 1\na\nb\nc\nd\ne\n")

	CleanSong(f, 4)
	verse := f.Block("Verse 1")
	require.NotNil(t, verse)
	require.Len(t, verse.Slides, 2)
	assert.Len(t, verse.Slides[0], 4)
	assert.Len(t, verse.Slides[1], 1)
}

func TestCleanAllCountsIssues(t *testing.T) {
	good := sng.Parse("123 Gut.sng", "EG",
		"#Title=Gut\n#Author=A\n#Melody=M\n#(c)=C\n#CCLI=1\n#Songbook=EG 123\n"+
			"#ChurchSongID=EG 123\n#VerseOrder=Verse 1\n#Version=3\n#Editor=E\n"+
			"#BackgroundImage=bg.jpg\n#LangCount=1\n---\nVerse 1\nText\n")
	bad := sng.Parse("456 Schlecht.sng", "EG", "#FontSize=12\n---\nText ohne alles\n")

	issues := CleanAll([]*sng.File{good, bad}, 4)

	for _, issue := range issues {
		assert.Equal(t, "456 Schlecht.sng", issue.File)
	}
	assert.NotEmpty(t, issues)
}
