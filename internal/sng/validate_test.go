package sng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiredHeaders(t *testing.T) {
	full := "#Title=X\n#Author=A\n#Melody=M\n#(c)=C\n#CCLI=1\n#Songbook= \n" +
		"#ChurchSongID= \n#VerseOrder=Verse 1\n#Version=3\n#Editor=E\n"

	t.Run("complete", func(t *testing.T) {
		f := Parse("test.sng", "", full)
		assert.True(t, f.ValidateRequiredHeaders())
	})

	t.Run("missing title", func(t *testing.T) {
		f := Parse("test.sng", "", "#Author=A\n")
		assert.False(t, f.ValidateRequiredHeaders())
	})

	t.Run("psalm needs bible reference", func(t *testing.T) {
		f := Parse("709 Psalm 22.sng", "EG", full)
		assert.False(t, f.ValidateRequiredHeaders())
		f.Header.Set("Bible", "Ps 22")
		assert.True(t, f.ValidateRequiredHeaders())
	})

	t.Run("multilang needs translation", func(t *testing.T) {
		f := Parse("test.sng", "", full+"#LangCount=2\n")
		assert.False(t, f.ValidateRequiredHeaders())
		f.Header.Set("Translation", "english")
		assert.True(t, f.ValidateRequiredHeaders())
	})
}

func TestValidateTitle(t *testing.T) {
	t.Run("plain title ok", func(t *testing.T) {
		f := Parse("123 Lobe den Herren.sng", "EG", "#Title=Lobe den Herren\n")
		assert.True(t, f.ValidateTitle(false))
	})

	t.Run("number in title fixed from filename", func(t *testing.T) {
		f := Parse("123 Lobe den Herren.sng", "EG", "#Title=123 Lobe den Herren\n")
		assert.False(t, f.ValidateTitle(false))
		assert.True(t, f.ValidateTitle(true))
		assert.Equal(t, "Lobe den Herren", f.Title())
		assert.True(t, f.Modified())
	})

	t.Run("songbook prefix in title fixed", func(t *testing.T) {
		f := Parse("123 Lied.sng", "FJ1", "#Title=FJ123 Lied\n")
		assert.True(t, f.ValidateTitle(true))
		assert.Equal(t, "Lied", f.Title())
	})

	t.Run("no prefix allows numbers", func(t *testing.T) {
		f := Parse("Psalm 23.sng", "", "#Title=Psalm 23\n")
		assert.True(t, f.ValidateTitle(false))
	})

	t.Run("psalm title keeps its number", func(t *testing.T) {
		f := Parse("709 Psalm 22.sng", "EG", "#Title=Psalm 22\n")
		assert.True(t, f.ValidateTitle(false))

		f = Parse("709 Psalm 22.sng", "EG", "#Title=709 Psalm 22\n")
		assert.True(t, f.ValidateTitle(true))
		assert.Equal(t, "709 Psalm 22", f.Title())
	})

	t.Run("psalm name outside psalm range still fixed", func(t *testing.T) {
		f := Parse("123 Psalm des Lebens.sng", "EG", "#Title=123 Psalm des Lebens\n")
		assert.False(t, f.ValidateTitle(true))
	})

	t.Run("missing title fixed from filename", func(t *testing.T) {
		f := Parse("123 Neues Lied.sng", "EG", "#Author=A\n")
		assert.True(t, f.ValidateTitle(true))
		assert.Equal(t, "Neues Lied", f.Title())
	})
}

func TestValidateSongbook(t *testing.T) {
	t.Run("valid entry", func(t *testing.T) {
		f := Parse("123 Lied.sng", "EG", "#Songbook=EG 123\n#ChurchSongID=EG 123\n")
		assert.True(t, f.ValidateSongbook(false))
	})

	t.Run("fix from filename", func(t *testing.T) {
		f := Parse("123 Lied.sng", "EG", "#Songbook=falsch\n#ChurchSongID=anders\n")
		assert.False(t, f.ValidateSongbook(false))
		assert.True(t, f.ValidateSongbook(true))
		assert.Equal(t, "EG 123", f.Header.Get("Songbook"))
		assert.Equal(t, "EG 123", f.Header.Get("ChurchSongID"))
	})

	t.Run("fj uses slash", func(t *testing.T) {
		f := Parse("022 Lied.sng", "FJ2", "#Songbook=FJ2 022\n#ChurchSongID=FJ2 022\n")
		assert.False(t, f.ValidateSongbook(false))
		assert.True(t, f.ValidateSongbook(true))
		assert.Equal(t, "FJ2/022", f.Header.Get("Songbook"))
	})

	t.Run("consistent entries without own prefix are valid", func(t *testing.T) {
		blank := Parse("Lied.sng", "EG", "#Songbook= \n#ChurchSongID= \n")
		assert.True(t, blank.ValidateSongbook(false))

		foreign := Parse("Lied.sng", "EG", "#Songbook=Anderes Buch 1\n#ChurchSongID=Anderes Buch 1\n")
		assert.True(t, foreign.ValidateSongbook(false))
	})

	t.Run("no prefix blanks mismatched entries", func(t *testing.T) {
		f := Parse("Lied ohne Nummer.sng", "", "#Songbook=EG 123\n#ChurchSongID=anders\n")
		assert.True(t, f.ValidateSongbook(true))
		assert.Equal(t, " ", f.Header.Get("Songbook"))
		assert.Equal(t, " ", f.Header.Get("ChurchSongID"))
	})

	t.Run("caps variant renamed in place", func(t *testing.T) {
		f := Parse("123 Lied.sng", "EG", "#Title=X\n#ChurchSongId=EG 123\n#Author=A\n")
		f.Header.Set("Songbook", "EG 123")
		assert.True(t, f.ValidateSongbook(true))
		assert.False(t, f.Header.Has("ChurchSongId"))
		assert.Equal(t, "EG 123", f.Header.Get("ChurchSongID"))
		// position preserved
		assert.Equal(t, []string{"Title", "ChurchSongID", "Author", "Songbook", "Editor"},
			f.Header.Keys())
	})

	t.Run("psalm blanked for manual correction", func(t *testing.T) {
		f := Parse("709 Psalm 22.sng", "EG", "#Title=X\n")
		// The fix only blanks the entries; the blank pair then counts as
		// consistent until someone fills in the real psalm reference.
		assert.True(t, f.ValidateSongbook(true))
		assert.Equal(t, " ", f.Header.Get("Songbook"))
		assert.Equal(t, " ", f.Header.Get("ChurchSongID"))
	})
}

func TestSongbookSyntax(t *testing.T) {
	valid := []string{"EG 123", "EG 123.45", "EG 712 - Psalm 23", "Wwdlp 123", "FJ1/123", "FJ6/999"}
	for _, s := range valid {
		assert.True(t, songbookRe.MatchString(s), s)
	}

	invalid := []string{"EG123", "EG 1234", "FJ7/123", "FJ1 123", "Wwdlp 12"}
	for _, s := range invalid {
		assert.False(t, songbookRe.MatchString(s), s)
	}
}

func TestValidateIllegalHeaders(t *testing.T) {
	f := Parse("test.sng", "", "#Title=X\n#FontSize=30\n#Format=F\n")

	assert.False(t, f.ValidateIllegalHeaders(false))
	assert.True(t, f.ValidateIllegalHeaders(true))
	assert.False(t, f.Header.Has("FontSize"))
	assert.False(t, f.Header.Has("Format"))
	assert.True(t, f.Header.Has("Title"))
	assert.True(t, f.Modified())
}

func TestValidateBackground(t *testing.T) {
	t.Run("psalm background corrected", func(t *testing.T) {
		f := Parse("709 Psalm 22.sng", "EG", "#Title=X\n#BackgroundImage=falsch.jpg\n")
		assert.False(t, f.ValidateBackground(false))
		assert.True(t, f.ValidateBackground(true))
		assert.Equal(t, PsalmBackground, f.Header.Get("BackgroundImage"))
	})

	t.Run("missing background on regular song not fixable", func(t *testing.T) {
		f := Parse("123 Lied.sng", "EG", "#Title=X\n")
		assert.False(t, f.ValidateBackground(true))
	})

	t.Run("regular song keeps its background", func(t *testing.T) {
		f := Parse("123 Lied.sng", "EG", "#Title=X\n#BackgroundImage=eigene.jpg\n")
		assert.True(t, f.ValidateBackground(false))
	})
}

func TestFixHeaderKeyCase(t *testing.T) {
	f := Parse("test.sng", "", "#ccli=12345\n")
	require.True(t, f.FixHeaderKeyCase("CCLI"))
	assert.Equal(t, "12345", f.Header.Get("CCLI"))
	assert.False(t, f.Header.Has("ccli"))

	// already canonical: no change
	assert.False(t, f.FixHeaderKeyCase("CCLI"))
}
