package sng

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSong = "#Title=Test Lied\n" +
	"#Author=Max Mustermann\n" +
	"#VerseOrder=Intro,Verse 1,Chorus,STOP\n" +
	"---\n" +
	"Intro\n" +
	"---\n" +
	"Verse 1\n" +
	"Zeile eins\n" +
	"Zeile zwei\n" +
	"---\n" +
	"Chorus\n" +
	"Refrainzeile\n"

func TestParse(t *testing.T) {
	f := Parse("test.sng", "", sampleSong)

	assert.Equal(t, "Test Lied", f.Title())
	assert.Equal(t, "Max Mustermann", f.Header.Get("Author"))
	assert.Equal(t, []string{"Intro", "Verse 1", "Chorus", "STOP"}, f.Header.VerseOrder())

	require.Len(t, f.Blocks, 3)
	assert.Equal(t, "Intro", f.Blocks[0].Name())
	assert.Equal(t, "Verse 1", f.Blocks[1].Name())
	assert.Equal(t, "Chorus", f.Blocks[2].Name())

	require.Len(t, f.Blocks[1].Slides, 1)
	assert.Equal(t, []string{"Zeile eins", "Zeile zwei"}, f.Blocks[1].Slides[0])
	assert.False(t, f.Modified())
}

func TestParseStripsLeadingBOM(t *testing.T) {
	f := Parse("test.sng", "", "\uFEFF"+sampleSong)
	assert.Equal(t, "Test Lied", f.Title())
	assert.True(t, f.Header.Has("Title"))
}

func TestParseHeaderOrderPreserved(t *testing.T) {
	f := Parse("test.sng", "", "#Zebra=1\n#Alpha=2\n#Mitte=3\n")
	assert.Equal(t, []string{"Zebra", "Alpha", "Mitte"}, f.Header.Keys())
}

func TestParseLanguageMarkerNotHeader(t *testing.T) {
	// "##1" lines are language markers inside content, not headers.
	f := Parse("test.sng", "", "#Title=X\n---\nVerse 1\n##1 Text\n##2 Text\n")
	require.Len(t, f.Blocks, 1)
	assert.Equal(t, []string{"##1 Text", "##2 Text"}, f.Blocks[0].Slides[0])
	assert.Equal(t, 1, f.Header.Len())
}

func TestParseUnlabeledContentBecomesUnknown(t *testing.T) {
	f := Parse("test.sng", "", "#Title=X\n---\nEinfach Text\nOhne Marker\n")

	require.Len(t, f.Blocks, 1)
	assert.Equal(t, "Unknown", f.Blocks[0].Name())
	assert.True(t, f.Modified())
	assert.Contains(t, f.Header.Get("Editor"), "songqs")
}

func TestParseSkipsEmptySlides(t *testing.T) {
	f := Parse("test.sng", "", "#Title=X\n---\nVerse 1\nText\n---\n---\nChorus\nText\n")

	require.Len(t, f.Blocks, 2)
	assert.True(t, f.Modified())
}

func TestParseCustomMarker(t *testing.T) {
	f := Parse("test.sng", "", "#Title=X\n---\n$$M=Spezial\nText\n")

	require.Len(t, f.Blocks, 1)
	assert.Equal(t, "$$M=Spezial", f.Blocks[0].Name())
	assert.Equal(t, "Spezial", f.Blocks[0].OrderName())
}

func TestParseFileEncodings(t *testing.T) {
	dir := t.TempDir()

	t.Run("utf8 with BOM", func(t *testing.T) {
		path := filepath.Join(dir, "bom.sng")
		require.NoError(t, os.WriteFile(path,
			append([]byte{0xEF, 0xBB, 0xBF}, []byte("#Title=Tür\n---\nVerse 1\nText\n")...), 0o644))

		f, err := ParseFile(path, "")
		require.NoError(t, err)
		assert.Equal(t, "Tür", f.Title())
		assert.Equal(t, EncodingUTF8, f.Encoding)
	})

	t.Run("latin1 fallback", func(t *testing.T) {
		path := filepath.Join(dir, "latin1.sng")
		// "Tür" in ISO-8859-1, invalid as UTF-8.
		require.NoError(t, os.WriteFile(path,
			[]byte("#Title=T\xfcr\n---\nVerse 1\nText\n"), 0o644))

		f, err := ParseFile(path, "")
		require.NoError(t, err)
		assert.Equal(t, "Tür", f.Title())
		assert.Equal(t, EncodingLatin1, f.Encoding)
	})
}

func TestID(t *testing.T) {
	f := Parse("test.sng", "", "#Title=X\n#id=123\n")
	assert.Equal(t, 123, f.ID())

	legacy := Parse("test.sng", "", "#Title=X\n#ID=77\n")
	assert.Equal(t, 77, legacy.ID())

	none := Parse("test.sng", "", "#Title=X\n")
	assert.Equal(t, -1, none.ID())

	legacy.SetID(99)
	assert.Equal(t, 99, legacy.ID())
	assert.False(t, legacy.Header.Has("ID"))
	assert.Equal(t, "99", legacy.Header.Get("id"))
}

func TestIsPsalm(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   bool
	}{
		{"709 Psalm 22.sng", "EG", true},
		{"701 Psalm 1.sng", "EG", true},
		{"700 Lied.sng", "EG", false},
		{"759 Lied.sng", "EG", false},
		{"709 Psalm.sng", "", false},
		{"901 Psalm.sng", "Wwdlp", true},
		{"Psalm ohne Nummer.sng", "EG", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := Parse(tc.name, tc.prefix, "#Title=X\n")
			assert.Equal(t, tc.want, f.IsPsalm())
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	f := Parse("test.sng", "", sampleSong)
	assert.Equal(t, sampleSong, f.Render())

	again := Parse("test.sng", "", f.Render())
	if diff := cmp.Diff(f.Header.Keys(), again.Header.Keys()); diff != "" {
		t.Errorf("header keys changed (-want +got):\n%s", diff)
	}
	require.Len(t, again.Blocks, len(f.Blocks))
}

func TestWriteKeepsEncoding(t *testing.T) {
	dir := t.TempDir()

	f := Parse("out.sng", "", "#Title=Tür\n---\nVerse 1\nText\n")
	f.Dir = dir
	require.NoError(t, f.Write())

	raw, err := os.ReadFile(filepath.Join(dir, "out.sng"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])

	f.Encoding = EncodingLatin1
	f.Name = "latin.sng"
	require.NoError(t, f.Write())

	raw, err = os.ReadFile(filepath.Join(dir, "latin.sng"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "T\xfcr")
}
