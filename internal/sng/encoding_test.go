package sng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// "ä" read as ISO-8859-1 and re-encoded turns into these two runes.
const brokenAe = "Ã¤"

func TestRepairMojibake(t *testing.T) {
	t.Run("clean text untouched", func(t *testing.T) {
		ok, text := RepairMojibake("Gesegnet bist du", true)
		assert.True(t, ok)
		assert.Equal(t, "Gesegnet bist du", text)
	})

	t.Run("detects without fixing", func(t *testing.T) {
		ok, text := RepairMojibake(brokenAe+"ndern", false)
		assert.False(t, ok)
		assert.Equal(t, brokenAe+"ndern", text)
	})

	t.Run("repairs all occurrences", func(t *testing.T) {
		ok, text := RepairMojibake(brokenAe+"ndern und "+brokenAe+"hnlich", true)
		assert.True(t, ok)
		assert.Equal(t, "ändern und ähnlich", text)
	})

	t.Run("only start anchored detection", func(t *testing.T) {
		// Suspicious sequence in the middle is not flagged.
		ok, _ := RepairMojibake("und "+brokenAe+"ndern", false)
		assert.True(t, ok)
	})
}

func TestValidateEncoding(t *testing.T) {
	f := Parse("test.sng", "",
		"#Title="+brokenAe+"ndern\n---\nVerse 1\n"+brokenAe+"hnlich\n")

	assert.False(t, f.ValidateEncoding(false))

	assert.True(t, f.ValidateEncoding(true))
	assert.Equal(t, "ändern", f.Title())
	assert.Equal(t, "ähnlich", f.Blocks[0].Slides[0][0])
	assert.True(t, f.Modified())
}
