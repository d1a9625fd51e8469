package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNames(t *testing.T) {
	t.Run("parses labeled names with header", func(t *testing.T) {
		csv := "id,name\nluna,Luna\nmilo,Milo\n,Cleo\n"

		result, err := ParseNames(strings.NewReader(csv), DefaultCSVConfig())
		require.NoError(t, err)

		require.Len(t, result.Names, 3)
		assert.Equal(t, Name{ID: "luna", Label: "Luna"}, result.Names[0])
		assert.Equal(t, Name{ID: "milo", Label: "Milo"}, result.Names[1])
		// Missing ID falls back to a slug of the label
		assert.Equal(t, Name{ID: "cleo", Label: "Cleo"}, result.Names[2])
		assert.Equal(t, 3, result.SuccessfulRows)
		assert.Empty(t, result.ParseErrors)
	})

	t.Run("headerless single column", func(t *testing.T) {
		config := DefaultCSVConfig()
		config.HasHeader = false

		result, err := ParseNames(strings.NewReader("Luna\nMilo\n"), config)
		require.NoError(t, err)
		require.Len(t, result.Names, 2)
		assert.Equal(t, "luna", result.Names[0].ID)
	})

	t.Run("duplicate IDs are reported and skipped", func(t *testing.T) {
		csv := "id,name\nluna,Luna\nluna,Other Luna\n"

		result, err := ParseNames(strings.NewReader(csv), DefaultCSVConfig())
		require.NoError(t, err)

		assert.Len(t, result.Names, 1)
		require.Len(t, result.ParseErrors, 1)
		assert.Contains(t, result.ParseErrors[0].Error(), "duplicate")
	})

	t.Run("empty labels are reported and skipped", func(t *testing.T) {
		csv := "id,name\nluna,Luna\nx,   \n"

		result, err := ParseNames(strings.NewReader(csv), DefaultCSVConfig())
		require.NoError(t, err)
		assert.Len(t, result.Names, 1)
		assert.Len(t, result.ParseErrors, 1)
	})

	t.Run("missing label column fails", func(t *testing.T) {
		_, err := ParseNames(strings.NewReader("foo,bar\n1,2\n"), DefaultCSVConfig())
		assert.ErrorIs(t, err, ErrCSVParsing)
	})

	t.Run("empty file fails", func(t *testing.T) {
		_, err := ParseNames(strings.NewReader(""), DefaultCSVConfig())
		assert.ErrorIs(t, err, ErrCSVParsing)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		config := DefaultCSVConfig()
		config.Delimiter = ";"

		result, err := ParseNames(strings.NewReader("id;name\nluna;Luna\n"), config)
		require.NoError(t, err)
		require.Len(t, result.Names, 1)
	})
}

func TestNewName(t *testing.T) {
	t.Run("valid name", func(t *testing.T) {
		name, err := NewName("luna", "Luna")
		require.NoError(t, err)
		assert.Equal(t, "luna", name.ID)
	})

	t.Run("empty label rejected", func(t *testing.T) {
		_, err := NewName("x", "   ")
		assert.ErrorIs(t, err, ErrRequiredField)
	})

	t.Run("ID derived from label", func(t *testing.T) {
		name, err := NewName("", "Captain Whiskers III")
		require.NoError(t, err)
		assert.Equal(t, "captain-whiskers-iii", name.ID)
	})
}

func TestWinRate(t *testing.T) {
	assert.Equal(t, 0.0, Name{}.WinRate())
	assert.Equal(t, 0.5, Name{Wins: 2, Losses: 2}.WinRate())
	assert.InDelta(t, 1.0/3.0, Name{Wins: 1, Losses: 1, Ties: 1}.WinRate(), 0.0001)
	// Skips raise Matches without touching the win rate
	assert.Equal(t, 1.0, Name{Matches: 5, Wins: 2}.WinRate())
}
