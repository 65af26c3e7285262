package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstAndLastChar(t *testing.T) {
	tests := []struct {
		word, first, last string
	}{
		{"Kite", "K", "E"},
		{"cat", "c", "T"},
		{"", "", ""},
		{"é", "é", "É"},
		{"Straße", "S", "E"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.first, FirstChar(tt.word))
			assert.Equal(t, tt.last, LastCharUpper(tt.word))
		})
	}
}

func TestGameExpiry(t *testing.T) {
	opens := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	g := &Game{OpensAt: opens, ExpiresAt: opens.Add(3 * time.Hour)}

	assert.False(t, g.Expired(opens.Add(time.Hour)))
	assert.False(t, g.Expired(g.ExpiresAt))
	assert.True(t, g.Expired(g.ExpiresAt.Add(time.Second)))
	assert.Equal(t, 3, g.LimitHours())
}

func TestSeedMove(t *testing.T) {
	at := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	seed := NewSeedMove(7, "k", at)

	assert.True(t, seed.IsSeed())
	assert.False(t, seed.Attributed())
	assert.Equal(t, "K", seed.NextChar)
	assert.Equal(t, uint(7), seed.GameID)
	assert.Equal(t, SeedMoveID, seed.ID)
}

func TestNormalizeConfidence(t *testing.T) {
	assert.True(t, NormalizeConfidence(decimal.NewFromInt(-3)).Equal(decimal.Zero))
	assert.True(t, NormalizeConfidence(decimal.NewFromInt(140)).Equal(decimal.NewFromInt(100)))
	assert.True(t, NormalizeConfidence(decimal.RequireFromString("87.5")).Equal(decimal.RequireFromString("87.5")))
}

func TestEncodeLabels(t *testing.T) {
	data, err := EncodeLabels(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	data, err = EncodeLabels([]Label{NewLabel("Kite", 97.25)})
	require.NoError(t, err)

	m := Move{Labels: data}
	got, err := m.DecodedLabels()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kite", got[0].Name)
	assert.True(t, got[0].Confidence.Equal(decimal.RequireFromString("97.25")))
}

func TestPosterOrDefault(t *testing.T) {
	assert.Equal(t, DefaultPoster, (&Submission{}).PosterOrDefault())
	assert.Equal(t, "U1", (&Submission{Poster: "U1"}).PosterOrDefault())
}
