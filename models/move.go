package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/datatypes"
)

// SeedMoveID is the id of the synthetic move that carries a game's starting letter.
const SeedMoveID uint = 1

// Move is one judged submission in a game. The seed move has no poster.
type Move struct {
	GameID   uint           `json:"game_id" gorm:"primaryKey;autoIncrement:false"`
	ID       uint           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Word     string         `json:"word" gorm:"not null;default:''"`
	NextChar string         `json:"next_char" gorm:"size:1;not null;default:''"`
	IsValid  bool           `json:"is_valid" gorm:"not null"`
	Poster   string         `json:"poster,omitempty" gorm:"index"`
	PrevID   uint           `json:"prev_id" gorm:"not null;default:0"`
	PostedAt time.Time      `json:"posted_at" gorm:"not null"`
	Labels   datatypes.JSON `json:"labels,omitempty"`
}

// IsSeed reports whether the move is the synthetic first move of a game.
func (m *Move) IsSeed() bool {
	return m.ID == SeedMoveID && m.Poster == ""
}

// Attributed reports whether the move counts toward the chain and the winner tally.
func (m *Move) Attributed() bool {
	return m.IsValid && m.Poster != ""
}

// DecodedLabels returns the classifier response stored with the move.
func (m *Move) DecodedLabels() ([]Label, error) {
	if len(m.Labels) == 0 {
		return nil, nil
	}
	var labels []Label
	if err := json.Unmarshal(m.Labels, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// NewSeedMove builds the first move of a game.
func NewSeedMove(gameID uint, letter string, at time.Time) Move {
	return Move{
		GameID:   gameID,
		ID:       SeedMoveID,
		NextChar: strings.ToUpper(letter),
		IsValid:  true,
		PostedAt: at,
	}
}

// FirstChar returns the first character of word, or "" for an empty word.
func FirstChar(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// LastCharUpper returns the upper-cased last character of word.
func LastCharUpper(word string) string {
	r, size := utf8.DecodeLastRuneInString(word)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
