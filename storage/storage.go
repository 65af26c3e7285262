// Package storage provides the persistence adapters for games, moves and
// submissions, plus the active-game slot and per-game move counters.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("record already exists")
)

// DefaultKeyTTL keeps redis keys around slightly longer than the longest game.
const DefaultKeyTTL = 180000 * time.Second

const keyPrefix = "shiritori:"

func activeGameKey() string {
	return keyPrefix + "active_game"
}

func moveSeqKey(gameID uint) string {
	return fmt.Sprintf("%sgame:%d:move_seq", keyPrefix, gameID)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicated key")
}
