package models

import (
	"time"
)

type Game struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	StartingLetter string    `json:"starting_letter" gorm:"size:1;not null"`
	OpensAt        time.Time `json:"opens_at" gorm:"not null"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"not null"`
	IsClosed       bool      `json:"is_closed" gorm:"not null;default:false;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Expired reports whether the game's deadline is strictly before now.
func (g *Game) Expired(now time.Time) bool {
	return g.ExpiresAt.Before(now)
}

// LimitHours is the configured duration of the game rounded to whole hours.
func (g *Game) LimitHours() int {
	return int(g.ExpiresAt.Sub(g.OpensAt).Round(time.Hour) / time.Hour)
}
