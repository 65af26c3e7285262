package models

import (
	"time"
)

// DefaultPoster is recorded when a submission arrives without a submitter identity.
const DefaultPoster = "default_user"

type Submission struct {
	ExternalID string    `json:"external_id" gorm:"primaryKey;size:64"`
	Poster     string    `json:"poster" gorm:"not null"`
	ImageKey   string    `json:"image_key" gorm:"not null"`
	Channel    string    `json:"channel"`
	CreatedAt  time.Time `json:"created_at"`
}

// PosterOrDefault returns the submitter, falling back to DefaultPoster.
func (s *Submission) PosterOrDefault() string {
	if s.Poster == "" {
		return DefaultPoster
	}
	return s.Poster
}
