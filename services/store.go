package services

import (
	"context"
	"io"

	"github.com/matchasong/PictureShiritori/models"
)

// Repository is the tables side of the storage adapter.
type Repository interface {
	CreateGame(ctx context.Context, game *models.Game, seed *models.Move) error
	GetGame(ctx context.Context, id uint) (*models.Game, error)
	MaxGameID(ctx context.Context) (uint, error)
	ListOpenGames(ctx context.Context) ([]models.Game, error)
	CloseGame(ctx context.Context, id uint) error
	ListMoves(ctx context.Context, gameID uint) ([]models.Move, error)
	CreateMove(ctx context.Context, move *models.Move) error
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, externalID string) (*models.Submission, error)
}

// Sequencer holds the active game slot and per-game move counters.
type Sequencer interface {
	ActiveGameID(ctx context.Context) (uint, bool, error)
	ClaimActiveGame(ctx context.Context, gameID uint) (bool, error)
	ReleaseActiveGame(ctx context.Context, gameID uint) error
	NextMoveID(ctx context.Context, gameID uint, floor uint) (uint, error)
}

// Classifier returns ranked candidate words for a stored image.
type Classifier interface {
	Classify(ctx context.Context, imageKey string) ([]models.Label, error)
}

// Notifier delivers a text message to the game channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ProfileLookup resolves a submitter identity to a human-friendly name.
type ProfileLookup interface {
	DisplayName(ctx context.Context, identity string) (string, error)
}

// FileInfo describes an uploaded chat file.
type FileInfo struct {
	ID          string
	Name        string
	Size        int
	User        string
	DownloadURL string
	Channels    []string
}

// FileSource reads uploaded chat files.
type FileSource interface {
	FileInfo(ctx context.Context, fileID string) (*FileInfo, error)
	Download(ctx context.Context, downloadURL string, w io.Writer) error
}

// ImageStore persists submitted images under a key the classifier can read.
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}
