package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/matchasong/PictureShiritori/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tables interface {
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

func openSQLite(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "shiritori.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store := NewGormStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func eachStore(t *testing.T, fn func(t *testing.T, s tables)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("gorm", func(t *testing.T) { fn(t, openSQLite(t)) })
}

func newGame(id uint, letter string, opens time.Time) (*models.Game, *models.Move) {
	game := &models.Game{
		ID:             id,
		StartingLetter: letter,
		OpensAt:        opens,
		ExpiresAt:      opens.Add(time.Hour),
	}
	seed := models.NewSeedMove(id, letter, opens)
	return game, &seed
}

func TestGamesLifecycle(t *testing.T) {
	eachStore(t, func(t *testing.T, s tables) {
		ctx := context.Background()
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		maxID, err := s.MaxGameID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint(0), maxID)

		game, seed := newGame(1, "K", now)
		require.NoError(t, s.CreateGame(ctx, game, seed))

		maxID, err = s.MaxGameID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint(1), maxID)

		got, err := s.GetGame(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "K", got.StartingLetter)
		assert.False(t, got.IsClosed)
		assert.WithinDuration(t, now.Add(time.Hour), got.ExpiresAt, time.Second)

		open, err := s.ListOpenGames(ctx)
		require.NoError(t, err)
		require.Len(t, open, 1)

		moves, err := s.ListMoves(ctx, 1)
		require.NoError(t, err)
		require.Len(t, moves, 1)
		assert.Equal(t, models.SeedMoveID, moves[0].ID)
		assert.Equal(t, "K", moves[0].NextChar)
		assert.True(t, moves[0].IsValid)
		assert.Empty(t, moves[0].Poster)

		require.NoError(t, s.CloseGame(ctx, 1))
		open, err = s.ListOpenGames(ctx)
		require.NoError(t, err)
		assert.Empty(t, open)

		assert.ErrorIs(t, s.CloseGame(ctx, 42), ErrNotFound)
		_, err = s.GetGame(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMovesAreScopedAndOrdered(t *testing.T) {
	eachStore(t, func(t *testing.T, s tables) {
		ctx := context.Background()
		now := time.Now().UTC()

		g1, seed1 := newGame(1, "A", now)
		require.NoError(t, s.CreateGame(ctx, g1, seed1))
		g2, seed2 := newGame(2, "B", now)
		require.NoError(t, s.CreateGame(ctx, g2, seed2))

		labels, err := models.EncodeLabels([]models.Label{models.NewLabel("Apple", 97.5)})
		require.NoError(t, err)
		for _, id := range []uint{3, 2} {
			require.NoError(t, s.CreateMove(ctx, &models.Move{
				GameID:   1,
				ID:       id,
				Word:     "Apple",
				IsValid:  false,
				Poster:   "U1",
				PrevID:   1,
				PostedAt: now,
				Labels:   labels,
			}))
		}

		moves, err := s.ListMoves(ctx, 1)
		require.NoError(t, err)
		require.Len(t, moves, 3)
		assert.Equal(t, []uint{1, 2, 3}, []uint{moves[0].ID, moves[1].ID, moves[2].ID})

		decoded, err := moves[2].DecodedLabels()
		require.NoError(t, err)
		require.Len(t, decoded, 1)
		assert.Equal(t, "Apple", decoded[0].Name)

		other, err := s.ListMoves(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, other, 1)

		err = s.CreateMove(ctx, &models.Move{GameID: 1, ID: 2, PostedAt: now})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestSubmissionsRecordedOnce(t *testing.T) {
	eachStore(t, func(t *testing.T, s tables) {
		ctx := context.Background()

		_, err := s.GetSubmission(ctx, "F1")
		assert.ErrorIs(t, err, ErrNotFound)

		sub := &models.Submission{ExternalID: "F1", Poster: "U1", ImageKey: "a.png"}
		require.NoError(t, s.CreateSubmission(ctx, sub))
		err = s.CreateSubmission(ctx, &models.Submission{ExternalID: "F1", Poster: "U2", ImageKey: "b.png"})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		got, err := s.GetSubmission(ctx, "F1")
		require.NoError(t, err)
		assert.Equal(t, "U1", got.Poster)
		assert.Equal(t, "a.png", got.ImageKey)
	})
}
