package services

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/matchasong/PictureShiritori/models"
	"github.com/matchasong/PictureShiritori/storage"

	"go.uber.org/zap"
)

const (
	MinLimitHours     = 1
	MaxLimitHours     = 48
	DefaultLimitHours = 1
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GameService owns game creation, the open/closed state and expiry.
type GameService struct {
	repo   Repository
	seq    Sequencer
	logger *zap.Logger
	now    func() time.Time
	letter func() string
}

type GameOption func(*GameService)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) GameOption {
	return func(s *GameService) { s.now = now }
}

// WithLetterPicker replaces the uniform starting-letter draw.
func WithLetterPicker(pick func() string) GameOption {
	return func(s *GameService) { s.letter = pick }
}

func NewGameService(repo Repository, seq Sequencer, logger *zap.Logger, opts ...GameOption) *GameService {
	s := &GameService{
		repo:   repo,
		seq:    seq,
		logger: logger,
		now:    time.Now,
		letter: randomLetter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomLetter() string {
	i := rand.Intn(len(alphabet))
	return alphabet[i : i+1]
}

type StartGameRequest struct {
	Text      string `form:"text"`
	UserID    string `form:"user_id"`
	ChannelID string `form:"channel_id"`
}

// ParseDuration reads a game length in hours. Blank input means the default.
func ParseDuration(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultLimitHours, nil
	}
	hours, err := strconv.Atoi(text)
	if err != nil {
		return 0, &DurationError{Input: text, NotNumber: true}
	}
	if hours < MinLimitHours || hours > MaxLimitHours {
		return 0, &DurationError{Input: text}
	}
	return hours, nil
}

// CreateGame opens a new game lasting limitHours with a random starting letter.
func (s *GameService) CreateGame(ctx context.Context, limitHours int) (*models.Game, error) {
	if limitHours < MinLimitHours || limitHours > MaxLimitHours {
		return nil, &DurationError{Input: strconv.Itoa(limitHours)}
	}

	if _, err := s.CurrentGame(ctx); err == nil {
		return nil, ErrGameAlreadyOpen
	} else if !errors.Is(err, ErrNoGameOpen) {
		return nil, err
	}

	maxID, err := s.repo.MaxGameID(ctx)
	if err != nil {
		return nil, storageErr("max game id", err)
	}
	gameID := maxID + 1

	claimed, err := s.seq.ClaimActiveGame(ctx, gameID)
	if err != nil {
		return nil, storageErr("claim active game", err)
	}
	if !claimed {
		return nil, ErrGameAlreadyOpen
	}

	now := s.now()
	letter := s.letter()
	game := &models.Game{
		ID:             gameID,
		StartingLetter: letter,
		OpensAt:        now,
		ExpiresAt:      now.Add(time.Duration(limitHours) * time.Hour),
	}
	seed := models.NewSeedMove(gameID, letter, now)

	if err := s.repo.CreateGame(ctx, game, &seed); err != nil {
		if releaseErr := s.seq.ReleaseActiveGame(ctx, gameID); releaseErr != nil {
			s.logger.Warn("failed to release active game slot", zap.Uint("game_id", gameID), zap.Error(releaseErr))
		}
		return nil, storageErr("create game", err)
	}

	s.logger.Info("game created",
		zap.Uint("game_id", game.ID),
		zap.String("starting_letter", game.StartingLetter),
		zap.Time("expires_at", game.ExpiresAt),
	)
	return game, nil
}

// CurrentGame returns the open game, preferring the active slot and falling
// back to the games table when the slot is empty or stale.
func (s *GameService) CurrentGame(ctx context.Context) (*models.Game, error) {
	id, ok, err := s.seq.ActiveGameID(ctx)
	if err != nil {
		return nil, storageErr("active game", err)
	}
	if ok {
		game, err := s.repo.GetGame(ctx, id)
		switch {
		case err == nil && !game.IsClosed:
			return game, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return nil, storageErr("get game", err)
		}
		s.logger.Debug("clearing stale active game slot", zap.Uint("game_id", id))
		if err := s.seq.ReleaseActiveGame(ctx, id); err != nil {
			return nil, storageErr("release active game", err)
		}
	}

	games, err := s.repo.ListOpenGames(ctx)
	if err != nil {
		return nil, storageErr("list open games", err)
	}
	if len(games) == 0 {
		return nil, ErrNoGameOpen
	}

	game := games[0]
	if _, err := s.seq.ClaimActiveGame(ctx, game.ID); err != nil {
		s.logger.Warn("failed to restore active game slot", zap.Uint("game_id", game.ID), zap.Error(err))
	}
	return &game, nil
}

func (s *GameService) IsOpen(ctx context.Context) (bool, error) {
	_, err := s.CurrentGame(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNoGameOpen) {
		return false, nil
	}
	return false, err
}

// HasExpiredOpenGame returns the first open game whose deadline has passed,
// or nil when there is none.
func (s *GameService) HasExpiredOpenGame(ctx context.Context) (*models.Game, error) {
	games, err := s.repo.ListOpenGames(ctx)
	if err != nil {
		return nil, storageErr("list open games", err)
	}
	now := s.now()
	for i := range games {
		if games[i].Expired(now) {
			s.logger.Info("expired game found", zap.Uint("game_id", games[i].ID))
			return &games[i], nil
		}
	}
	return nil, nil
}

func (s *GameService) CloseGame(ctx context.Context, gameID uint) error {
	if err := s.repo.CloseGame(ctx, gameID); err != nil {
		return storageErr("close game", err)
	}
	if err := s.seq.ReleaseActiveGame(ctx, gameID); err != nil {
		s.logger.Warn("failed to release active game slot", zap.Uint("game_id", gameID), zap.Error(err))
	}
	s.logger.Info("game closed", zap.Uint("game_id", gameID))
	return nil
}

// GetGame returns any game by id.
func (s *GameService) GetGame(ctx context.Context, gameID uint) (*models.Game, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, storageErr("get game", err)
	}
	return game, nil
}
