package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/matchasong/PictureShiritori/models"

	"go.uber.org/zap"
)

// StartService handles a start-game request end to end, including the
// messages posted to the game channel.
type StartService struct {
	games        *GameService
	notifier     Notifier
	ops          Notifier
	logger       *zap.Logger
	defaultHours int
}

func NewStartService(games *GameService, notifier, ops Notifier, logger *zap.Logger) *StartService {
	return &StartService{
		games:        games,
		notifier:     notifier,
		ops:          ops,
		logger:       logger,
		defaultHours: DefaultLimitHours,
	}
}

// WithDefaultHours sets the game length used when the request leaves it blank.
func (s *StartService) WithDefaultHours(hours int) *StartService {
	if hours >= MinLimitHours && hours <= MaxLimitHours {
		s.defaultHours = hours
	}
	return s
}

// Start parses text as the game length in hours and opens a game.
func (s *StartService) Start(ctx context.Context, text string) (*models.Game, error) {
	if strings.TrimSpace(text) == "" {
		text = strconv.Itoa(s.defaultHours)
	}
	hours, err := ParseDuration(text)
	if err != nil {
		s.logger.Warn("rejected game duration", zap.String("text", text), zap.Error(err))
		s.notify(ctx, MessageInvalidDuration(err))
		return nil, err
	}

	game, err := s.games.CreateGame(ctx, hours)
	switch {
	case errors.Is(err, ErrGameAlreadyOpen):
		s.logger.Warn("game already open")
		s.notify(ctx, MessageGameAlreadyOpen)
		return nil, err
	case err != nil:
		reportFailure(ctx, s.notifier, s.ops, s.logger, "start", err)
		return nil, err
	}

	s.notify(ctx, MessageGameStarted(game.StartingLetter))
	s.notify(ctx, MessageDeadline(hours))
	return game, nil
}

func (s *StartService) notify(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Warn("failed to send notification", zap.Error(err))
	}
}

// reportFailure tells players that something broke and sends the detail to
// the operations channel. Both sends are best effort.
func reportFailure(ctx context.Context, user, ops Notifier, logger *zap.Logger, op string, err error) {
	logger.Error("operation failed", zap.String("op", op), zap.Error(err))
	if user != nil {
		if nerr := user.Notify(ctx, MessageInternalError); nerr != nil {
			logger.Warn("failed to send error notification", zap.Error(nerr))
		}
	}
	if ops != nil {
		if nerr := ops.Notify(ctx, MessageOperationsFailure(op, err)); nerr != nil {
			logger.Warn("failed to send operations notification", zap.Error(nerr))
		}
	}
}
