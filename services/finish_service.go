package services

import (
	"context"

	"go.uber.org/zap"
)

// FinishService closes the expired game and announces its result.
type FinishService struct {
	games    *GameService
	results  *ResultService
	notifier Notifier
	ops      Notifier
	logger   *zap.Logger
}

func NewFinishService(games *GameService, results *ResultService, notifier, ops Notifier, logger *zap.Logger) *FinishService {
	return &FinishService{
		games:    games,
		results:  results,
		notifier: notifier,
		ops:      ops,
		logger:   logger,
	}
}

// Finish closes the first expired open game. It returns nil, nil when no game
// has expired.
func (s *FinishService) Finish(ctx context.Context) (*Result, error) {
	game, err := s.games.HasExpiredOpenGame(ctx)
	if err != nil {
		reportFailure(ctx, nil, s.ops, s.logger, "finish", err)
		return nil, err
	}
	if game == nil {
		s.logger.Debug("no expired game to finish")
		return nil, nil
	}

	result, err := s.results.Summarize(ctx, game.ID)
	if err != nil {
		reportFailure(ctx, nil, s.ops, s.logger, "finish", err)
		return nil, err
	}
	if err := s.games.CloseGame(ctx, game.ID); err != nil {
		reportFailure(ctx, nil, s.ops, s.logger, "finish", err)
		return nil, err
	}

	for _, text := range FinishMessages(result) {
		if err := s.notifier.Notify(ctx, text); err != nil {
			s.logger.Warn("failed to send finish notification", zap.Uint("game_id", game.ID), zap.Error(err))
		}
	}

	s.logger.Info("game finished",
		zap.Uint("game_id", game.ID),
		zap.Int("chain_length", len(result.Chain)),
		zap.String("winner", result.Winner),
	)
	return result, nil
}

// FinishMessages lists the announcements for a result in posting order.
func FinishMessages(r *Result) []string {
	if !r.HasWinner {
		return []string{MessageNobodyWon}
	}
	return []string{
		MessageChain(r.Chain),
		MessageWinner(r.WinnerName),
		MessageFarewell,
	}
}
