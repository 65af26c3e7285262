package services

import (
	"context"
	"sort"

	"github.com/matchasong/PictureShiritori/models"

	"go.uber.org/zap"
)

// Result is the outcome of a finished (or running) game.
type Result struct {
	GameID     uint     `json:"game_id"`
	Chain      []string `json:"chain"`
	Winner     string   `json:"winner,omitempty"`
	WinnerName string   `json:"winner_name,omitempty"`
	HasWinner  bool     `json:"has_winner"`
}

type ResultService struct {
	repo     Repository
	profiles ProfileLookup
	logger   *zap.Logger
}

func NewResultService(repo Repository, profiles ProfileLookup, logger *zap.Logger) *ResultService {
	return &ResultService{
		repo:     repo,
		profiles: profiles,
		logger:   logger,
	}
}

// ChainOf returns the attributed valid words of moves in ascending id order.
// The seed move has no poster and never appears.
func ChainOf(moves []models.Move) []string {
	attributed := attributedMoves(moves)
	chain := make([]string, 0, len(attributed))
	for _, m := range attributed {
		chain = append(chain, m.Word)
	}
	return chain
}

// WinnerOf tallies attributed valid moves scanning newest first. The highest
// tally wins; among equal tallies the poster met first in that scan wins.
func WinnerOf(moves []models.Move) (string, bool) {
	attributed := attributedMoves(moves)
	if len(attributed) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	var order []string
	for i := len(attributed) - 1; i >= 0; i-- {
		poster := attributed[i].Poster
		if _, seen := counts[poster]; !seen {
			order = append(order, poster)
		}
		counts[poster]++
	}

	winner, best := "", 0
	for _, poster := range order {
		if counts[poster] > best {
			winner, best = poster, counts[poster]
		}
	}
	return winner, true
}

func attributedMoves(moves []models.Move) []models.Move {
	out := make([]models.Move, 0, len(moves))
	for _, m := range moves {
		if m.Attributed() {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *ResultService) BuildChain(ctx context.Context, gameID uint) ([]string, error) {
	moves, err := s.repo.ListMoves(ctx, gameID)
	if err != nil {
		return nil, storageErr("list moves", err)
	}
	return ChainOf(moves), nil
}

func (s *ResultService) DetermineWinner(ctx context.Context, gameID uint) (string, bool, error) {
	moves, err := s.repo.ListMoves(ctx, gameID)
	if err != nil {
		return "", false, storageErr("list moves", err)
	}
	winner, ok := WinnerOf(moves)
	return winner, ok, nil
}

// Summarize reads the game's moves once and resolves the winner's display name.
func (s *ResultService) Summarize(ctx context.Context, gameID uint) (*Result, error) {
	moves, err := s.repo.ListMoves(ctx, gameID)
	if err != nil {
		return nil, storageErr("list moves", err)
	}

	result := &Result{GameID: gameID, Chain: ChainOf(moves)}
	winner, ok := WinnerOf(moves)
	if !ok {
		return result, nil
	}
	result.Winner = winner
	result.WinnerName = s.displayName(ctx, winner)
	result.HasWinner = true
	return result, nil
}

func (s *ResultService) displayName(ctx context.Context, identity string) string {
	if s.profiles == nil || identity == models.DefaultPoster {
		return identity
	}
	name, err := s.profiles.DisplayName(ctx, identity)
	if err != nil {
		s.logger.Warn("failed to resolve winner name", zap.String("poster", identity), zap.Error(err))
		return identity
	}
	if name == "" {
		return identity
	}
	return name
}

// GameState is a game as shown to spectators and the status endpoint.
type GameState struct {
	Open         bool         `json:"open"`
	Game         *models.Game `json:"game,omitempty"`
	Chain        []string     `json:"chain"`
	RequiredChar string       `json:"required_char,omitempty"`
	Moves        int          `json:"moves"`
}

// State describes game from its stored moves.
func (s *ResultService) State(ctx context.Context, game *models.Game) (*GameState, error) {
	moves, err := s.repo.ListMoves(ctx, game.ID)
	if err != nil {
		return nil, storageErr("list moves", err)
	}
	state := &GameState{
		Open:  !game.IsClosed,
		Game:  game,
		Chain: ChainOf(moves),
		Moves: len(moves),
	}
	if head := latestValidMove(moves); head != nil && state.Open {
		state.RequiredChar = head.NextChar
	}
	return state, nil
}
