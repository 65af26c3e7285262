package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matchasong/PictureShiritori/models"
	"github.com/matchasong/PictureShiritori/storage"

	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

// recorder is a Notifier that keeps every text it is given.
type recorder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recorder) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store  *storage.MemoryStore
	clock  *clock
	notes  *recorder
	ops    *recorder
	games  *GameService
	judge  *JudgeService
	result *ResultService
}

func newFixture(t *testing.T, letter string) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := &fixture{
		store: storage.NewMemoryStore(),
		clock: &clock{now: epoch},
		notes: &recorder{},
		ops:   &recorder{},
	}
	f.games = NewGameService(f.store, f.store, logger,
		WithClock(f.clock.Now),
		WithLetterPicker(func() string { return letter }),
	)
	f.judge = NewJudgeService(f.store, f.store, f.notes, logger)
	f.judge.now = f.clock.Now
	f.result = NewResultService(f.store, nil, logger)
	return f
}

func (f *fixture) openGame(t *testing.T, hours int) *models.Game {
	t.Helper()
	game, err := f.games.CreateGame(context.Background(), hours)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func labels(pairs ...any) []models.Label {
	out := make([]models.Label, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.NewLabel(pairs[i].(string), pairs[i+1].(float64)))
	}
	return out
}

func validMove(id uint, word, next, poster string) models.Move {
	return models.Move{ID: id, Word: word, NextChar: next, IsValid: true, Poster: poster}
}

func invalidMove(id uint, word, poster string) models.Move {
	return models.Move{ID: id, Word: word, Poster: poster}
}

// failingRepo fails every call it is configured to fail.
type failingRepo struct {
	Repository
	err           error
	failCreate    bool
	failListMoves bool
}

func (r *failingRepo) CreateGame(ctx context.Context, game *models.Game, seed *models.Move) error {
	if r.failCreate {
		return r.err
	}
	return r.Repository.CreateGame(ctx, game, seed)
}

func (r *failingRepo) ListMoves(ctx context.Context, gameID uint) ([]models.Move, error) {
	if r.failListMoves {
		return nil, r.err
	}
	return r.Repository.ListMoves(ctx, gameID)
}
