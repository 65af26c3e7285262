package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newFinisher(t *testing.T, f *fixture, profiles ProfileLookup) *FinishService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewFinishService(f.games, NewResultService(f.store, profiles, logger), f.notes, f.ops, logger)
}

func TestFinishWithoutExpiredGameIsNoop(t *testing.T) {
	f := newFixture(t, "K")
	finisher := newFinisher(t, f, nil)
	ctx := context.Background()

	res, err := finisher.Finish(ctx)
	require.NoError(t, err)
	assert.Nil(t, res)

	f.openGame(t, 1)
	res, err = finisher.Finish(ctx)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, f.notes.Texts())

	open, err := f.games.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestFinishAnnouncesChainAndWinner(t *testing.T) {
	f := newFixture(t, "K")
	ctx := context.Background()
	game := f.openGame(t, 1)
	for _, c := range [][]any{{"Kite", 98.0}, {"Elephant", 80.0}} {
		_, err := f.judge.JudgeSubmission(ctx, game.ID, "U1", labels(c...))
		require.NoError(t, err)
	}
	f.notes.texts = nil

	f.clock.Advance(time.Hour + time.Minute)
	finisher := newFinisher(t, f, &fakeProfiles{names: map[string]string{"U1": "kite-fan"}})

	res, err := finisher.Finish(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"Kite", "Elephant"}, res.Chain)
	assert.Equal(t, []string{
		MessageChain([]string{"Kite", "Elephant"}),
		MessageWinner("kite-fan"),
		MessageFarewell,
	}, f.notes.Texts())

	closed, err := f.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)

	again, err := finisher.Finish(ctx)
	require.NoError(t, err)
	assert.Nil(t, again, "a closed game is not finished twice")
	assert.Len(t, f.notes.Texts(), 3)

	next, err := f.games.CreateGame(ctx, 1)
	require.NoError(t, err, "a new game can start once the last one is closed")
	assert.Equal(t, game.ID+1, next.ID)
}

func TestFinishWithoutWinner(t *testing.T) {
	f := newFixture(t, "K")
	ctx := context.Background()
	game := f.openGame(t, 1)
	_, err := f.judge.JudgeSubmission(ctx, game.ID, "U1", labels("Cat", 90.0))
	require.NoError(t, err)
	f.notes.texts = nil

	f.clock.Advance(2 * time.Hour)
	res, err := newFinisher(t, f, nil).Finish(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.HasWinner)
	assert.Equal(t, []string{MessageNobodyWon}, f.notes.Texts())
}

func TestFinishReportsStorageFailures(t *testing.T) {
	f := newFixture(t, "K")
	game := f.openGame(t, 1)
	f.clock.Advance(2 * time.Hour)

	logger := zaptest.NewLogger(t)
	broken := &failingRepo{Repository: f.store, err: assert.AnError, failListMoves: true}
	finisher := NewFinishService(f.games, NewResultService(broken, nil, logger), f.notes, f.ops, logger)

	_, err := finisher.Finish(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, f.ops.Texts(), 1)

	still, err := f.games.GetGame(context.Background(), game.ID)
	require.NoError(t, err)
	assert.False(t, still.IsClosed, "a game is only closed after its result is known")
}

func TestFinishMessages(t *testing.T) {
	assert.Equal(t, []string{MessageNobodyWon}, FinishMessages(&Result{}))
	assert.Equal(t, "This round's shiritori was Kite->Elephant!", FinishMessages(&Result{
		Chain: []string{"Kite", "Elephant"}, HasWinner: true, WinnerName: "x",
	})[0])
}
