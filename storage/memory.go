package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/matchasong/PictureShiritori/models"
)

// MemoryStore is an in-process implementation of both the tables and the
// sequencer, used for local runs and tests.
type MemoryStore struct {
	mu          sync.Mutex
	games       map[uint]models.Game
	moves       map[uint]map[uint]models.Move
	submissions map[string]models.Submission
	activeGame  uint
	moveSeq     map[uint]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:       make(map[uint]models.Game),
		moves:       make(map[uint]map[uint]models.Move),
		submissions: make(map[string]models.Submission),
		moveSeq:     make(map[uint]uint),
	}
}

func (m *MemoryStore) CreateGame(ctx context.Context, game *models.Game, seed *models.Move) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[game.ID]; ok {
		return ErrAlreadyExists
	}
	m.games[game.ID] = *game
	if err := m.putMoveLocked(seed); err != nil {
		delete(m.games, game.ID)
		return err
	}
	return nil
}

func (m *MemoryStore) GetGame(ctx context.Context, id uint) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &game, nil
}

func (m *MemoryStore) MaxGameID(ctx context.Context) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID uint
	for id := range m.games {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (m *MemoryStore) ListOpenGames(ctx context.Context) ([]models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	games := []models.Game{}
	for _, game := range m.games {
		if !game.IsClosed {
			games = append(games, game)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (m *MemoryStore) CloseGame(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	game.IsClosed = true
	m.games[id] = game
	return nil
}

func (m *MemoryStore) ListMoves(ctx context.Context, gameID uint) ([]models.Move, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	moves := []models.Move{}
	for _, move := range m.moves[gameID] {
		moves = append(moves, move)
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i].ID < moves[j].ID })
	return moves, nil
}

func (m *MemoryStore) CreateMove(ctx context.Context, move *models.Move) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putMoveLocked(move)
}

func (m *MemoryStore) putMoveLocked(move *models.Move) error {
	byID, ok := m.moves[move.GameID]
	if !ok {
		byID = make(map[uint]models.Move)
		m.moves[move.GameID] = byID
	}
	if _, exists := byID[move.ID]; exists {
		return ErrAlreadyExists
	}
	byID[move.ID] = *move
	return nil
}

func (m *MemoryStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[sub.ExternalID]; ok {
		return ErrAlreadyExists
	}
	m.submissions[sub.ExternalID] = *sub
	return nil
}

func (m *MemoryStore) GetSubmission(ctx context.Context, externalID string) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.submissions[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sub, nil
}

func (m *MemoryStore) ActiveGameID(ctx context.Context) (uint, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeGame, m.activeGame != 0, nil
}

func (m *MemoryStore) ClaimActiveGame(ctx context.Context, gameID uint) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeGame != 0 {
		return false, nil
	}
	m.activeGame = gameID
	return true, nil
}

func (m *MemoryStore) ReleaseActiveGame(ctx context.Context, gameID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeGame == gameID {
		m.activeGame = 0
	}
	return nil
}

func (m *MemoryStore) NextMoveID(ctx context.Context, gameID uint, floor uint) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.moveSeq[gameID] + 1
	if next <= floor {
		next = floor + 1
	}
	m.moveSeq[gameID] = next
	return next, nil
}
