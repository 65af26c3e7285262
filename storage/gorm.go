package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/matchasong/PictureShiritori/models"

	"gorm.io/gorm"
)

// GormStore keeps the games, moves and submissions tables in a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the three tables.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Game{},
		&models.Move{},
		&models.Submission{},
	)
}

// CreateGame inserts the game row and its seed move in one transaction.
func (s *GormStore) CreateGame(ctx context.Context, game *models.Game, seed *models.Move) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return translate("create game", err)
		}
		if err := tx.Create(seed).Error; err != nil {
			return translate("create seed move", err)
		}
		return nil
	})
}

func (s *GormStore) GetGame(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&game).Error; err != nil {
		return nil, translate("get game", err)
	}
	return &game, nil
}

func (s *GormStore) MaxGameID(ctx context.Context) (uint, error) {
	var maxID int64
	row := s.db.WithContext(ctx).Model(&models.Game{}).Select("COALESCE(MAX(id), 0)").Row()
	if err := row.Scan(&maxID); err != nil {
		return 0, fmt.Errorf("max game id: %w", err)
	}
	return uint(maxID), nil
}

// ListOpenGames returns every game not yet closed, oldest first.
func (s *GormStore) ListOpenGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := s.db.WithContext(ctx).
		Where("is_closed = ?", false).
		Order("id ASC").
		Find(&games).Error; err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	return games, nil
}

func (s *GormStore) CloseGame(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", id).
		Update("is_closed", true)
	if result.Error != nil {
		return fmt.Errorf("close game: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMoves returns every move of a game in ascending id order.
func (s *GormStore) ListMoves(ctx context.Context, gameID uint) ([]models.Move, error) {
	var moves []models.Move
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&moves).Error; err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	return moves, nil
}

func (s *GormStore) CreateMove(ctx context.Context, move *models.Move) error {
	if err := s.db.WithContext(ctx).Create(move).Error; err != nil {
		return translate("create move", err)
	}
	return nil
}

// CreateSubmission records a submission once; a second insert of the same
// external id returns ErrAlreadyExists.
func (s *GormStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Submission{}).
			Where("external_id = ?", sub.ExternalID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check submission: %w", err)
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		if err := tx.Create(sub).Error; err != nil {
			return translate("create submission", err)
		}
		return nil
	})
}

func (s *GormStore) GetSubmission(ctx context.Context, externalID string) (*models.Submission, error) {
	var sub models.Submission
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&sub).Error; err != nil {
		return nil, translate("get submission", err)
	}
	return &sub, nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrAlreadyExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
