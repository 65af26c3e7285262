package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchasong/PictureShiritori/models"

	"go.uber.org/zap"
)

type VerdictKind int

const (
	VerdictAccepted VerdictKind = iota
	VerdictDuplicate
	VerdictMismatch
	VerdictUnclassifiable
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictAccepted:
		return "accepted"
	case VerdictDuplicate:
		return "duplicate"
	case VerdictMismatch:
		return "mismatch"
	case VerdictUnclassifiable:
		return "unclassifiable"
	default:
		return fmt.Sprintf("verdict(%d)", int(k))
	}
}

// Verdict is the outcome of judging one submission against a game history.
type Verdict struct {
	Kind         VerdictKind
	Word         string
	NextChar     string
	RequiredChar string
	PrevID       uint
}

func (v Verdict) Valid() bool {
	return v.Kind == VerdictAccepted
}

// Message is the single notification text for the verdict.
func (v Verdict) Message() string {
	switch v.Kind {
	case VerdictAccepted:
		return MessageAccepted(v.Word, v.NextChar)
	case VerdictDuplicate:
		return MessageDuplicate(v.Word)
	case VerdictMismatch:
		return MessageMismatch(v.Word, v.RequiredChar)
	default:
		return MessageUnclassifiable(v.RequiredChar)
	}
}

// Evaluate decides a submission. history holds every move of the game in any
// order; candidates are in the classifier's ranked order.
func Evaluate(history []models.Move, candidates []models.Label) (Verdict, error) {
	head := latestValidMove(history)
	if head == nil {
		return Verdict{}, ErrNoValidMove
	}
	v := Verdict{
		RequiredChar: strings.ToUpper(head.NextChar),
		PrevID:       head.ID,
	}

	used := usedWords(history)
	for _, c := range candidates {
		if c.Name == "" || !strings.EqualFold(models.FirstChar(c.Name), v.RequiredChar) {
			continue
		}
		v.Word = c.Name
		if used[c.Name] {
			v.Kind = VerdictDuplicate
			return v, nil
		}
		v.Kind = VerdictAccepted
		v.NextChar = models.LastCharUpper(c.Name)
		return v, nil
	}

	v.Word = MostConfident(candidates)
	if v.Word == "" {
		v.Kind = VerdictUnclassifiable
	} else {
		v.Kind = VerdictMismatch
	}
	return v, nil
}

// MostConfident returns the label with the highest confidence. Ties keep the
// earliest label; no labels yields "".
func MostConfident(candidates []models.Label) string {
	best := -1
	for i, c := range candidates {
		if c.Name == "" {
			continue
		}
		if best < 0 || c.Confidence.GreaterThan(candidates[best].Confidence) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return candidates[best].Name
}

func latestValidMove(history []models.Move) *models.Move {
	var head *models.Move
	for i := range history {
		if !history[i].IsValid {
			continue
		}
		if head == nil || history[i].ID > head.ID {
			head = &history[i]
		}
	}
	return head
}

func usedWords(history []models.Move) map[string]bool {
	used := make(map[string]bool, len(history))
	for _, m := range history {
		if m.IsValid && m.Word != "" {
			used[m.Word] = true
		}
	}
	return used
}

func maxMoveID(history []models.Move) uint {
	var maxID uint
	for _, m := range history {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	return maxID
}

// JudgeService turns one classified submission into the next move of a game.
type JudgeService struct {
	repo     Repository
	seq      Sequencer
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewJudgeService(repo Repository, seq Sequencer, notifier Notifier, logger *zap.Logger) *JudgeService {
	return &JudgeService{
		repo:     repo,
		seq:      seq,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Judgement is a persisted move together with the verdict that produced it.
type Judgement struct {
	Move    models.Move
	Verdict Verdict
}

// JudgeSubmission evaluates candidates against the game's moves, stores the
// resulting move (valid or not) and emits one notification. Whether the game
// is still open is the caller's concern.
func (s *JudgeService) JudgeSubmission(ctx context.Context, gameID uint, poster string, candidates []models.Label) (*Judgement, error) {
	history, err := s.repo.ListMoves(ctx, gameID)
	if err != nil {
		return nil, storageErr("list moves", err)
	}

	verdict, err := Evaluate(history, candidates)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", gameID, err)
	}

	moveID, err := s.seq.NextMoveID(ctx, gameID, maxMoveID(history))
	if err != nil {
		return nil, storageErr("next move id", err)
	}

	labels, err := models.EncodeLabels(candidates)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}

	if poster == "" {
		poster = models.DefaultPoster
	}
	move := models.Move{
		GameID:   gameID,
		ID:       moveID,
		Word:     verdict.Word,
		NextChar: verdict.NextChar,
		IsValid:  verdict.Valid(),
		Poster:   poster,
		PrevID:   verdict.PrevID,
		PostedAt: s.now(),
		Labels:   labels,
	}
	if err := s.repo.CreateMove(ctx, &move); err != nil {
		return nil, storageErr("create move", err)
	}

	s.logger.Info("move judged",
		zap.Uint("game_id", gameID),
		zap.Uint("move_id", move.ID),
		zap.String("verdict", verdict.Kind.String()),
		zap.String("word", verdict.Word),
		zap.String("required", verdict.RequiredChar),
		zap.String("poster", poster),
	)

	if err := s.notifier.Notify(ctx, verdict.Message()); err != nil {
		s.logger.Warn("failed to send verdict notification", zap.Uint("game_id", gameID), zap.Error(err))
	}

	return &Judgement{Move: move, Verdict: verdict}, nil
}
