package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matchasong/PictureShiritori/models"
	"github.com/matchasong/PictureShiritori/storage"

	"go.uber.org/zap"
)

const (
	DefaultMaxImageBytes       = 5_000_000
	DefaultChannelPollAttempts = 6
	DefaultChannelPollInterval = 10 * time.Second
)

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// SubmissionEvent is a file shared in chat.
type SubmissionEvent struct {
	FileID    string
	UserID    string
	ChannelID string
}

type SubmissionConfig struct {
	// Channel is the id of the game channel.
	Channel             string
	MaxImageBytes       int
	ChannelPollAttempts int
	ChannelPollInterval time.Duration
}

func (c SubmissionConfig) withDefaults() SubmissionConfig {
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
	if c.ChannelPollAttempts <= 0 {
		c.ChannelPollAttempts = DefaultChannelPollAttempts
	}
	if c.ChannelPollInterval <= 0 {
		c.ChannelPollInterval = DefaultChannelPollInterval
	}
	return c
}

// SubmissionService takes a shared file from chat through storage and
// classification to a judged move.
type SubmissionService struct {
	cfg        SubmissionConfig
	games      *GameService
	judge      *JudgeService
	repo       Repository
	files      FileSource
	images     ImageStore
	classifier Classifier
	notifier   Notifier
	ops        Notifier
	logger     *zap.Logger
	newKey     func() string
}

type SubmissionDeps struct {
	Games      *GameService
	Judge      *JudgeService
	Repo       Repository
	Files      FileSource
	Images     ImageStore
	Classifier Classifier
	Notifier   Notifier
	Ops        Notifier
	Logger     *zap.Logger
}

func NewSubmissionService(cfg SubmissionConfig, deps SubmissionDeps) *SubmissionService {
	return &SubmissionService{
		cfg:        cfg.withDefaults(),
		games:      deps.Games,
		judge:      deps.Judge,
		repo:       deps.Repo,
		files:      deps.Files,
		images:     deps.Images,
		classifier: deps.Classifier,
		notifier:   deps.Notifier,
		ops:        deps.Ops,
		logger:     deps.Logger,
		newKey:     func() string { return uuid.NewString() },
	}
}

// Process handles one shared file. Skipped submissions return one of
// ErrDuplicateSubmission, ErrNoGameOpen, ErrFileRejected or ErrOtherChannel.
func (s *SubmissionService) Process(ctx context.Context, ev SubmissionEvent) (*Judgement, error) {
	logger := s.logger.With(zap.String("file_id", ev.FileID))

	if _, err := s.repo.GetSubmission(ctx, ev.FileID); err == nil {
		logger.Info("submission already processed")
		return nil, ErrDuplicateSubmission
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, s.fail(ctx, "lookup submission", storageErr("get submission", err))
	}

	game, err := s.games.CurrentGame(ctx)
	if errors.Is(err, ErrNoGameOpen) {
		logger.Info("no game in progress")
		s.notify(ctx, MessageNoGameOpen)
		return nil, err
	}
	if err != nil {
		return nil, s.fail(ctx, "current game", err)
	}

	s.notify(ctx, MessageJudging)
	s.notify(ctx, MessageJudgingNote)

	info, err := s.files.FileInfo(ctx, ev.FileID)
	if err != nil {
		return nil, s.fail(ctx, "file info", err)
	}
	ext, err := s.checkFile(ctx, info)
	if err != nil {
		logger.Info("file rejected", zap.String("name", info.Name), zap.Error(err))
		return nil, err
	}

	ok, err := s.inGameChannel(ctx, ev.FileID, info)
	if err != nil {
		return nil, s.fail(ctx, "channel check", err)
	}
	if !ok {
		logger.Info("file shared outside the game channel")
		s.notify(ctx, MessageOtherChannel)
		return nil, ErrOtherChannel
	}

	var buf bytes.Buffer
	if err := s.files.Download(ctx, info.DownloadURL, &buf); err != nil {
		return nil, s.fail(ctx, "download", err)
	}

	key := s.newKey() + ext
	if err := s.images.Put(ctx, key, bytes.NewReader(buf.Bytes()), imageContentTypes[ext]); err != nil {
		return nil, s.fail(ctx, "store image", err)
	}

	poster := info.User
	if poster == "" {
		poster = ev.UserID
	}
	sub := &models.Submission{
		ExternalID: ev.FileID,
		Poster:     poster,
		ImageKey:   key,
		Channel:    ev.ChannelID,
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			logger.Info("submission recorded concurrently")
			return nil, ErrDuplicateSubmission
		}
		return nil, s.fail(ctx, "record submission", storageErr("create submission", err))
	}

	candidates, err := s.classifier.Classify(ctx, key)
	if err != nil {
		return nil, s.fail(ctx, "classify", err)
	}

	judgement, err := s.judge.JudgeSubmission(ctx, game.ID, sub.PosterOrDefault(), candidates)
	if err != nil {
		return nil, s.fail(ctx, "judge", err)
	}
	return judgement, nil
}

// checkFile validates size, type and download link, notifying on rejection.
// It returns the lower-cased extension.
func (s *SubmissionService) checkFile(ctx context.Context, info *FileInfo) (string, error) {
	if info.Size > s.cfg.MaxImageBytes {
		s.notify(ctx, MessageFileTooLarge(info.Name))
		return "", fmt.Errorf("%w: %d bytes", ErrFileRejected, info.Size)
	}
	ext := strings.ToLower(path.Ext(info.Name))
	if _, ok := imageContentTypes[ext]; !ok {
		s.notify(ctx, MessageUnsupportedFile(info.Name))
		return "", fmt.Errorf("%w: extension %q", ErrFileRejected, ext)
	}
	if info.DownloadURL == "" {
		s.notify(ctx, MessageUndownloadable(info.Name))
		return "", fmt.Errorf("%w: no download url", ErrFileRejected)
	}
	return ext, nil
}

// inGameChannel polls the file until it shows up in the game channel. Shares
// take a while to propagate, so an absent channel is retried.
func (s *SubmissionService) inGameChannel(ctx context.Context, fileID string, info *FileInfo) (bool, error) {
	if s.cfg.Channel == "" {
		return true, nil
	}
	for attempt := 1; ; attempt++ {
		if slices.Contains(info.Channels, s.cfg.Channel) {
			return true, nil
		}
		if attempt >= s.cfg.ChannelPollAttempts {
			return false, nil
		}
		s.logger.Debug("file not yet visible in game channel", zap.String("file_id", fileID), zap.Int("attempt", attempt))

		timer := time.NewTimer(s.cfg.ChannelPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}

		next, err := s.files.FileInfo(ctx, fileID)
		if err != nil {
			return false, err
		}
		info = next
	}
}

func (s *SubmissionService) notify(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Warn("failed to send notification", zap.Error(err))
	}
}

func (s *SubmissionService) fail(ctx context.Context, op string, err error) error {
	reportFailure(ctx, s.notifier, s.ops, s.logger, op, err)
	return fmt.Errorf("%s: %w", op, err)
}
