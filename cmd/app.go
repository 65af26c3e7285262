package cmd

import (
	"context"
	"fmt"

	"github.com/matchasong/PictureShiritori/config"
	"github.com/matchasong/PictureShiritori/images"
	"github.com/matchasong/PictureShiritori/labels"
	"github.com/matchasong/PictureShiritori/notify"
	"github.com/matchasong/PictureShiritori/services"
	"github.com/matchasong/PictureShiritori/slackapi"
	"github.com/matchasong/PictureShiritori/storage"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// app holds every service of one process.
type app struct {
	games       *services.GameService
	results     *services.ResultService
	starter     *services.StartService
	finisher    *services.FinishService
	submissions *services.SubmissionService
	hub         *services.Hub
	closers     []func() error
}

func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// buildApp connects storage, Slack and AWS. spectators adds the websocket hub
// to the notification targets.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, spectators bool) (*app, error) {
	a := &app{}

	repo, seq, err := openStorage(ctx, cfg, logger, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	web := slack.New(cfg.SlackAPIToken)
	bot := slack.New(cfg.SlackBotAPIToken)

	a.games = services.NewGameService(repo, seq, logger.Named("games"))
	a.results = services.NewResultService(repo, slackapi.NewProfiles(web), logger.Named("results"))
	a.hub = services.NewHub(services.Snapshot(a.games, a.results), logger.Named("hub"))

	targets := []notify.Target{}
	if cfg.PostChannel != "" {
		targets = append(targets, notify.NewSlackNotifier(bot, cfg.PostChannel))
	} else {
		logger.Warn("POST_CHANNEL is not set, chat notifications are disabled")
	}
	if spectators {
		targets = append(targets, a.hub)
	}
	notifier := notify.NewFanout(logger.Named("notify"), targets...)

	var ops services.Notifier
	if cfg.OpsChannel != "" {
		ops = notify.NewSlackNotifier(bot, cfg.OpsChannel)
	}

	awsCfg, err := config.InitAWS(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	judge := services.NewJudgeService(repo, seq, notifier, logger.Named("judge"))
	a.starter = services.NewStartService(a.games, notifier, ops, logger.Named("start")).WithDefaultHours(cfg.DefaultLimitHours)
	a.finisher = services.NewFinishService(a.games, a.results, notifier, ops, logger.Named("finish"))
	a.submissions = services.NewSubmissionService(services.SubmissionConfig{
		Channel:             cfg.PostChannelID,
		MaxImageBytes:       cfg.MaxImageBytes,
		ChannelPollAttempts: cfg.ChannelPollAttempts,
		ChannelPollInterval: cfg.ChannelPollInterval,
	}, services.SubmissionDeps{
		Games:      a.games,
		Judge:      judge,
		Repo:       repo,
		Files:      slackapi.NewFiles(web),
		Images:     images.NewS3Store(s3.NewFromConfig(awsCfg), cfg.PutBucket, logger.Named("images")),
		Classifier: labels.NewRekognitionClassifier(rekognition.NewFromConfig(awsCfg), cfg.PutBucket, cfg.MaxLabels, logger.Named("labels")),
		Notifier:   notifier,
		Ops:        ops,
		Logger:     logger.Named("submissions"),
	})

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger, a *app) (services.Repository, services.Sequencer, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage, state is lost on exit")
		mem := storage.NewMemoryStore()
		return mem, mem, nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	store := storage.NewGormStore(db)
	if err := store.AutoMigrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	rdb := config.InitRedis(cfg)
	a.closers = append(a.closers, rdb.Close)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return store, storage.NewRedisSequencer(rdb, cfg.KeyTTL), nil
}
