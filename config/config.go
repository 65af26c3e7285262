package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/caarlos0/env/v11"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	BindAddress string `env:"BIND_ADDRESS" envDefault:"localhost"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string `env:"DB_PORT" envDefault:"5432"`
	DBUser        string `env:"DB_USER" envDefault:"shiritori"`
	DBPassword    string `env:"DB_PASSWORD" envDefault:"shiritori"`
	DBName        string `env:"DB_NAME" envDefault:"shiritori"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"shiritori.db"`

	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	KeyTTL        time.Duration `env:"KEY_TTL" envDefault:"50h"`

	SlackAPIToken      string `env:"SLACK_API_TOKEN"`
	SlackBotAPIToken   string `env:"SLACK_BOT_API_TOKEN"`
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET"`
	PostChannel        string `env:"POST_CHANNEL"`
	PostChannelID      string `env:"POST_CHANNEL_ID"`
	OpsChannel         string `env:"OPS_CHANNEL"`

	AWSRegion string `env:"AWS_REGION" envDefault:"ap-northeast-1"`
	PutBucket string `env:"PUT_BUCKET"`

	MaxLabels           int           `env:"MAX_LABELS" envDefault:"10"`
	MaxImageBytes       int           `env:"MAX_IMAGE_BYTES" envDefault:"5000000"`
	DefaultLimitHours   int           `env:"DEFAULT_LIMIT_HOURS" envDefault:"1"`
	ChannelPollAttempts int           `env:"CHANNEL_POLL_ATTEMPTS" envDefault:"6"`
	ChannelPollInterval time.Duration `env:"CHANNEL_POLL_INTERVAL" envDefault:"10s"`
	FinishSweepInterval time.Duration `env:"FINISH_SWEEP_INTERVAL" envDefault:"1m"`
	SweepToken          string        `env:"SWEEP_TOKEN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if c.DefaultLimitHours < 1 || c.DefaultLimitHours > 48 {
		return fmt.Errorf("DEFAULT_LIMIT_HOURS must be between 1 and 48, got %d", c.DefaultLimitHours)
	}
	if c.FinishSweepInterval <= 0 {
		return fmt.Errorf("FINISH_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.BindAddress, c.Port)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StorageDriver {
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("storage driver %q has no database", cfg.StorageDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// InitLogger builds the process logger. "console" gives human-readable
// development output.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func InitAWS(ctx context.Context, cfg *Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}
