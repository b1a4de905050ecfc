package app

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"lexibridge/internal/aggregate"
	"lexibridge/internal/cli"
	"lexibridge/internal/config"
	"lexibridge/internal/db"
	"lexibridge/internal/dictionary"
	"lexibridge/internal/history"
	"lexibridge/internal/logging"
	"lexibridge/internal/ratelimit"
	"lexibridge/internal/review"
	"lexibridge/internal/secrets"
	"lexibridge/internal/settings"
	"lexibridge/internal/translation"
)

// runtime bundles everything a command needs after bootstrap.
type runtime struct {
	cfg        *config.Config
	logger     zerolog.Logger
	gdb        *gorm.DB
	historyDB  *history.Store
	reviews    *review.Queue
	settings   *settings.Store
	registry   *translation.Registry
	aggregator *aggregate.Aggregator
}

func bootstrap(envLoader *cli.EnvLoader) (*runtime, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	gdb, err := db.Open(db.Options{
		DatabaseURL: cfg.DatabaseURL,
		Path:        cfg.DBPath,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	historyDB, err := history.NewStore(gdb)
	if err != nil {
		return nil, fmt.Errorf("initialize history store: %w", err)
	}
	reviews, err := review.NewQueue(gdb)
	if err != nil {
		return nil, fmt.Errorf("initialize review queue: %w", err)
	}

	secretsKey := cfg.SecretsKey
	if secretsKey == "" {
		secretsKey, err = secrets.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral secrets key: %w", err)
		}
		logger.Warn().Msg("SECRETS_KEY is not set; stored credentials will not survive a restart")
	}
	encryptor, err := secrets.NewEncryptorFromBase64(secretsKey)
	if err != nil {
		return nil, fmt.Errorf("initialize credential encryption: %w", err)
	}
	settingsDB, err := settings.NewStore(gdb, encryptor)
	if err != nil {
		return nil, fmt.Errorf("initialize settings store: %w", err)
	}

	dict, err := dictionary.Load(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary %q: %w", cfg.DictionaryPath, err)
	}
	if dict.Len() > 0 {
		logger.Info().Int("entries", dict.Len()).Str("path", cfg.DictionaryPath).Msg("dictionary loaded")
	}

	var limiter *ratelimit.MinInterval
	if cfg.MinIntervalMS > 0 {
		limiter = ratelimit.NewMinInterval(time.Duration(cfg.MinIntervalMS) * time.Millisecond)
	}

	registry := translation.NewDefaultRegistry(nil)
	aggregator, err := aggregate.New(registry, dict, limiter, logger, aggregate.Options{
		Priority:            cfg.PriorityOrderList(),
		DictionaryExclusive: cfg.DictionaryExclusive,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize aggregator: %w", err)
	}

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		gdb:        gdb,
		historyDB:  historyDB,
		reviews:    reviews,
		settings:   settingsDB,
		registry:   registry,
		aggregator: aggregator,
	}, nil
}

func (r *runtime) close() {
	if r == nil || r.gdb == nil {
		return
	}
	if sqlDB, err := r.gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
