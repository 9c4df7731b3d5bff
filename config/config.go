// Package config loads the client's ambient configuration from the
// environment: an envconfig-decorated struct plus a fail-fast validation
// pass. Load returns errors rather than calling log.Fatal, so an
// embedding application controls its own exit path.
package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vrischmann/envconfig"
)

// LogConfig controls the ambient logrus logger.
type LogConfig struct {
	Level  string `envconfig:"default=info"`
	Mozlog bool   `envconfig:"default=false"`
}

// LimitConfig mirrors the fields and defaults of
// syncclient.InfoConfiguration. It is only loaded from the environment:
// nothing in this module passes it to a StorageClient, whose limits come
// from DefaultInfoConfiguration until StorageClient.GetConfiguration
// replaces them.
type LimitConfig struct {
	MaxRequestBytes int `envconfig:"default=1048576"`
	MaxPostRecords  int `envconfig:"default=100"`
	MaxPostBytes    int `envconfig:"default=1048576"`
	MaxBatchRecord  int `envconfig:"default=10000"`
	MaxBatchBytes   int `envconfig:"default=104857600"`
}

// Config is the client's full ambient configuration, decoded from
// environment variables by envconfig (STORAGE_URL, USER_ID, SECRET,
// LOG_LEVEL, and so on -- see envconfig's field-name convention).
type Config struct {
	Log *LogConfig

	StorageURL string `envconfig:"optional"`
	UserID     uint64 `envconfig:"optional"`
	Node       string `envconfig:"optional"`
	Secret     string `envconfig:"optional"`

	UserAgent          string `envconfig:"default=go-syncclient/1"`
	HTTPTimeoutSeconds int    `envconfig:"default=30"`

	Limit *LimitConfig
}

// Load decodes Config from the environment and validates it, returning an
// error instead of exiting the process on a bad value, since a library
// must never call log.Fatal on its caller's behalf.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Init(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: could not load environment")
	}

	switch cfg.Log.Level {
	case "panic", "fatal", "error", "warn", "info", "debug", "trace":
	default:
		return nil, errors.Errorf("config: LOG_LEVEL must be a valid logrus level, got %q", cfg.Log.Level)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, errors.New("config: HTTP_TIMEOUT_SECONDS must be positive")
	}

	return &cfg, nil
}

// Logger builds the logrus logger cfg.Log describes.
func (c *Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "config: invalid log level")
	}

	log := logrus.New()
	log.SetLevel(level)
	if c.Log.Mozlog {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}
