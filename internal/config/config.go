package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	StorageBadger    = "badger"
	StorageTarantool = "tarantool"
	StorageMemory    = "memory"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn error"`
	Storage  string `env:"STORAGE,default=badger" validate:"oneof=badger tarantool memory"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=data/rooms" validate:"required_if=Storage badger"`

	TTAddress  string `env:"TT_ADDRESS,default=127.0.0.1:3301" validate:"required_if=Storage tarantool"`
	TTUser     string `env:"TT_USER" validate:"required_if=Storage tarantool"`
	TTPassword string `env:"TT_PASSWORD" validate:"required_if=Storage tarantool"`
	TTSpace    string `env:"TT_SPACE,default=rooms" validate:"required_if=Storage tarantool"`

	HTTPAddr string `env:"HTTP_ADDR,default=:8080" validate:"required"`

	MMEnabled  bool   `env:"MM_ENABLED,default=false"`
	MMUserName string `env:"MM_USERNAME,default=DecisionBot"`
	MMTeamName string `env:"MM_TEAM" validate:"required_if=MMEnabled true"`
	MMToken    string `env:"MM_TOKEN" validate:"required_if=MMEnabled true"`
	MMServer   string `env:"MM_SERVER" validate:"required_if=MMEnabled true"`

	TiebreakRevealDelay time.Duration `env:"TIEBREAK_REVEAL_DELAY,default=2s" validate:"min=0"`
	PersistTimeout      time.Duration `env:"PERSIST_TIMEOUT,default=5s" validate:"gt=0"`
}

var validate = validator.New()

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("could not read .env: %w", err)
	}
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return Config{}, fmt.Errorf("could not read environment: %w", err)
	}
	return Parse(es)
}

// Parse builds a validated Config from es.
func Parse(es env.EnvSet) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
