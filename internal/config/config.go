package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port               string        `env:"GAMEROOM_PORT" envDefault:"9000"`
	Database           string        `env:"GAMEROOM_DB" envDefault:"gameroom"`
	LogLevel           string        `env:"GAMEROOM_LOG_LEVEL" envDefault:"debug"`
	TimerWorkers       int           `env:"GAMEROOM_TIMER_WORKERS" envDefault:"4"`
	MaxRoomPlayers     int           `env:"GAMEROOM_MAX_ROOM_PLAYERS" envDefault:"8"`
	DictionaryURL      string        `env:"GAMEROOM_DICT_URL" envDefault:"https://opendict.korean.go.kr/api/search"`
	DictionaryKey      string        `env:"GAMEROOM_DICT_KEY"`
	DictionaryTimeout  time.Duration `env:"GAMEROOM_DICT_TIMEOUT" envDefault:"2s"`
	DictionaryCache    int           `env:"GAMEROOM_DICT_CACHE_SIZE" envDefault:"4096"`
	DictionaryCacheTTL time.Duration `env:"GAMEROOM_DICT_CACHE_TTL" envDefault:"24h"`
	CommandsPerSecond  float64       `env:"GAMEROOM_COMMANDS_PER_SECOND" envDefault:"20"`
}

// Load reads the optional .env files and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TimerWorkers < 1 {
		return nil, fmt.Errorf("parse env: GAMEROOM_TIMER_WORKERS must be positive, got %d", cfg.TimerWorkers)
	}
	if cfg.MaxRoomPlayers < 2 {
		return nil, fmt.Errorf("parse env: GAMEROOM_MAX_ROOM_PLAYERS must be at least 2, got %d", cfg.MaxRoomPlayers)
	}
	return cfg, nil
}
