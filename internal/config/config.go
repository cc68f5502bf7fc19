package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr string
	GUIPath    string

	StockfishPath string

	RedisURL    string
	DatabaseURL string

	HandshakeTimeoutSec int
	QuitGraceSec        int

	DifficultyProfileFile string

	CacheTTLSec int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:          ":5000",
		GUIPath:             "web/chess_gui.html",
		HandshakeTimeoutSec: 5,
		QuitGraceSec:        2,
		CacheTTLSec:         600,
	}

	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.DifficultyProfileFile = strings.TrimSpace(os.Getenv("DIFFICULTY_PROFILE_FILE"))

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("GUI_PATH")); v != "" {
		cfg.GUIPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HANDSHAKE_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HandshakeTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_QUIT_GRACE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuitGraceSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MOVE_CACHE_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLSec = n
		}
	}

	if cfg.StockfishPath == "" {
		return nil, errors.New("STOCKFISH_PATH is required")
	}

	return cfg, nil
}
