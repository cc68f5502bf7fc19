package builder

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/stockfish-gateway/internal/config"
	"github.com/park285/stockfish-gateway/internal/engine"
	"github.com/park285/stockfish-gateway/internal/history"
	"github.com/park285/stockfish-gateway/internal/httpapi"
	"github.com/park285/stockfish-gateway/internal/store"
)

type Deps struct {
	Engine *engine.Engine
	Cache  *store.MoveCache
	Repo   *history.Repository
	Server *httpapi.Server
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mapper, err := engine.LoadDifficultyMapper(cfg.DifficultyProfileFile)
	if err != nil {
		return nil, fmt.Errorf("load difficulty profile: %w", err)
	}

	eng, err := engine.New(engine.Config{
		BinaryPath:       cfg.StockfishPath,
		HandshakeTimeout: time.Duration(cfg.HandshakeTimeoutSec) * time.Second,
		QuitGrace:        time.Duration(cfg.QuitGraceSec) * time.Second,
		Mapper:           mapper,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	var cache *store.MoveCache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cache, err = store.NewMoveCache(cfg.RedisURL, time.Duration(cfg.CacheTTLSec)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("init move cache: %w", err)
		}
	}

	var repo *history.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err = history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init history repository: %w", err)
		}
	}

	server := httpapi.NewServer(eng, cache, repo, cfg.GUIPath, logger)
	return &Deps{Engine: eng, Cache: cache, Repo: repo, Server: server}, nil
}
