package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/stockfish-gateway/internal/engine"
	"github.com/park285/stockfish-gateway/internal/history"
	"github.com/park285/stockfish-gateway/internal/store"
	"github.com/park285/stockfish-gateway/pkg/enginedto"
)

// Clamp ranges owned by this layer; the engine session assumes they held.
const (
	minDifficulty = 0
	maxDifficulty = 3190
	minTimeMillis = 1
	maxTimeMillis = 10000
	minDepth      = 1
	maxDepth      = 100
)

// Server is the thin HTTP surface over the engine session: a move endpoint,
// a health probe, and the GUI file.
type Server struct {
	engine  *engine.Engine
	cache   *store.MoveCache
	repo    *history.Repository
	guiPath string
	log     *zap.Logger
}

func NewServer(eng *engine.Engine, cache *store.MoveCache, repo *history.Repository, guiPath string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, cache: cache, repo: repo, guiPath: guiPath, log: logger}
}

func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/stockfish":
			if !ctx.IsPost() {
				writeError(ctx, fasthttp.StatusMethodNotAllowed, "POST required")
				return
			}
			s.handleMove(ctx)
		case "/health":
			writeJSON(ctx, fasthttp.StatusOK, enginedto.HealthResponse{Status: "ok"})
		case "/":
			ctx.SetContentType("text/html; charset=utf-8")
			fasthttp.ServeFile(ctx, s.guiPath)
		default:
			writeError(ctx, fasthttp.StatusNotFound, "not found")
		}
	}
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx) {
	requestID := uuid.NewString()

	// Absent JSON keys keep the documented defaults.
	req := enginedto.MoveRequest{
		FEN:        "startpos",
		Difficulty: 1500,
		TimeMillis: 1000,
		Depth:      1,
	}
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}

	req.Difficulty = clamp(req.Difficulty, minDifficulty, maxDifficulty)
	req.TimeMillis = clamp(req.TimeMillis, minTimeMillis, maxTimeMillis)
	req.Depth = clamp(req.Depth, minDepth, maxDepth)
	if strings.TrimSpace(req.FEN) == "" {
		req.FEN = "startpos"
	}
	moves := strings.Fields(req.Moves)

	if err := validatePosition(req.FEN, moves); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	log := s.log.With(
		zap.String("request_id", requestID),
		zap.Int("difficulty", req.Difficulty),
		zap.Int("depth", req.Depth),
		zap.Int("time_ms", req.TimeMillis),
	)

	if cached, err := s.cache.Get(ctx, req.FEN, moves, req.Difficulty, req.Depth, req.TimeMillis); err != nil {
		log.Warn("move cache lookup failed", zap.Error(err))
	} else if cached != "" {
		log.Info("move served from cache", zap.String("bestmove", cached))
		writeJSON(ctx, fasthttp.StatusOK, enginedto.MoveResponse{BestMove: cached})
		return
	}

	result, err := s.engine.BestMove(ctx, engine.MoveRequest{
		Moves:          moves,
		FEN:            req.FEN,
		Elo:            req.Difficulty,
		MoveTimeMillis: req.TimeMillis,
		Depth:          req.Depth,
	})
	if err != nil {
		log.Error("engine move failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	log.Info("move computed",
		zap.String("bestmove", result.Move),
		zap.Int("skill_level", result.Profile.SkillLevel),
		zap.Int("multipv", result.Profile.MultiPV),
		zap.Duration("duration", result.Duration))

	if err := s.cache.Put(ctx, req.FEN, moves, req.Difficulty, req.Depth, req.TimeMillis, result.Move); err != nil {
		log.Warn("move cache store failed", zap.Error(err))
	}
	s.record(requestID, req, moves, result)

	writeJSON(ctx, fasthttp.StatusOK, enginedto.MoveResponse{BestMove: result.Move})
}

func (s *Server) record(requestID string, req enginedto.MoveRequest, moves []string, result engine.MoveResult) {
	if s.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.repo.SaveMove(ctx, history.Record{
			RequestID:  requestID,
			FEN:        req.FEN,
			Moves:      moves,
			Elo:        req.Difficulty,
			SkillLevel: result.Profile.SkillLevel,
			MultiPV:    result.Profile.MultiPV,
			Depth:      req.Depth,
			TimeMillis: req.TimeMillis,
			Move:       result.Move,
			DurationMS: result.Duration.Milliseconds(),
		})
		if err != nil {
			s.log.Warn("history insert failed", zap.String("request_id", requestID), zap.Error(err))
		}
	}()
}

// validatePosition rejects positions the engine could choke on: a bad FEN or
// an illegal move sequence.
func validatePosition(fen string, moves []string) error {
	var game *nchess.Game
	if fen == "startpos" {
		game = nchess.NewGame()
	} else {
		option, err := nchess.FEN(fen)
		if err != nil {
			return fmt.Errorf("invalid fen: %v", err)
		}
		game = nchess.NewGame(option)
	}
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return fmt.Errorf("illegal move %q: %v", mv, err)
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, enginedto.ErrorResponse{Error: msg})
}
