package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/stockfish-gateway/internal/uci"
)

const (
	defaultReadyTimeout = 4 * time.Second
	defaultQuitGrace    = 2 * time.Second
)

type Config struct {
	BinaryPath       string
	Args             []string
	HandshakeTimeout time.Duration
	ReadyTimeout     time.Duration
	QuitGrace        time.Duration
	Mapper           *DifficultyMapper
	Logger           *zap.Logger
}

// MoveRequest carries one move computation. Numeric fields arrive
// range-clamped by the caller.
type MoveRequest struct {
	Moves          []string
	FEN            string
	Elo            int
	MoveTimeMillis int
	Depth          int
}

// MoveResult is the chosen move plus the search context it came from.
type MoveResult struct {
	Move       string
	Profile    StrengthProfile
	Candidates []Candidate
	Duration   time.Duration
}

// Engine is the stateful session facade over one supervised engine process.
// The process accepts one command stream, so requests are serialized under a
// single mutex: concurrent callers queue rather than race.
type Engine struct {
	mu      sync.Mutex
	sup     *uci.Supervisor
	session *uci.Session
	mapper  *DifficultyMapper
	log     *zap.Logger

	readyTimeout time.Duration
	quitGrace    time.Duration

	randMu sync.Mutex
	rand   *rand.Rand
}

func New(cfg Config) (*Engine, error) {
	sup, err := uci.NewSupervisor(uci.SupervisorConfig{
		BinaryPath:       cfg.BinaryPath,
		Args:             cfg.Args,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Logger:           cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	mapper := cfg.Mapper
	if mapper == nil {
		mapper = NewDifficultyMapper()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = defaultReadyTimeout
	}
	quitGrace := cfg.QuitGrace
	if quitGrace <= 0 {
		quitGrace = defaultQuitGrace
	}

	return &Engine{
		sup:          sup,
		session:      uci.NewSession(sup, logger),
		mapper:       mapper,
		log:          logger,
		readyTimeout: readyTimeout,
		quitGrace:    quitGrace,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Start launches the engine process and completes the handshake. It must
// succeed before any request is accepted.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sup.Start(ctx)
}

// Close shuts the engine down, waiting a bounded grace period before
// forcing termination. Best-effort.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sup.Terminate(e.quitGrace)
}

func (e *Engine) State() uci.State { return e.sup.State() }

// BestMove runs one full request against the engine. Communication failures
// and protocol stalls trigger a fresh engine start so later requests are not
// poisoned by a dead process, and the error still surfaces to the caller.
func (e *Engine) BestMove(ctx context.Context, req MoveRequest) (MoveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	result, err := e.bestMoveLocked(ctx, req)
	if err != nil {
		if errors.Is(err, uci.ErrCommunication) || errors.Is(err, uci.ErrProtocolStall) {
			e.log.Warn("engine session failed, restarting", zap.Error(err))
			restartCtx, cancel := context.WithTimeout(context.Background(), e.readyTimeout*2)
			if rerr := e.sup.Start(restartCtx); rerr != nil {
				e.log.Error("engine restart failed", zap.Error(rerr))
			}
			cancel()
		}
		return MoveResult{}, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) bestMoveLocked(ctx context.Context, req MoveRequest) (MoveResult, error) {
	profile := e.mapper.Map(req.Elo)

	if err := e.session.Send(ctx, "ucinewgame"); err != nil {
		return MoveResult{}, err
	}
	if err := e.ensureReady(ctx); err != nil {
		return MoveResult{}, err
	}

	strength := []string{
		"setoption name UCI_LimitStrength value true",
		fmt.Sprintf("setoption name UCI_Elo value %d", req.Elo),
		fmt.Sprintf("setoption name MultiPV value %d", profile.MultiPV),
		fmt.Sprintf("setoption name Skill Level value %d", profile.SkillLevel),
	}
	for _, cmd := range strength {
		if err := e.session.Send(ctx, cmd); err != nil {
			return MoveResult{}, err
		}
	}
	if err := e.ensureReady(ctx); err != nil {
		return MoveResult{}, err
	}

	if err := e.session.Send(ctx, BuildPositionCommand(req.FEN, req.Moves)); err != nil {
		return MoveResult{}, err
	}
	if err := e.session.Send(ctx, fmt.Sprintf("go depth %d movetime %d", req.Depth, req.MoveTimeMillis)); err != nil {
		return MoveResult{}, err
	}

	e.session.MarkSearching()
	searchCtx, cancel := context.WithTimeout(ctx, computeSearchTimeout(req.MoveTimeMillis, req.Depth))
	defer cancel()

	selector := NewMoveSelector(req.Elo)
	for !selector.Done() {
		line, err := e.session.ReadLine(searchCtx)
		if err != nil {
			return MoveResult{}, err
		}
		selector.Observe(line)
	}
	e.session.MarkReady()

	move, err := selector.Choose(e.random())
	if err != nil {
		return MoveResult{}, err
	}
	return MoveResult{
		Move:       move,
		Profile:    profile,
		Candidates: selector.Candidates(),
	}, nil
}

func (e *Engine) ensureReady(ctx context.Context) error {
	if err := e.session.Send(ctx, "isready"); err != nil {
		return err
	}
	readyCtx, cancel := context.WithTimeout(ctx, e.readyTimeout)
	defer cancel()
	if _, err := e.session.WaitFor(readyCtx, "readyok"); err != nil {
		return err
	}
	return nil
}

// BuildPositionCommand renders the position command. An empty or startpos
// FEN with no moves yields exactly "position startpos".
func BuildPositionCommand(fen string, moves []string) string {
	var sb strings.Builder
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	return sb.String()
}

func computeSearchTimeout(moveTimeMillis, depth int) time.Duration {
	if moveTimeMillis > 0 {
		return time.Duration(moveTimeMillis+2000) * time.Millisecond * 3
	}
	if depth > 0 {
		base := time.Duration(depth) * 300 * time.Millisecond
		if base < 6*time.Second {
			base = 6 * time.Second
		}
		if base > 20*time.Second {
			base = 20 * time.Second
		}
		return base
	}
	return 6 * time.Second
}

func (e *Engine) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// SetRandomSeed pins the randomness source, for tests.
func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}
