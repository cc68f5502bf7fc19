package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/park285/stockfish-gateway/internal/enginetest"
)

func TestMain(m *testing.M) {
	if enginetest.Wanted() {
		enginetest.Main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	t.Setenv(enginetest.EnvFakeEngine, "1")
	bin, err := os.Executable()
	if err != nil {
		t.Fatalf("executable: %v", err)
	}
	eng, err := New(Config{
		BinaryPath:       bin,
		HandshakeTimeout: 3 * time.Second,
		ReadyTimeout:     2 * time.Second,
		QuitGrace:        500 * time.Millisecond,
		Logger:           zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(eng.Close)
	return eng
}

func TestBuildPositionCommand(t *testing.T) {
	cases := []struct {
		fen   string
		moves []string
		want  string
	}{
		{"", nil, "position startpos"},
		{"startpos", nil, "position startpos"},
		{"startpos", []string{"e2e4", "e7e5"}, "position startpos moves e2e4 e7e5"},
		{"8/8/8/8/8/8/8/K6k w - - 0 1", nil, "position fen 8/8/8/8/8/8/8/K6k w - - 0 1"},
		{"8/8/8/8/8/8/8/K6k w - - 0 1", []string{"a1a2"}, "position fen 8/8/8/8/8/8/8/K6k w - - 0 1 moves a1a2"},
	}
	for _, tc := range cases {
		if got := BuildPositionCommand(tc.fen, tc.moves); got != tc.want {
			t.Errorf("BuildPositionCommand(%q, %v) = %q, want %q", tc.fen, tc.moves, got, tc.want)
		}
	}
}

func TestBestMoveWeakDifficulty(t *testing.T) {
	eng := newTestEngine(t)
	eng.SetRandomSeed(7)

	result, err := eng.BestMove(context.Background(), MoveRequest{
		FEN:            "startpos",
		Elo:            50,
		MoveTimeMillis: 1000,
		Depth:          1,
	})
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if result.Profile.SkillLevel != 0 || result.Profile.MultiPV != 5 {
		t.Fatalf("profile = %+v, want skill 0 multipv 5", result.Profile)
	}
	if len(result.Candidates) != 5 {
		t.Fatalf("candidates = %d, want 5", len(result.Candidates))
	}

	ranked := enginetest.RankedMoves()
	if result.Move == ranked[0] {
		t.Fatalf("weak difficulty returned the top-ranked move %q", result.Move)
	}
	found := false
	for _, mv := range ranked[1:] {
		if result.Move == mv {
			found = true
		}
	}
	if !found {
		t.Fatalf("move %q not among sub-optimal candidates %v", result.Move, ranked[1:])
	}
}

func TestBestMoveWeakDifficultyVaries(t *testing.T) {
	eng := newTestEngine(t)
	seen := make(map[string]bool)
	for seed := int64(0); seed < 20; seed++ {
		eng.SetRandomSeed(seed)
		result, err := eng.BestMove(context.Background(), MoveRequest{
			FEN:            "startpos",
			Elo:            50,
			MoveTimeMillis: 100,
			Depth:          1,
		})
		if err != nil {
			t.Fatalf("BestMove seed %d: %v", seed, err)
		}
		seen[result.Move] = true
	}
	if len(seen) < 2 {
		t.Fatalf("randomness degenerate across trials: %v", seen)
	}
}

func TestBestMoveMaxDifficulty(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.BestMove(context.Background(), MoveRequest{
		FEN:            "startpos",
		Elo:            3000,
		MoveTimeMillis: 1000,
		Depth:          1,
	})
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if result.Profile.SkillLevel != 10 || result.Profile.MultiPV != 1 {
		t.Fatalf("profile = %+v, want skill 10 multipv 1", result.Profile)
	}
	if result.Move != "e2e4" {
		t.Fatalf("move = %q, want the engine best move e2e4", result.Move)
	}
}

func TestBestMoveSequentialRequests(t *testing.T) {
	eng := newTestEngine(t)
	for i := 0; i < 3; i++ {
		result, err := eng.BestMove(context.Background(), MoveRequest{
			FEN:            "startpos",
			Moves:          []string{"e2e4", "e7e5"},
			Elo:            1500,
			MoveTimeMillis: 100,
			Depth:          1,
		})
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if result.Move == "" {
			t.Fatalf("request %d returned empty move", i)
		}
	}
}
