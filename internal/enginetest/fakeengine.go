// Package enginetest provides a scriptable stand-in for a UCI engine.
// Test binaries re-exec themselves with EnvFakeEngine set and hand control
// to Main, so supervisor and session tests exercise real pipes and process
// lifecycle without a Stockfish install.
package enginetest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvFakeEngine makes the test binary behave as the engine.
	EnvFakeEngine = "GATEWAY_FAKE_ENGINE"
	// EnvIgnoreQuit keeps the process alive after quit and after stdin
	// closes, so forced termination paths can be observed.
	EnvIgnoreQuit = "GATEWAY_FAKE_ENGINE_IGNORE_QUIT"
	// EnvMute suppresses all handshake output, simulating a stalled engine.
	EnvMute = "GATEWAY_FAKE_ENGINE_MUTE"
)

// Wanted reports whether the current process should run as the fake engine.
func Wanted() bool { return os.Getenv(EnvFakeEngine) == "1" }

var rankedMoves = []string{"e2e4", "d2d4", "g1f3", "c2c4", "b1c3"}

// Main runs the fake engine loop until quit or stdin closure.
func Main() {
	ignoreQuit := os.Getenv(EnvIgnoreQuit) == "1"
	mute := os.Getenv(EnvMute) == "1"

	out := os.Stdout
	multipv := 1

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "uci":
			if mute {
				continue
			}
			fmt.Fprintln(out, "id name FakeFish 1.0")
			fmt.Fprintln(out, "id author enginetest")
			fmt.Fprintln(out, "option name Skill Level type spin default 20 min 0 max 20")
			fmt.Fprintln(out, "uciok")
		case line == "isready":
			if mute {
				continue
			}
			fmt.Fprintln(out, "readyok")
		case strings.HasPrefix(line, "setoption name MultiPV value "):
			if v, err := strconv.Atoi(strings.TrimPrefix(line, "setoption name MultiPV value ")); err == nil && v > 0 {
				multipv = v
			}
		case strings.HasPrefix(line, "go"):
			if mute {
				continue
			}
			for i := 0; i < multipv && i < len(rankedMoves); i++ {
				fmt.Fprintf(out, "info depth 1 seldepth 1 multipv %d score cp %d nodes 20 pv %s e7e5\n",
					i+1, 30-10*i, rankedMoves[i])
			}
			fmt.Fprintln(out, "bestmove e2e4 ponder e7e5")
		case line == "quit":
			if ignoreQuit {
				continue
			}
			return
		}
	}
	if ignoreQuit {
		time.Sleep(time.Minute)
	}
}

// RankedMoves returns the fixed candidate order the fake engine reports.
func RankedMoves() []string { return append([]string(nil), rankedMoves...) }
