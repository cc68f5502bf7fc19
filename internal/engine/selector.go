package engine

import (
	"errors"
	"math/rand"
	"strings"
)

// ErrNoMove: the search finished but the bestmove line carried no move.
// Distinct from communication failures.
var ErrNoMove = errors.New("no move available")

// Candidate is one ranked principal-variation head from the current search.
// Rank is 1-based arrival order.
type Candidate struct {
	Rank int
	Move string
}

type selectorState int

const (
	selectorCollecting selectorState = iota
	selectorDone
)

// MoveSelector consumes one search's output lines, collecting ranked
// candidate moves until the bestmove announcement. It lives for a single
// request; candidates are not retained across searches.
type MoveSelector struct {
	elo        int
	state      selectorState
	candidates []Candidate
	bestLine   string
}

func NewMoveSelector(elo int) *MoveSelector {
	return &MoveSelector{elo: elo, state: selectorCollecting}
}

// Observe feeds one output line and reports whether the search completed.
// Info lines need both a multipv marker and an exact pv field; the token
// after pv becomes the next candidate. A marker line with nothing after pv
// is ignored, not an error.
func (s *MoveSelector) Observe(line string) bool {
	if s.state == selectorDone {
		return true
	}

	if strings.HasPrefix(line, "bestmove") {
		s.bestLine = line
		s.state = selectorDone
		return true
	}

	if strings.Contains(strings.ToLower(line), "multipv") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if f == "pv" {
				if i+1 < len(fields) {
					s.candidates = append(s.candidates, Candidate{
						Rank: len(s.candidates) + 1,
						Move: fields[i+1],
					})
				}
				break
			}
		}
	}
	return false
}

// Done reports whether the bestmove announcement has been seen.
func (s *MoveSelector) Done() bool { return s.state == selectorDone }

// Candidates returns the collected ranked moves.
func (s *MoveSelector) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Choose applies the selection policy. At Elo <= 500 with more than one
// candidate, a sub-optimal candidate is drawn uniformly from everything
// except the top-ranked one: a plausible but non-optimal move for weak play.
// Otherwise the move is the second field of the bestmove line.
func (s *MoveSelector) Choose(r *rand.Rand) (string, error) {
	if s.state != selectorDone {
		return "", errors.New("search still collecting")
	}

	if s.elo <= 500 && len(s.candidates) > 1 {
		pick := 1 + r.Intn(len(s.candidates)-1)
		return s.candidates[pick].Move, nil
	}

	fields := strings.Fields(s.bestLine)
	if len(fields) >= 2 {
		return fields[1], nil
	}
	return "", ErrNoMove
}
