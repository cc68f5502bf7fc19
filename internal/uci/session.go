package uci

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Session is the line-oriented request/response primitive over a supervised
// engine process. It is not safe for concurrent use; callers serialize
// requests above it.
type Session struct {
	sup *Supervisor
	log *zap.Logger
}

func NewSession(sup *Supervisor, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{sup: sup, log: logger}
}

// Send writes one command line. On a write failure it restarts the engine
// exactly once and retries; a second failure is a fatal communication error.
// The retry is explicit policy, not hidden control flow: the returned error
// wraps ErrCommunication and the session is marked dead.
func (s *Session) Send(ctx context.Context, line string) error {
	err := s.sup.WriteLine(line)
	if err == nil {
		return nil
	}

	s.log.Warn("engine write failed, restarting once",
		zap.String("command", firstField(line)),
		zap.Error(err))
	if rerr := s.sup.Start(ctx); rerr != nil {
		return fmt.Errorf("%w: restart after write failure: %v", ErrCommunication, rerr)
	}
	if err := s.sup.WriteLine(line); err != nil {
		s.sup.setState(StateDead)
		return fmt.Errorf("%w: write %q after restart: %v", ErrCommunication, firstField(line), err)
	}
	return nil
}

// WaitFor reads lines in arrival order, discarding each until one contains
// token as a substring, and returns that line. The context deadline bounds
// the wait; on expiry the result is ErrProtocolStall.
func (s *Session) WaitFor(ctx context.Context, token string) (string, error) {
	for {
		line, err := s.sup.ReadLine(ctx)
		if err != nil {
			return "", s.readFailure(ctx, token, err)
		}
		if strings.Contains(line, token) {
			return line, nil
		}
	}
}

// ReadLine exposes the raw line stream for callers that consume intermediate
// search output themselves.
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	line, err := s.sup.ReadLine(ctx)
	if err != nil {
		return "", s.readFailure(ctx, "", err)
	}
	return line, nil
}

func (s *Session) readFailure(ctx context.Context, token string, err error) error {
	s.sup.setState(StateDead)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if token != "" {
			return fmt.Errorf("%w: waiting for %q: %v", ErrProtocolStall, token, err)
		}
		return fmt.Errorf("%w: %v", ErrProtocolStall, err)
	}
	return fmt.Errorf("%w: read: %v", ErrCommunication, err)
}

// MarkSearching and MarkReady record the coarse protocol phase for
// observability.
func (s *Session) MarkSearching() { s.sup.setState(StateSearching) }
func (s *Session) MarkReady()     { s.sup.setState(StateReady) }

func firstField(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
