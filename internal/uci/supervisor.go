package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHandshakeTimeout = 5 * time.Second
	defaultQuitGrace        = 2 * time.Second
)

type SupervisorConfig struct {
	BinaryPath       string
	Args             []string
	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// Supervisor owns the external engine process. It tracks exactly one child
// handle of its own and never reaches outside its process tree: retiring a
// previous instance means retiring the child it spawned, not every
// same-named process on the host.
type Supervisor struct {
	binaryPath       string
	args             []string
	handshakeTimeout time.Duration
	log              *zap.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	state  State
	idName string
}

func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if strings.TrimSpace(cfg.BinaryPath) == "" {
		return nil, fmt.Errorf("%w: binary path required", ErrSpawn)
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrSpawn, cfg.BinaryPath, err)
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		binaryPath:       cfg.BinaryPath,
		args:             append([]string(nil), cfg.Args...),
		handshakeTimeout: timeout,
		log:              logger,
		state:            StateUninitialized,
	}, nil
}

// Start spawns a fresh engine process and completes the uci/uciok handshake.
// A still-live previous child is retired first, so at most one process is
// alive after any sequence of Starts. A stalled handshake is treated the same
// as a failed spawn.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retireLocked(defaultQuitGrace)

	cmd := exec.Command(s.binaryPath, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrSpawn, err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("%w: stdout pipe: %v", ErrSpawn, err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		s.state = StateDead
		return fmt.Errorf("%w: start %s: %v", ErrSpawn, s.binaryPath, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdoutPipe)
	s.state = StateAwaitingReady

	if err := s.handshakeLocked(ctx); err != nil {
		s.retireLocked(0)
		s.state = StateDead
		return err
	}

	s.state = StateReady
	s.log.Info("engine initialised",
		zap.String("binary", s.binaryPath),
		zap.String("id", s.idName))
	return nil
}

// handshakeLocked sends uci and consumes lines until uciok, capturing the
// id name line for diagnostics only.
func (s *Supervisor) handshakeLocked(ctx context.Context) error {
	hsCtx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
	defer cancel()

	if _, err := io.WriteString(s.stdin, "uci\n"); err != nil {
		return fmt.Errorf("%w: send uci: %v", ErrSpawn, err)
	}
	for {
		line, err := s.readLineLocked(hsCtx)
		if err != nil {
			if hsCtx.Err() != nil {
				return fmt.Errorf("%w: no uciok within %s", ErrProtocolStall, s.handshakeTimeout)
			}
			return fmt.Errorf("%w: read handshake: %v", ErrSpawn, err)
		}
		if strings.HasPrefix(line, "id name") {
			s.idName = strings.TrimSpace(strings.TrimPrefix(line, "id name"))
		}
		if strings.Contains(line, "uciok") {
			return nil
		}
	}
}

// Terminate sends quit and waits up to grace for the process to exit, then
// kills it. Best-effort: shutdown never fails the caller.
func (s *Supervisor) Terminate(grace time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if grace <= 0 {
		grace = defaultQuitGrace
	}
	s.retireLocked(grace)
	s.state = StateUninitialized
}

func (s *Supervisor) retireLocked(grace time.Duration) {
	if s.cmd == nil {
		return
	}
	if s.stdin != nil {
		if grace > 0 {
			_, _ = io.WriteString(s.stdin, "quit\n")
		}
		_ = s.stdin.Close()
	}

	done := make(chan struct{})
	cmd := s.cmd
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	if grace > 0 {
		select {
		case <-done:
		case <-time.After(grace):
			s.log.Warn("engine ignored quit, killing", zap.String("binary", s.binaryPath))
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			<-done
		}
	} else {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	}

	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
}

// WriteLine writes one terminated command line, flushed immediately by the
// unbuffered pipe.
func (s *Supervisor) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return fmt.Errorf("engine not running")
	}
	_, err := io.WriteString(s.stdin, line+"\n")
	return err
}

// ReadLine returns the next output line, trimmed. Lines are consumed in
// strict arrival order; the context bounds the wait.
func (s *Supervisor) ReadLine(ctx context.Context) (string, error) {
	s.mu.Lock()
	reader := s.stdout
	s.mu.Unlock()
	if reader == nil {
		return "", fmt.Errorf("engine not running")
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

func (s *Supervisor) readLineLocked(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	reader := s.stdout
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

// Pid returns the live child's process id, or 0 when none is running.
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Running reports whether a child process is currently alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil && s.cmd.ProcessState == nil
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// IDName returns the identification the engine reported during the handshake.
func (s *Supervisor) IDName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idName
}
