package config

import "testing"

func TestLoadRequiresStockfishPath(t *testing.T) {
	t.Setenv("STOCKFISH_PATH", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when STOCKFISH_PATH is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STOCKFISH_PATH", "/usr/local/bin/stockfish")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("ENGINE_QUIT_GRACE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":5000" {
		t.Fatalf("ListenAddr = %q, want :5000", cfg.ListenAddr)
	}
	if cfg.QuitGraceSec != 2 {
		t.Fatalf("QuitGraceSec = %d, want 2", cfg.QuitGraceSec)
	}
	if cfg.HandshakeTimeoutSec != 5 {
		t.Fatalf("HandshakeTimeoutSec = %d, want 5", cfg.HandshakeTimeoutSec)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STOCKFISH_PATH", "/opt/sf/stockfish")
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("ENGINE_HANDSHAKE_TIMEOUT", "9")
	t.Setenv("MOVE_CACHE_TTL", "120")
	t.Setenv("ENGINE_QUIT_GRACE", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StockfishPath != "/opt/sf/stockfish" {
		t.Fatalf("StockfishPath = %q", cfg.StockfishPath)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.HandshakeTimeoutSec != 9 {
		t.Fatalf("HandshakeTimeoutSec = %d", cfg.HandshakeTimeoutSec)
	}
	if cfg.CacheTTLSec != 120 {
		t.Fatalf("CacheTTLSec = %d", cfg.CacheTTLSec)
	}
	if cfg.QuitGraceSec != 2 {
		t.Fatalf("QuitGraceSec = %d, unparseable value must keep default", cfg.QuitGraceSec)
	}
}
