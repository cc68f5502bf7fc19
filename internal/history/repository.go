package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository records answered move requests in Postgres. Writes are
// best-effort; the serving path never depends on them.
type Repository struct {
	db *sql.DB
}

type Record struct {
	RequestID  string
	FEN        string
	Moves      []string
	Elo        int
	SkillLevel int
	MultiPV    int
	Depth      int
	TimeMillis int
	Move       string
	DurationMS int64
	CreatedAt  time.Time
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) SaveMove(ctx context.Context, rec Record) error {
	if r == nil || r.db == nil {
		return nil
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	q := `INSERT INTO move_requests (
        request_id, fen, moves, elo, skill_level, multipv,
        depth, time_ms, chosen_move, duration_ms, created_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.db.ExecContext(ctx, q,
		rec.RequestID,
		rec.FEN,
		strings.Join(rec.Moves, " "),
		rec.Elo, rec.SkillLevel, rec.MultiPV,
		rec.Depth, rec.TimeMillis,
		rec.Move, rec.DurationMS, created,
	)
	return err
}
