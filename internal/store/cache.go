package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const deterministicEloFloor = 501

// MoveCache memoizes deterministic move lookups in Redis. Only requests with
// Elo above 500 are cacheable: below that the selection is randomized and a
// cached answer would defeat it.
type MoveCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMoveCache(redisURL string, ttl time.Duration) (*MoveCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &MoveCache{rdb: rdb, ttl: ttl}, nil
}

// Cacheable reports whether a request at this Elo has a deterministic answer.
func Cacheable(elo int) bool { return elo >= deterministicEloFloor }

func (c *MoveCache) key(fen string, moves []string, elo, depth, timeMs int) string {
	sum := sha256.Sum256([]byte(strings.Join(moves, " ") + "|" + strings.TrimSpace(fen)))
	return fmt.Sprintf("move:%s:%d:%d:%d", hex.EncodeToString(sum[:16]), elo, depth, timeMs)
}

// Get returns the cached move, or "" on a miss.
func (c *MoveCache) Get(ctx context.Context, fen string, moves []string, elo, depth, timeMs int) (string, error) {
	if c == nil || !Cacheable(elo) {
		return "", nil
	}
	move, err := c.rdb.Get(ctx, c.key(fen, moves, elo, depth, timeMs)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return move, nil
}

func (c *MoveCache) Put(ctx context.Context, fen string, moves []string, elo, depth, timeMs int, move string) error {
	if c == nil || !Cacheable(elo) || strings.TrimSpace(move) == "" {
		return nil
	}
	return c.rdb.Set(ctx, c.key(fen, moves, elo, depth, timeMs), move, c.ttl).Err()
}

func (c *MoveCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
