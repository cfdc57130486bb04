package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBoard keeps one sorted set per paralelo. Members missing from the
// set are loaded from the fallback board on read, and the set expires an
// hour after its last fill so any drift against the store is bounded.
type RedisBoard struct {
	client   *redis.Client
	fallback Board
	prefix   string
	ttl      time.Duration
}

// NewRedisBoard parses a redis:// URL and checks connectivity.
func NewRedisBoard(ctx context.Context, url string, fallback Board) (*RedisBoard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBoard{
		client:   client,
		fallback: fallback,
		prefix:   "mathmaster:leaderboard:",
		ttl:      time.Hour,
	}, nil
}

func (b *RedisBoard) key(paraleloID string) string {
	return b.prefix + paraleloID
}

// Add increments the student's score if the student is already on the
// board. Absent members pick up their stored total on the next read.
func (b *RedisBoard) Add(ctx context.Context, paraleloID, studentID string, delta int) error {
	if paraleloID == "" || delta == 0 {
		return nil
	}
	err := b.client.ZAddArgsIncr(ctx, b.key(paraleloID), redis.ZAddArgs{
		XX:      true,
		Members: []redis.Z{{Score: float64(delta), Member: studentID}},
	}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis zincr: %w", err)
	}
	return nil
}

func (b *RedisBoard) Scores(ctx context.Context, paraleloID string, studentIDs []string) (map[string]int, error) {
	if len(studentIDs) == 0 {
		return map[string]int{}, nil
	}
	key := b.key(paraleloID)

	cmds := make([]*redis.FloatCmd, len(studentIDs))
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range studentIDs {
			cmds[i] = p.ZScore(ctx, key, id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis zscore: %w", err)
	}

	out := make(map[string]int, len(studentIDs))
	var missing []string
	for i, id := range studentIDs {
		v, err := cmds[i].Result()
		switch {
		case errors.Is(err, redis.Nil):
			missing = append(missing, id)
		case err != nil:
			return nil, fmt.Errorf("redis zscore: %w", err)
		default:
			out[id] = int(v)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	scores, err := b.fallback.Scores(ctx, paraleloID, missing)
	if err != nil {
		return nil, err
	}
	members := make([]redis.Z, 0, len(missing))
	for _, id := range missing {
		out[id] = scores[id]
		members = append(members, redis.Z{Score: float64(scores[id]), Member: id})
	}
	// NX leaves members another reader filled first untouched.
	_, err = b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAddNX(ctx, key, members...)
		p.Expire(ctx, key, b.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis fill: %w", err)
	}
	return out, nil
}

// Reset drops the set of a paralelo so the next read rebuilds it.
func (b *RedisBoard) Reset(ctx context.Context, paraleloID string) error {
	return b.client.Del(ctx, b.key(paraleloID)).Err()
}

func (b *RedisBoard) Close() error {
	return b.client.Close()
}
