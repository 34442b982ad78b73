package menusave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"menza-admin/internal/common/database"
	"menza-admin/internal/common/logger"
)

// ErrSaveInProgress is returned when another save of the same week holds the
// guard.
var ErrSaveInProgress = errors.New("a save for this week is already in progress")

// Guard serializes saves per (year, week). Acquire either returns a release
// func or fails fast with ErrSaveInProgress; it never waits.
type Guard interface {
	Acquire(ctx context.Context, year, week int) (release func(), err error)
}

func lockKey(year, week int) string {
	return fmt.Sprintf("menza:menu-save:%d:%02d", year, week)
}

// ==========================
// In-process guard
// ==========================

type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(_ context.Context, year, week int) (func(), error) {
	key := lockKey(year, week)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, ErrSaveInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// ==========================
// Redis guard
// ==========================

// RedisGuard shares the guard between workstations through Redis. The TTL
// bounds how long a crashed holder can block a week.
type RedisGuard struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisGuard(redis *database.RedisClient, ttl time.Duration, log logger.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisGuard{redis: redis, ttl: ttl, logger: logger.OrNoOp(log)}
}

func (g *RedisGuard) Acquire(ctx context.Context, year, week int) (func(), error) {
	key := lockKey(year, week)
	token := uuid.NewString()

	ok, err := g.redis.TryLock(ctx, key, token, g.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSaveInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			released, err := g.redis.Unlock(releaseCtx, key, token)
			if err != nil {
				g.logger.Warn("failed to release save lock", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
				return
			}
			if !released {
				g.logger.Warn("save lock expired before release", map[string]interface{}{"key": key})
			}
		})
	}, nil
}
