package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: mismo algoritmo fixed-window que RedisLimiter pero
// in-process. Para deployments de un solo nodo o desarrollo sin Redis.
// IncrementInt64 de go-cache es atómico: no hay lost updates bajo
// hits concurrentes de la misma key.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, window),
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	winKey := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// Add es "set if not exists": dos primeros hits concurrentes no se pisan
	_ = l.c.Add(winKey, int64(0), l.Window)
	hits, err := l.c.IncrementInt64(winKey, 1)
	if err != nil {
		// la key expiró entre Add e Increment; contamos este hit y seguimos
		l.c.Set(winKey, int64(1), l.Window)
		hits = 1
	}

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	windowTTL := winStart.Add(l.Window).Sub(now)

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   windowTTL,
	}
	if !allowed {
		res.RetryAfter = windowTTL
	}
	return res, nil
}
