package aggregates

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/yungbote/assets-backend/internal/platform/dbctx"
)

// EntityLocker hands out process-local mutexes keyed by entity. Entries are
// reference counted and dropped once no caller holds or waits on them.
type EntityLocker struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	sem  chan struct{}
	refs int
}

func NewEntityLocker() *EntityLocker {
	return &EntityLocker{locks: map[string]*entityLock{}}
}

// Acquire blocks until key is free or ctx ends.
func (l *EntityLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	el := l.locks[key]
	if el == nil {
		el = &entityLock{sem: make(chan struct{}, 1)}
		l.locks[key] = el
	}
	el.refs++
	l.mu.Unlock()

	select {
	case el.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, el)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-el.sem
			l.unref(key, el)
		})
	}, nil
}

func (l *EntityLocker) unref(key string, el *entityLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el.refs--
	if el.refs <= 0 {
		delete(l.locks, key)
	}
}

// Len reports how many keys are currently tracked.
func (l *EntityLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func advisoryXactLock(dbc dbctx.Context, namespace, id string) error {
	tx := dbc.Tx
	if tx == nil || namespace == "" || id == "" {
		return nil
	}
	if tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey64(namespace, id)).Error
}

func advisoryKey64(namespace, id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.TrimSpace(namespace)))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(strings.TrimSpace(id)))
	return int64(h.Sum64())
}
