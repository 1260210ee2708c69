package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/assets-backend/internal/domain/aggregates"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Locks  *EntityLocker
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Locks == nil {
		d.Locks = NewEntityLocker()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeEntityWrite runs fn in a transaction while holding the entity's
// process-local lock and, on postgres, its transaction-scoped advisory lock.
// The local lock is taken before the transaction opens so that sqlite's single
// connection is never held by a waiter.
func executeEntityWrite(ctx context.Context, deps BaseDeps, op string, key domain.EntityKey, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	release, err := deps.Locks.Acquire(ctx, key.String())
	if err != nil {
		mapped := MapError(op, err)
		deps.Hooks.IncRetry(op)
		deps.Hooks.ObserveOperation(op, aggregateErrorStatus(mapped), 0)
		return mapped
	}
	defer release()
	return executeWrite(ctx, deps, op, func(dbc dbctx.Context) error {
		if err := advisoryXactLock(dbc, "asset_entity", key.String()); err != nil {
			return err
		}
		return fn(dbc)
	})
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
