package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Sink persists or forwards one audit record.
type Sink interface {
	Record(ctx context.Context, entry model.ActivityLog) error
}

// Auditor writes audit records in the background. A failed write is logged
// and never reaches the caller whose action is being audited.
type Auditor struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAuditor(sink Sink, log *zap.Logger, timeout time.Duration) *Auditor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Auditor{sink: sink, log: log.Named("audit"), timeout: timeout}
}

// Record hands entry to the sink without waiting for it.
func (a *Auditor) Record(entry model.ActivityLog) {
	if a == nil || a.sink == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("activity sink panicked", zap.Any("panic", r), zap.String("action", entry.Action))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.sink.Record(ctx, entry); err != nil {
			a.log.Warn("activity log failed",
				zap.String("action", entry.Action),
				zap.String("entity", entry.Entity),
				zap.Error(err))
		}
	}()
}

// Drain waits for in-flight records or until ctx is done.
func (a *Auditor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
