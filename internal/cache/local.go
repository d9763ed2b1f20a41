package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Local is an in-process store bounded by total value size.
type Local struct {
	c *ristretto.Cache[string, []byte]
}

// NewLocal creates a store holding at most maxCostBytes of values.
func NewLocal(maxCostBytes int64) (*Local, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/100*10, 1000),
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Local{c: c}, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.c.Get(key)
	return v, ok, nil
}

// Set waits for the write buffer so the value is readable on return.
func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	l.c.SetWithTTL(key, value, int64(len(value)), ttl)
	l.c.Wait()
	return nil
}

func (l *Local) Purge(context.Context) error {
	l.c.Clear()
	return nil
}

func (l *Local) Close() { l.c.Close() }
