package services

import (
	"context"
	"time"

	"github.com/moodlync/tokencore/internal/domain/pool"
)

// Transactor runs fn atomically. Repositories built on the same store join
// the transaction carried by the context passed to fn.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolNotifier is told about the pool state after every contribution
type PoolNotifier interface {
	PoolChanged(p *pool.Pool)
}

// Clock returns the current time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// startOfDay returns midnight UTC of t's day
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
