package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
)

// SaveQueue writes player snapshots to a StateStore off the caller's
// goroutine. Only the newest snapshot per player is kept, so a player saved
// every tick costs one pending entry however slow the store is.
//
// Invariant: snapshots for one player reach the store in the order they
// were enqueued.
type SaveQueue struct {
	store   StateStore
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]combat.State
	order   []string
	wake    chan struct{}

	// flushMu serializes Flush so two drains never race one player's writes.
	flushMu sync.Mutex
}

// NewSaveQueue returns a SaveQueue writing to store, bounding each Save by
// timeout.
//
// Precondition: store and logger must be non-nil; timeout must be > 0.
func NewSaveQueue(store StateStore, timeout time.Duration, logger *zap.Logger) *SaveQueue {
	if timeout <= 0 {
		panic("gameserver.NewSaveQueue: timeout must be > 0")
	}
	return &SaveQueue{
		store:   store,
		timeout: timeout,
		logger:  logger,
		pending: make(map[string]combat.State),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue schedules st for saving, replacing any pending snapshot of the
// same player. It never blocks on the store.
func (q *SaveQueue) Enqueue(st combat.State) {
	q.mu.Lock()
	if _, ok := q.pending[st.ID]; !ok {
		q.order = append(q.order, st.ID)
	}
	q.pending[st.ID] = st
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the unsaved snapshot for id, if one is queued.
func (q *SaveQueue) Pending(id string) (combat.State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.pending[id]
	return st, ok
}

// Len returns the number of players with an unsaved snapshot.
func (q *SaveQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Flush saves every snapshot queued so far and returns how many were written.
// Failed saves are logged and dropped; a later Enqueue supersedes them.
func (q *SaveQueue) Flush(ctx context.Context) int {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	order, pending := q.order, q.pending
	q.order, q.pending = nil, make(map[string]combat.State, len(pending))
	q.mu.Unlock()

	saved := 0
	for _, id := range order {
		saveCtx, cancel := context.WithTimeout(ctx, q.timeout)
		err := q.store.Save(saveCtx, pending[id])
		cancel()
		if err != nil {
			q.logger.Warn("saving combat state",
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		saved++
	}
	return saved
}

// Run drains the queue whenever snapshots arrive until ctx is cancelled,
// then flushes what remains. Saves already started are not cut short by
// ctx; each is bounded by the queue's timeout instead.
//
// Postcondition: Returns ctx.Err().
func (q *SaveQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := q.Len(); n > 0 {
				saved := q.Flush(context.Background())
				q.logger.Info("final state flush", zap.Int("pending", n), zap.Int("saved", saved))
			}
			return ctx.Err()
		case <-q.wake:
			q.Flush(context.Background())
		}
	}
}
