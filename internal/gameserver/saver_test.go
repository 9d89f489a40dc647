package gameserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
)

func TestNewSaveQueue_PanicsOnZeroTimeout(t *testing.T) {
	assert.Panics(t, func() { NewSaveQueue(newMemStore(), 0, zaptest.NewLogger(t)) })
}

func TestSaveQueue_KeepsNewestSnapshotPerPlayer(t *testing.T) {
	store := newMemStore()
	q := NewSaveQueue(store, time.Second, zaptest.NewLogger(t))

	q.Enqueue(combat.State{ID: "p1", Health: 90})
	q.Enqueue(combat.State{ID: "p2", Health: 80})
	q.Enqueue(combat.State{ID: "p1", Health: 70})
	assert.Equal(t, 2, q.Len())
	st, ok := q.Pending("p1")
	require.True(t, ok)
	assert.Equal(t, 70, st.Health)

	assert.Equal(t, 2, q.Flush(context.Background()))
	assert.Equal(t, 2, store.saved())
	assert.Equal(t, 70, store.states["p1"].Health)
	assert.Equal(t, 80, store.states["p2"].Health)
	_, ok = q.Pending("p1")
	assert.False(t, ok)
}

func TestSaveQueue_FailedSaveIsDropped(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	q := NewSaveQueue(store, time.Second, zaptest.NewLogger(t))

	q.Enqueue(combat.State{ID: "p1", Health: 90})
	assert.Zero(t, q.Flush(context.Background()))
	assert.Zero(t, q.Len())
}

func TestSaveQueue_SaveTimesOut(t *testing.T) {
	store := newMemStore()
	store.block = make(chan struct{})
	q := NewSaveQueue(store, 20*time.Millisecond, zaptest.NewLogger(t))

	q.Enqueue(combat.State{ID: "p1"})
	q.Enqueue(combat.State{ID: "p2"})
	start := time.Now()
	assert.Zero(t, q.Flush(context.Background()))
	assert.Less(t, time.Since(start), time.Second, "each save is bounded by the timeout")
}

func TestSaveQueue_RunFlushesOnCancel(t *testing.T) {
	store := newMemStore()
	store.block = make(chan struct{})
	q := NewSaveQueue(store, time.Second, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	// The first save parks in the store; the second waits behind it.
	q.Enqueue(combat.State{ID: "p1", Health: 10})
	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
	q.Enqueue(combat.State{ID: "p2", Health: 20})
	cancel()
	close(store.block)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("save queue did not stop")
	}
	assert.Equal(t, 20, store.states["p2"].Health, "pending snapshots are written before Run returns")
}
