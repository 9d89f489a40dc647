package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/combatcore/internal/config"
	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
)

func TestCombatMetrics_CountsEvents(t *testing.T) {
	p := NewMetricsProvider(config.MetricsConfig{Enabled: true, Interval: time.Second}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := NewCombatMetrics(p.Meter())
	require.NoError(t, err)

	m.Attack(combat.KindPlayer, true)
	m.Attack(combat.KindNPC, false)
	m.Critical(critical.Chest, 3)
	m.Critical(critical.Chest, 0)
	m.Death(combat.KindNPC, "critical")
	m.Bleed(4)
	m.Bleed(0)

	totals, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals["combat.attacks"])
	assert.Equal(t, int64(1), totals["combat.hits"])
	assert.Equal(t, int64(1), totals["combat.criticals"])
	assert.Equal(t, int64(1), totals["combat.deaths"])
	assert.Equal(t, int64(4), totals["combat.bleed_damage"])
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	p := NewMetricsProvider(config.MetricsConfig{}, zaptest.NewLogger(t))
	m, err := NewCombatMetrics(p.Meter())
	require.NoError(t, err)
	m.Attack(combat.KindPlayer, true)

	totals, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, totals)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestMetricsProvider_RunStopsOnCancel(t *testing.T) {
	p := NewMetricsProvider(config.MetricsConfig{Enabled: true, Interval: 5 * time.Millisecond}, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
