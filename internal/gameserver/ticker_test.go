package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
)

func TestNewTicker_PanicsOnZeroInterval(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	assert.Panics(t, func() { NewTicker(f.handler, 0, 0, zaptest.NewLogger(t)) })
}

func TestTicker_AggressiveNPCEngagesAndWaitsOutRoundtime(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	hero := f.join(t, fighter("p1", "Aldric"), "arena")
	rat := f.spawnRat(t)
	rat.Template.Aggressive = true
	tk := NewTicker(f.handler, time.Second, 0, zaptest.NewLogger(t))

	sum := tk.Tick(epoch)
	assert.Equal(t, 1, sum.Attacks)
	assert.True(t, f.engine.InCombat(hero.ID))
	assert.Equal(t, []string{rat.ID}, f.engine.Opponents(hero.ID))
	attacks := f.log.ofType(EventAttack)
	require.Len(t, attacks, 1)
	assert.Equal(t, "rat", attacks[0].Attacker)
	assert.Contains(t, attacks[0].Narrative, "bare hands")

	sum = tk.Tick(epoch.Add(time.Second))
	assert.Zero(t, sum.Attacks, "unarmed roundtime is two ticks")

	sum = tk.Tick(epoch.Add(2 * time.Second))
	assert.Equal(t, 1, sum.Attacks, "an engaged NPC keeps attacking its opponent")
}

func TestTicker_PassiveNPCOnlyFightsBack(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	f.join(t, fighter("p1", "Aldric"), "arena")
	f.spawnRat(t)
	tk := NewTicker(f.handler, time.Second, 0, zaptest.NewLogger(t))

	assert.Zero(t, tk.Tick(epoch).Attacks)

	_, err := f.handler.Attack("p1", "rat")
	require.NoError(t, err)
	assert.Equal(t, 1, tk.Tick(epoch.Add(time.Second)).Attacks)
}

func TestTicker_BleedToDeathLeavesRemains(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	hero := f.join(t, fighter("p1", "Aldric"), "arena")
	hero.Lock()
	hero.Health = 2
	hero.Wounds.Apply(critical.Neck, 3, epoch)
	hero.Unlock()
	tk := NewTicker(f.handler, time.Second, 0, zaptest.NewLogger(t))

	sum := tk.Tick(epoch)
	assert.Equal(t, 1, sum.Bled)
	assert.Equal(t, 1, sum.Deaths)

	bleeds := f.log.ofType(EventBleed)
	require.Len(t, bleeds, 1)
	assert.Equal(t, "Blood seeps from Aldric's neck.", bleeds[0].Narrative)
	deaths := f.log.ofType(EventDeath)
	require.Len(t, deaths, 1)
	assert.Equal(t, "Aldric collapses, having bled to death.", deaths[0].Narrative)
	assert.Empty(t, deaths[0].Attacker)

	st := hero.Snapshot()
	assert.True(t, st.Dead)
	assert.Zero(t, st.Health)
	f.flush(t)
	assert.True(t, f.store.states["p1"].Dead, "death is persisted")
	require.Len(t, f.rooms.Remains("arena"), 1)

	_, ok := f.engine.Get("p1")
	assert.True(t, ok, "dead players stay registered")
	assert.Equal(t, TickSummary{}, tk.Tick(epoch.Add(time.Second)))
}

func TestTicker_KnockedDownPlayerStands(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	hero := f.join(t, fighter("p1", "Aldric"), "arena")
	hero.Lock()
	hero.Prone = true
	hero.CombatData.Lag = 2 * time.Second
	hero.Unlock()
	tk := NewTicker(f.handler, time.Second, 0, zaptest.NewLogger(t))

	assert.Zero(t, tk.Tick(epoch).Stood)
	assert.True(t, hero.Snapshot().Prone)

	assert.Equal(t, 1, tk.Tick(epoch.Add(time.Second)).Stood)
	assert.False(t, hero.Snapshot().Prone)
	stands := f.log.ofType(EventStand)
	require.Len(t, stands, 1)
	assert.Equal(t, "Aldric scrambles back to their feet.", stands[0].Narrative)
	f.flush(t)
	assert.False(t, f.store.states["p1"].Prone)
}

func TestTicker_SlowStoreDoesNotStallTick(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	for _, id := range []string{"p1", "p2", "p3"} {
		c := f.join(t, fighter(id, "Bleeder "+id), "arena")
		c.Lock()
		c.Wounds.Apply(critical.Neck, 2, epoch)
		c.Unlock()
	}
	f.store.block = make(chan struct{})
	tk := NewTicker(f.handler, time.Second, 0, zaptest.NewLogger(t))

	start := time.Now()
	sum := tk.Tick(epoch)
	elapsed := time.Since(start)

	assert.Equal(t, 3, sum.Bled)
	assert.Less(t, elapsed, time.Second, "a tick must finish within its interval")
	assert.Equal(t, 3, f.handler.Saves().Len())
	assert.Zero(t, f.store.saved())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.handler.Saves().Run(ctx) }()
	close(f.store.block)
	assert.Eventually(t, func() bool { return f.store.saved() == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestTicker_RespawnAndDecay(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{39, 8210}}, nil)
	f.join(t, fighter("p1", "Aldric"), "arena")
	f.spawnRat(t)
	_, err := f.handler.Attack("p1", "rat")
	require.NoError(t, err)
	require.Empty(t, f.npcMgr.InstancesInRoom("arena"))
	require.Len(t, f.rooms.Remains("arena"), 1)

	tk := NewTicker(f.handler, time.Second, 90*time.Second, zaptest.NewLogger(t))

	sum := tk.Tick(epoch.Add(30 * time.Second))
	assert.Zero(t, sum.Spawned)
	assert.Zero(t, sum.Decayed)

	sum = tk.Tick(epoch.Add(time.Minute))
	assert.Equal(t, 1, sum.Spawned)
	insts := f.npcMgr.InstancesInRoom("arena")
	require.Len(t, insts, 1)
	_, ok := f.engine.Get(insts[0].ID)
	assert.True(t, ok, "respawned NPCs join the engine")
	assert.Contains(t, f.rooms.Occupants("arena"), insts[0].ID)
	spawns := f.log.ofType(EventSpawn)
	require.Len(t, spawns, 1)
	assert.Equal(t, "rat arrives.", spawns[0].Narrative)

	sum = tk.Tick(epoch.Add(90 * time.Second))
	assert.Equal(t, 1, sum.Decayed)
	assert.Empty(t, f.rooms.Remains("arena"))
}

func TestTicker_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, &scriptedSource{vals: []int{0}}, nil)
	hero := f.join(t, fighter("p1", "Aldric"), "arena")
	hero.Lock()
	hero.CombatData.Lag = 3 * time.Second
	hero.Unlock()
	tk := NewTicker(f.handler, 10*time.Millisecond, 0, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx) }()

	assert.Eventually(t, func() bool { return !f.engine.Blocked(hero) }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop")
	}
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "", joinList(nil))
	assert.Equal(t, "neck", joinList([]string{"neck"}))
	assert.Equal(t, "neck and head", joinList([]string{"neck", "head"}))
	assert.Equal(t, "back, chest and neck", joinList([]string{"back", "chest", "neck"}))
}

func TestBleedEvent_NoLocations(t *testing.T) {
	c := fighter("p1", "Aldric")
	ev := bleedEvent("arena", c, combat.TickReport{})
	assert.Equal(t, "Aldric bleeds.", ev.Narrative)
	assert.Equal(t, EventBleed, ev.Type)
}
