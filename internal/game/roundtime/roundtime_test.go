package roundtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatcore/internal/game/roundtime"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestScheduler_TickFloorsAtZero(t *testing.T) {
	s := roundtime.NewScheduler(time.Second)
	st := &roundtime.State{}
	s.AddLag(st, 2500*time.Millisecond, now)
	assert.Equal(t, now, st.RoundStarted)

	assert.False(t, s.Tick(st))
	assert.Equal(t, 1500*time.Millisecond, st.Lag)
	assert.False(t, s.Tick(st))
	assert.True(t, s.Tick(st))
	assert.Zero(t, st.Lag)
	assert.False(t, s.Tick(st))
	assert.Zero(t, st.Lag)
}

func TestScheduler_AddLagIsAdditive(t *testing.T) {
	s := roundtime.NewScheduler(0)
	assert.Equal(t, roundtime.DefaultInterval, s.Interval())
	st := &roundtime.State{}
	s.AddLag(st, 3*time.Second, now)
	s.AddLag(st, 2*time.Second, now.Add(time.Second))
	s.AddLag(st, -10*time.Second, now)
	assert.Equal(t, 5*time.Second, st.Lag)
	assert.Equal(t, now, st.RoundStarted, "round start is kept while lagged")
}

func TestScheduler_Blocked(t *testing.T) {
	s := roundtime.NewScheduler(time.Second)
	st := &roundtime.State{}
	assert.False(t, s.Blocked(st, roundtime.ActionAttack))
	s.AddLag(st, time.Second, now)
	assert.True(t, s.Blocked(st, roundtime.ActionAttack))
	assert.True(t, s.Blocked(st, roundtime.ActionStance))
	assert.False(t, s.Blocked(st, roundtime.ActionTend))
}

func TestScheduler_Property_LagNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := roundtime.NewScheduler(time.Second)
		st := &roundtime.State{}
		steps := rapid.SliceOf(rapid.IntRange(-5000, 5000)).Draw(rt, "steps")
		for _, ms := range steps {
			before := st.Lag
			if ms%2 == 0 {
				s.AddLag(st, time.Duration(ms)*time.Millisecond, now)
				assert.GreaterOrEqual(rt, st.Lag, before)
			} else {
				s.Tick(st)
			}
			assert.GreaterOrEqual(rt, st.Lag, time.Duration(0))
		}
	})
}

func TestCompute(t *testing.T) {
	b := roundtime.Compute(roundtime.Inputs{
		WeaponBase:         5 * time.Second,
		ArmorPenalty:       3 * time.Second,
		ArmorRanks:         40,
		EncumbrancePercent: 25,
		StunRounds:         2,
	})
	assert.Equal(t, roundtime.Breakdown{
		Weapon:      5 * time.Second,
		Armor:       time.Second,
		Encumbrance: time.Second,
		Stun:        10 * time.Second,
	}, b)
	assert.Equal(t, 17*time.Second, b.Total())
}

func TestCompute_TwoHanded(t *testing.T) {
	b := roundtime.Compute(roundtime.Inputs{WeaponBase: 7 * time.Second, TwoHanded: true, TwoHandedRanks: 45})
	assert.Equal(t, 5*time.Second, b.Weapon)

	b = roundtime.Compute(roundtime.Inputs{WeaponBase: 2 * time.Second, TwoHanded: true, TwoHandedRanks: 200})
	assert.Equal(t, 500*time.Millisecond, b.Weapon)

	b = roundtime.Compute(roundtime.Inputs{WeaponBase: 7 * time.Second, TwoHandedRanks: 200})
	assert.Equal(t, 7*time.Second, b.Weapon, "one-handed weapons ignore two-handed ranks")
}

func TestCompute_ArmorFloorsAtZero(t *testing.T) {
	b := roundtime.Compute(roundtime.Inputs{ArmorPenalty: 2 * time.Second, ArmorRanks: 100})
	assert.Zero(t, b.Armor)
}

func TestCompute_Property_NonNegativeAndAdditive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := roundtime.Inputs{
			WeaponBase:         time.Duration(rapid.IntRange(0, 10).Draw(rt, "weapon")) * time.Second,
			TwoHanded:          rapid.Bool().Draw(rt, "two_handed"),
			TwoHandedRanks:     rapid.IntRange(0, 200).Draw(rt, "th_ranks"),
			ArmorPenalty:       time.Duration(rapid.IntRange(0, 10).Draw(rt, "armor")) * time.Second,
			ArmorRanks:         rapid.IntRange(0, 200).Draw(rt, "armor_ranks"),
			EncumbrancePercent: rapid.IntRange(-10, 100).Draw(rt, "enc"),
			StunRounds:         rapid.IntRange(0, 5).Draw(rt, "stun"),
		}
		b := roundtime.Compute(in)
		for _, d := range []time.Duration{b.Weapon, b.Armor, b.Encumbrance, b.Stun} {
			assert.GreaterOrEqual(rt, d, time.Duration(0))
		}
		assert.Equal(rt, b.Weapon+b.Armor+b.Encumbrance+b.Stun, b.Total())
	})
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 2.5, roundtime.Seconds(2500*time.Millisecond))
	assert.Equal(t, 3.0, roundtime.Seconds(3*time.Second))
}
