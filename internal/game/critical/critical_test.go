package critical_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
)

// fixedSource always returns val, clamped to [0, n).
type fixedSource struct{ val int }

func (f fixedSource) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

func TestSelectBodyPart_Boundaries(t *testing.T) {
	tests := []struct {
		draw int
		want critical.BodyPart
	}{
		{0, critical.LeftArm},
		{984, critical.LeftArm},
		{985, critical.RightArm},
		{1970, critical.LeftLeg},
		{3620, critical.Chest},
		{5090, critical.Abdomen},
		{6300, critical.Back},
		{7310, critical.LeftHand},
		{8210, critical.Neck},
		{8950, critical.LeftEye},
		{9215, critical.RightEye},
		{9479, critical.RightEye},
		{9480, critical.Head},
		{9999, critical.Head},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, critical.SelectBodyPart(fixedSource{tc.draw}), "draw=%d", tc.draw)
	}
}

func TestSelectBodyPart_Distribution(t *testing.T) {
	src := dice.NewSeededSource(42)
	counts := map[critical.BodyPart]int{}
	const n = 200000
	for range n {
		counts[critical.SelectBodyPart(src)]++
	}
	for _, p := range critical.AllBodyParts {
		want := float64(critical.Weight(p)) / 10000
		got := float64(counts[p]) / n
		assert.InDelta(t, want, got, 0.005, "part=%s", p)
	}
}

func TestDivisorAndRank(t *testing.T) {
	assert.Equal(t, 5, critical.Divisor(1))
	assert.Equal(t, 5, critical.Divisor(4))
	assert.Equal(t, 6, critical.Divisor(5))
	assert.Equal(t, 7, critical.Divisor(12))
	assert.Equal(t, 9, critical.Divisor(13))
	assert.Equal(t, 11, critical.Divisor(20))

	assert.Equal(t, 1, critical.Rank(5, 0, 0, 1))
	assert.Equal(t, 0, critical.Rank(4, 0, 0, 1))
	assert.Equal(t, 0, critical.Rank(3, 10, 0, 1))
	assert.Equal(t, 1, critical.Rank(10, 4, 3, 5))
	assert.Equal(t, 2, critical.Rank(15, 4, 1, 5))
	assert.Equal(t, 9, critical.Rank(10000, 0, 0, 20))
}

func TestRank_Property_Clamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.IntRange(-1000, 100000).Draw(rt, "raw")
		padding := rapid.IntRange(0, 50).Draw(rt, "padding")
		weighting := rapid.IntRange(-20, 20).Draw(rt, "weighting")
		group := rapid.IntRange(1, 20).Draw(rt, "group")
		r := critical.Rank(raw, padding, weighting, group)
		assert.GreaterOrEqual(rt, r, 0)
		assert.LessOrEqual(rt, r, critical.MaxRank)
	})
}

func TestWoundRank(t *testing.T) {
	want := []int{0, 1, 1, 2, 2, 2, 2, 3, 3, 3}
	for rank, w := range want {
		assert.Equal(t, w, critical.WoundRank(rank), "rank=%d", rank)
	}
}

func TestParseEffect(t *testing.T) {
	tests := []struct {
		code string
		want critical.Effect
	}{
		{"S3", critical.Stun(3)},
		{"s1", critical.Stun(1)},
		{"F", critical.Fatal},
		{"K", critical.Knockdown},
		{"A", critical.Amputation},
		{"NK", critical.NoKnockdown},
	}
	for _, tc := range tests {
		got, err := critical.ParseEffect(tc.code)
		require.NoError(t, err, tc.code)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.want.String(), got.String())
	}
	for _, bad := range []string{"", "S", "S0", "Sx", "Q"} {
		_, err := critical.ParseEffect(bad)
		assert.Error(t, err, bad)
	}
}

func newEngine(t *testing.T) *critical.Engine {
	t.Helper()
	table := critical.NewTable()
	require.NoError(t, table.Add(armory.Slash, critical.Chest, &critical.Entry{
		Rank: 1, Damage: 2, Message: "A shallow cut across {target}'s chest.",
	}))
	require.NoError(t, table.Add(armory.Slash, critical.Neck, &critical.Entry{
		Rank: 2, Damage: 8, Message: "{target}'s throat is opened!",
		Effects: []critical.Effect{critical.Fatal},
	}))
	require.NoError(t, table.Add(armory.Crush, critical.Head, &critical.Entry{
		Rank: 4, Damage: 12, Message: "{target} reels from a blow to the head.",
		Effects: []critical.Effect{critical.Stun(2), critical.Knockdown, critical.NoKnockdown},
		Wounds:  map[critical.BodyPart]int{critical.Head: 3, critical.Neck: 1},
	}))
	th := critical.Thresholds{
		armory.Slash: {critical.Eye: 3, critical.Neck: 6},
	}
	return critical.NewEngine(table, th, nil)
}

func TestDetermine_RankOneScenario(t *testing.T) {
	eng := newEngine(t)
	res := eng.Determine(critical.Input{
		DamageType: armory.Slash, RawDamage: 5, ArmorGroup: 1, Part: critical.Chest,
	}, nil)
	assert.Equal(t, 1, res.Rank)
	assert.False(t, res.Synthesized)
	assert.Equal(t, "A shallow cut across Bob's chest.", res.Entry.Render("Bob"))
	assert.Equal(t, 7, res.TotalDamage)
	assert.False(t, res.Fatal)
	assert.Equal(t, map[critical.BodyPart]int{critical.Chest: 1}, res.Wounds)
}

func TestDetermine_FatalEffectBelowThreshold(t *testing.T) {
	res := newEngine(t).Determine(critical.Input{
		DamageType: armory.Slash, RawDamage: 10, ArmorGroup: 1, Part: critical.Neck,
	}, nil)
	assert.Equal(t, 2, res.Rank)
	assert.True(t, res.Fatal)
	assert.Equal(t, critical.CauseEffect, res.FatalCause)
}

func TestDetermine_ThresholdOnSimplifiedEye(t *testing.T) {
	res := newEngine(t).Determine(critical.Input{
		DamageType: armory.Slash, RawDamage: 15, ArmorGroup: 1, Part: critical.RightEye,
	}, nil)
	assert.Equal(t, 3, res.Rank)
	assert.True(t, res.Synthesized)
	assert.Equal(t, 15, res.Entry.Damage)
	assert.Equal(t, 30, res.TotalDamage)
	assert.True(t, res.Fatal)
	assert.Equal(t, critical.CauseThreshold, res.FatalCause)
}

func TestDetermine_NoThresholdNeverFatal(t *testing.T) {
	res := newEngine(t).Determine(critical.Input{
		DamageType: armory.Puncture, RawDamage: 1000, ArmorGroup: 1, Part: critical.Back,
	}, nil)
	assert.Equal(t, critical.MaxRank, res.Rank)
	assert.False(t, res.Fatal)
	assert.Equal(t, critical.CauseNone, res.FatalCause)
	assert.Equal(t, map[critical.BodyPart]int{critical.Back: 3}, res.Wounds)
}

func TestDetermine_EffectsAndWoundHints(t *testing.T) {
	res := newEngine(t).Determine(critical.Input{
		DamageType: armory.Crush, RawDamage: 20, ArmorGroup: 1, Part: critical.Head,
	}, nil)
	assert.Equal(t, 4, res.Rank)
	assert.Equal(t, 2, res.StunRounds)
	assert.False(t, res.Knockdown, "NK suppresses knockdown")
	assert.Equal(t, map[critical.BodyPart]int{critical.Head: 3, critical.Neck: 1}, res.Wounds)
}

func TestDetermine_RankZeroNoWound(t *testing.T) {
	res := newEngine(t).Determine(critical.Input{
		DamageType: armory.Slash, RawDamage: 2, ArmorGroup: 1,
	}, fixedSource{0})
	assert.Equal(t, critical.LeftArm, res.Part)
	assert.Equal(t, 0, res.Rank)
	assert.Empty(t, res.Wounds)
}

func TestLoadTable_AliasExpansion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slash.yaml"), []byte(`damage_type: slash
locations:
  arm:
    - rank: 0
      damage: 0
      message: "A light scratch to {target}'s {side} arm."
    - rank: 6
      damage: 20
      message: "{target}'s {side} arm is severed!"
      effects: [A, S2]
      wounds: {arm: 3, chest: 1}
  neck:
    - rank: 9
      damage: 50
      message: "{target} is decapitated!"
      effects: [F]
`), 0o644))
	table, err := critical.LoadTable(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())

	left, ok := table.Lookup(armory.Slash, critical.LeftArm, 0)
	require.True(t, ok)
	assert.Equal(t, "A light scratch to Ann's left arm.", left.Render("Ann"))

	right, ok := table.Lookup(armory.Slash, critical.RightArm, 6)
	require.True(t, ok)
	assert.True(t, right.Has(critical.EffectAmputation))
	assert.Equal(t, 2, right.StunRounds())
	assert.Equal(t, map[critical.BodyPart]int{critical.RightArm: 3, critical.Chest: 1}, right.Wounds)

	neck, ok := table.Lookup(armory.Slash, critical.Neck, 9)
	require.True(t, ok)
	assert.True(t, neck.Has(critical.EffectFatal))
}

func TestLoadTable_BadEffectCode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crush.yaml"), []byte(`damage_type: crush
locations:
  head:
    - rank: 1
      message: "x"
      effects: [Z9]
`), 0o644))
	_, err := critical.LoadTable(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Z9")
}

func TestLoadThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fatal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slash:\n  neck: 6\n  eye: 8\ncrush:\n  head: 7\n"), 0o644))
	th, err := critical.LoadThresholds(path)
	require.NoError(t, err)

	r, ok := th.Threshold(armory.Slash, critical.LeftEye)
	assert.True(t, ok)
	assert.Equal(t, 8, r)
	_, ok = th.Threshold(armory.Puncture, critical.Neck)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("slash:\n  tail: 3\n"), 0o644))
	_, err = critical.LoadThresholds(path)
	assert.Error(t, err)
}
