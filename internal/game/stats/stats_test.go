package stats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{20, 2, 10},
		{21, 2, 10},
		{-1, 2, -1},
		{-2, 2, -1},
		{-3, 2, -2},
		{-9, 10, -1},
		{0, 7, 0},
		{7, -2, -4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stats.FloorDiv(tc.a, tc.b), "%d/%d", tc.a, tc.b)
	}
}

func TestAttribute_Value(t *testing.T) {
	a := stats.Attribute{Base: 60, Delta: -5}
	assert.Equal(t, 55, a.Value())
	assert.Equal(t, 70, stats.Flat(70).Value())
}

func TestSkillBonus_Bands(t *testing.T) {
	tests := []struct{ ranks, want int }{
		{-3, 0},
		{0, 0},
		{1, 5},
		{10, 50},
		{11, 54},
		{20, 90},
		{25, 105},
		{30, 120},
		{40, 140},
		{41, 141},
		{100, 200},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stats.SkillBonus(tc.ranks), "ranks=%d", tc.ranks)
	}
}

func TestSkillBonus_Property_MarginalValueNonIncreasing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.IntRange(1, 500).Draw(rt, "ranks")
		gain := stats.SkillBonus(r) - stats.SkillBonus(r-1)
		next := stats.SkillBonus(r+1) - stats.SkillBonus(r)
		assert.GreaterOrEqual(rt, gain, 1)
		assert.LessOrEqual(rt, next, gain)
	})
}

func TestRaceTable_StatBonus(t *testing.T) {
	var nilTable *stats.RaceTable
	assert.Equal(t, 15, nilTable.StatBonus(70, "human", stats.Strength))
	assert.Equal(t, 15, nilTable.StatBonus(70, "martian", stats.Strength))
	assert.Equal(t, -1, nilTable.StatBonus(49, "human", stats.Dexterity))

	table := stats.NewRaceTable(map[string]map[stats.Stat]int{
		"Dwarf": {stats.Strength: 10, stats.Agility: -5},
	})
	assert.Equal(t, 20, table.StatBonus(70, "dwarf", stats.Strength))
	assert.Equal(t, 5, table.StatBonus(70, "dwarf", stats.Agility))
	assert.Equal(t, 15, table.StatBonus(70, "gnoll", stats.Strength), "unknown race uses human")
	assert.True(t, table.Known("human"))
	assert.False(t, table.Known("gnoll"))
}

func TestLoadRaceTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "races.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`races:
  human: {strength: 5}
  elf: {dexterity: 5, agility: 15, discipline: -15}
`), 0o644))

	table, err := stats.LoadRaceTable(path)
	require.NoError(t, err)
	assert.Equal(t, 15, table.Modifier("elf", stats.Agility))
	assert.Equal(t, 0, table.Modifier("elf", stats.Strength))
	assert.Equal(t, 5, table.Modifier("human", stats.Strength))
}

func TestLoadRaceTable_UnknownStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "races.yaml")
	require.NoError(t, os.WriteFile(path, []byte("races:\n  elf: {charm: 3}\n"), 0o644))
	_, err := stats.LoadRaceTable(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charm")
}

func TestLoadRaceTable_MissingFile(t *testing.T) {
	_, err := stats.LoadRaceTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStance(t *testing.T) {
	assert.Equal(t, 1.0, stats.StanceOffensive.AttackMultiplier())
	assert.Equal(t, 0.5, stats.StanceDefensive.AttackMultiplier())
	assert.InDelta(t, 0.7, stats.StanceNeutral.AttackMultiplier(), 1e-9)
	assert.Equal(t, 45, stats.StanceGuarded.DefenseBonus())
	assert.Equal(t, 25, stats.StanceOffensive.DefenseBonus())
	assert.Equal(t, 50, stats.StanceDefensive.DefenseBonus())
	assert.Equal(t, "guarded", stats.StanceGuarded.String())
	assert.Equal(t, "55%", stats.Stance(55).String())
}

func TestParseStance(t *testing.T) {
	tests := []struct {
		in   string
		want stats.Stance
	}{
		{"offensive", stats.StanceOffensive},
		{"DEF", stats.StanceDefensive},
		{"adv", stats.StanceAdvance},
		{"f", stats.StanceForward},
		{" neutral ", stats.StanceNeutral},
		{"g", stats.StanceGuarded},
	}
	for _, tc := range tests {
		got, err := stats.ParseStance(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	_, err := stats.ParseStance("")
	assert.Error(t, err)
	_, err = stats.ParseStance("berserk")
	assert.Error(t, err)
}

func TestSpiritPercent(t *testing.T) {
	tests := []struct{ cur, max, want int }{
		{10, 10, 100},
		{8, 10, 100},
		{7, 10, 80},
		{5, 10, 80},
		{4, 10, 65},
		{3, 12, 65},
		{2, 10, 50},
		{0, 10, 50},
		{-1, 10, 50},
		{0, 0, 100},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stats.SpiritPercent(tc.cur, tc.max), "%d/%d", tc.cur, tc.max)
	}
}

func TestMaxSpirit(t *testing.T) {
	assert.Equal(t, 10, stats.MaxSpirit(0))
	assert.Equal(t, 11, stats.MaxSpirit(15))
	assert.Equal(t, 9, stats.MaxSpirit(-1))
	assert.Equal(t, 13, stats.MaxSpirit(200))
	assert.Equal(t, 1, stats.MaxSpirit(-500))
}

func TestAttackStrength_NeutralHumanScenario(t *testing.T) {
	var races *stats.RaceTable
	in := stats.AttackInputs{
		StrengthBonus: races.StatBonus(70, "human", stats.Strength),
		WeaponRanks:   25,
		ManeuverRanks: 10,
		Stance:        stats.StanceNeutral,
		Spirit:        10,
		MaxSpirit:     10,
	}
	assert.Equal(t, 125, in.Base())
	assert.Equal(t, 87, stats.AttackStrength(in))
}

func TestAttackStrength_Property_NeverExceedsBase(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := stats.AttackInputs{
			StrengthBonus: rapid.IntRange(0, 60).Draw(rt, "str"),
			WeaponRanks:   rapid.IntRange(0, 100).Draw(rt, "weapon"),
			ManeuverRanks: rapid.IntRange(0, 100).Draw(rt, "cm"),
			Stance:        stats.Stance(rapid.SampledFrom([]int{0, 20, 40, 60, 80, 100}).Draw(rt, "stance")),
			Spirit:        rapid.IntRange(0, 13).Draw(rt, "spirit"),
			MaxSpirit:     13,
		}
		as := stats.AttackStrength(in)
		assert.LessOrEqual(rt, as, in.Base())
		assert.GreaterOrEqual(rt, as, in.Base()/4)
	})
}
