package npc_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
	"github.com/cory-johannsen/combatcore/internal/game/npc"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

const wolfYAML = `id: wolf
name: Grey Wolf
description: A lean grey wolf with yellow eyes.
race: animal
max_health: 60
attack_strength: 90
defense_strength: 40
aggressive: true
attacks:
  - name: bite
    damage_type: puncture
    damage_factors: {1: 0.30, 5: 0.25}
    avd: {1: 35, 5: 30}
    roundtime: 4
  - name: claw
    damage_type: slash
    damage_factors: {1: 0.20}
    avd: {1: 30}
    roundtime: 3
attributes:
  agility: 70
skills:
  brawling: 20
stance: offensive
respawn_delay: 2m
loot:
  currency: {min: 1, max: 5}
  items:
    - item: wolf_pelt
      chance: 100
      min_qty: 1
      max_qty: 1
`

func newRegistry(t *testing.T) *armory.Registry {
	reg := armory.NewRegistry(zaptest.NewLogger(t))
	require.NoError(t, reg.RegisterWeapon(&armory.WeaponProfile{
		ID: "club", Name: "club", Skill: stats.BluntWeapons,
		DamageTypes:   []armory.DamageType{armory.Crush},
		DamageFactors: map[int]float64{1: 0.40},
		AvD:           map[int]int{1: 35},
		BaseRoundtime: 4,
	}))
	require.NoError(t, reg.RegisterArmor(&armory.ArmorProfile{ID: "hide", Name: "hide", Group: 5}))
	return reg
}

func makeTemplate(id string, respawnDelay string) *npc.Template {
	return &npc.Template{
		ID: id, Name: id, Description: "test",
		MaxHealth: 10, AttackStrength: 50, DefenseStrength: 20,
		RespawnDelay: respawnDelay,
	}
}

func TestLoadTemplates_ValidDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wolf.yaml"), []byte(wolfYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644))

	templates, err := npc.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	tmpl := templates[0]
	assert.Equal(t, "wolf", tmpl.ID)
	assert.Equal(t, 60, tmpl.MaxHealth)
	assert.Equal(t, 90, tmpl.AttackStrength)
	assert.True(t, tmpl.Aggressive)
	require.Len(t, tmpl.Attacks, 2)
	assert.Equal(t, armory.Puncture, tmpl.Attacks[0].DamageType)
	assert.Equal(t, 70, tmpl.Attributes[stats.Agility])
	assert.Equal(t, 20, tmpl.Skills[stats.Brawling])
	assert.Equal(t, 2*time.Minute, tmpl.Respawn())
	require.NotNil(t, tmpl.Loot)
	assert.Equal(t, 5, tmpl.Loot.Currency.Max)
}

func TestLoadTemplates_EmptyDir(t *testing.T) {
	templates, err := npc.LoadTemplates(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestLoadTemplates_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(":::invalid"), 0644))
	_, err := npc.LoadTemplates(dir)
	assert.Error(t, err)
}

func TestTemplate_Validate_CollectsViolations(t *testing.T) {
	tmpl := &npc.Template{ID: "x", MaxHealth: 0, AttackStrength: -1, Stance: "sideways", RespawnDelay: "soon"}
	err := tmpl.Validate()
	require.Error(t, err)
	for _, want := range []string{"name", "max_health", "attack_strength", "sideways", "respawn_delay"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestTemplate_Validate_RejectsBadSpecialAttack(t *testing.T) {
	tmpl := makeTemplate("bat", "")
	tmpl.Attacks = []npc.SpecialAttack{{Name: "bite", DamageType: armory.Puncture}}
	err := tmpl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attacks[0]")
}

func TestTemplate_Respawn_EmptyIsZero(t *testing.T) {
	assert.Zero(t, makeTemplate("x", "").Respawn())
}

func TestAttackProfile_Precedence(t *testing.T) {
	reg := newRegistry(t)
	tmpl, err := npc.LoadTemplateFromBytes([]byte(wolfYAML))
	require.NoError(t, err)

	bite := npc.AttackProfile(tmpl, reg, dice.NewSeededSource(1))
	assert.Equal(t, stats.Brawling, bite.Skill)
	assert.Contains(t, []string{"bite", "claw"}, bite.ID)

	tmpl.Weapon = "club"
	assert.Equal(t, "club", npc.AttackProfile(tmpl, reg, nil).ID)

	bare := makeTemplate("rat", "")
	assert.Same(t, armory.Unarmed, npc.AttackProfile(bare, reg, nil))
}

func TestSpecialAttack_ProfileCarriesTables(t *testing.T) {
	a := npc.SpecialAttack{
		Name: "sting", DamageType: armory.Puncture,
		DamageFactors: map[int]float64{1: 0.5}, AvD: map[int]int{1: 40}, Roundtime: 3,
	}
	p := a.Profile()
	require.NoError(t, p.Validate())
	assert.Equal(t, armory.Puncture, p.PrimaryDamageType())
	assert.Equal(t, 3, p.BaseRoundtime)
}

func TestNewInstance_BuildsStaticCombatant(t *testing.T) {
	reg := newRegistry(t)
	tmpl, err := npc.LoadTemplateFromBytes([]byte(wolfYAML))
	require.NoError(t, err)
	tmpl.Armor = "hide"

	inst := npc.NewInstance("wolf-1", tmpl, "glade", reg)
	c := inst.Combatant
	assert.Equal(t, combat.KindNPC, c.Kind)
	assert.Equal(t, 60, c.Health)
	assert.Equal(t, 60, c.MaxHealth)
	assert.Equal(t, "glade", inst.RoomID())
	require.NotNil(t, c.Static)
	assert.Equal(t, 90, c.Static.AttackStrength)
	assert.Equal(t, 40, c.Static.DefenseStrength)
	assert.Equal(t, stats.StanceOffensive, c.Stance)
	assert.Equal(t, 5, c.Equipment.Armor().Group)
	assert.Equal(t, "unharmed", inst.HealthDescription())
}

func TestInstance_PrepareAttack_SetsEquipment(t *testing.T) {
	reg := newRegistry(t)
	tmpl, err := npc.LoadTemplateFromBytes([]byte(wolfYAML))
	require.NoError(t, err)
	inst := npc.NewInstance("wolf-1", tmpl, "glade", reg)

	// The seeded source picks either attack; whichever it is must be worn.
	w := inst.PrepareAttack(dice.NewSeededSource(7))
	assert.Same(t, w, inst.Combatant.Equipment.Weapon())
}

func TestInstance_HealthDescription(t *testing.T) {
	inst := npc.NewInstance("r-1", makeTemplate("r", ""), "room", newRegistry(t))
	cases := []struct {
		hp   int
		want string
	}{
		{10, "unharmed"},
		{9, "barely scratched"},
		{6, "lightly wounded"},
		{4, "moderately wounded"},
		{2, "heavily wounded"},
		{1, "critically wounded"},
		{0, "dead"},
	}
	for _, tc := range cases {
		inst.Combatant.Health = tc.hp
		assert.Equal(t, tc.want, inst.HealthDescription(), "hp=%d", tc.hp)
	}
}

func TestManager_SpawnFindRemove(t *testing.T) {
	mgr := npc.NewManager(newRegistry(t))
	_, err := mgr.Spawn(nil, "r1")
	assert.Error(t, err)
	_, err = mgr.Spawn(makeTemplate("ganger", ""), "")
	assert.Error(t, err)

	a, err := mgr.Spawn(makeTemplate("ganger", ""), "r1")
	require.NoError(t, err)
	b, err := mgr.Spawn(makeTemplate("guard", ""), "r1")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	assert.Len(t, mgr.InstancesInRoom("r1"), 2)
	assert.Len(t, mgr.All(), 2)
	assert.Equal(t, b.ID, mgr.FindInRoom("r1", "GU").ID)
	assert.Nil(t, mgr.FindInRoom("r2", "gu"))

	b.Combatant.Dead = true
	assert.Nil(t, mgr.FindInRoom("r1", "gu"), "corpses are not targetable")

	require.NoError(t, mgr.Remove(a.ID))
	_, ok := mgr.Get(a.ID)
	assert.False(t, ok)
	assert.Error(t, mgr.Remove(a.ID))
}

type engagements map[string]bool

func (e engagements) InCombat(id string) bool { return e[id] }

func player(id, room string) *combat.Combatant {
	return &combat.Combatant{ID: id, Name: id, Kind: combat.KindPlayer, RoomID: room, Health: 10, MaxHealth: 10}
}

func TestSelectTarget(t *testing.T) {
	reg := newRegistry(t)
	tmpl := makeTemplate("wolf", "")
	tmpl.Aggressive = true
	inst := npc.NewInstance("wolf-1", tmpl, "glade", reg)

	far := player("a", "cave")
	dead := player("b", "glade")
	dead.Dead = true
	zed := player("z", "glade")
	mid := player("m", "glade")
	other := npc.NewInstance("fox-1", tmpl, "glade", reg).Combatant

	candidates := []*combat.Combatant{zed, other, far, dead, mid}
	assert.Same(t, mid, npc.SelectTarget(inst, candidates, engagements{}))
	assert.Nil(t, npc.SelectTarget(inst, candidates, engagements{"wolf-1": true}))

	tmpl.Aggressive = false
	assert.Nil(t, npc.SelectTarget(inst, candidates, engagements{}))
}

func TestGenerateLoot_Bounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(0, 50).Draw(rt, "lo")
		hi := lo + rapid.IntRange(0, 50).Draw(rt, "spread")
		chance := rapid.IntRange(1, 100).Draw(rt, "chance")
		lt := npc.LootTable{
			Currency: &npc.CurrencyDrop{Min: lo, Max: hi},
			Items:    []npc.ItemDrop{{ItemID: "gem", Chance: chance, MinQty: 1, MaxQty: 3}},
		}
		require.NoError(rt, lt.Validate())

		res := npc.GenerateLoot(lt, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		if hi > 0 {
			assert.GreaterOrEqual(rt, res.Currency, lo)
			assert.LessOrEqual(rt, res.Currency, hi)
		}
		for _, it := range res.Items {
			assert.Equal(rt, "gem", it.ItemDefID)
			assert.NotEmpty(rt, it.InstanceID)
			assert.GreaterOrEqual(rt, it.Quantity, 1)
			assert.LessOrEqual(rt, it.Quantity, 3)
		}
	})
}

func TestLootTable_Validate(t *testing.T) {
	assert.NoError(t, (&npc.LootTable{}).Validate())
	assert.Error(t, (&npc.LootTable{Currency: &npc.CurrencyDrop{Min: 5, Max: 1}}).Validate())
	assert.Error(t, (&npc.LootTable{Items: []npc.ItemDrop{{ItemID: "x", Chance: 0, MinQty: 1, MaxQty: 1}}}).Validate())
	assert.Error(t, (&npc.LootTable{Items: []npc.ItemDrop{{ItemID: "", Chance: 50, MinQty: 1, MaxQty: 1}}}).Validate())
	assert.Error(t, (&npc.LootTable{Items: []npc.ItemDrop{{ItemID: "x", Chance: 50, MinQty: 2, MaxQty: 1}}}).Validate())
}

func TestGenerateLoot_CertainDropAlwaysAppears(t *testing.T) {
	lt := npc.LootTable{Items: []npc.ItemDrop{{ItemID: "pelt", Chance: 100, MinQty: 2, MaxQty: 2}}}
	res := npc.GenerateLoot(lt, dice.NewSeededSource(3))
	require.Len(t, res.Items, 1)
	assert.Equal(t, 2, res.Items[0].Quantity)
	assert.Zero(t, res.Currency)
}
