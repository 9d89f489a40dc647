// Package combat resolves attacks between combatants: attack and defense
// strength, the d100 exchange, criticals, wounds and the roundtime each action
// costs. Every mutation of a Combatant happens under that combatant's lock.
package combat

import (
	"sync"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/roundtime"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
	"github.com/cory-johannsen/combatcore/internal/game/wound"
)

// Kind distinguishes player combatants from NPC combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

func (k Kind) String() string {
	if k == KindNPC {
		return "npc"
	}
	return "player"
}

// DefaultStat is the value of an attribute a combatant does not define.
const DefaultStat = 50

// Equipment is the read-only view of what a combatant wields and wears.
// A nil return means the slot is empty.
type Equipment interface {
	Weapon() *armory.WeaponProfile
	Armor() *armory.ArmorProfile
	Shield() *armory.ShieldProfile
}

// Gear is an Equipment holding resolved profiles.
type Gear struct {
	WeaponProfile *armory.WeaponProfile
	ArmorProfile  *armory.ArmorProfile
	ShieldProfile *armory.ShieldProfile
}

func (g Gear) Weapon() *armory.WeaponProfile { return g.WeaponProfile }
func (g Gear) Armor() *armory.ArmorProfile   { return g.ArmorProfile }
func (g Gear) Shield() *armory.ShieldProfile { return g.ShieldProfile }

// Loadout is an Equipment naming items by ID, resolved through an armory
// Registry on every read so missing bases fall back per the registry rules.
type Loadout struct {
	Registry *armory.Registry
	WeaponID string
	ArmorID  string
	ShieldID string
}

// Weapon returns nil when nothing is wielded.
func (l Loadout) Weapon() *armory.WeaponProfile {
	if l.WeaponID == "" {
		return nil
	}
	return l.Registry.Weapon(l.WeaponID)
}

func (l Loadout) Armor() *armory.ArmorProfile   { return l.Registry.Armor(l.ArmorID) }
func (l Loadout) Shield() *armory.ShieldProfile { return l.Registry.Shield(l.ShieldID) }

// StaticProfile supplies fixed attack and defense strengths in place of
// skill-derived values. NPC combatants carry one.
type StaticProfile struct {
	AttackStrength  int
	DefenseStrength int
}

// Combatant is one participant in combat: a player or an NPC instance.
//
// Fields other than ID, Name and Kind must only be read or written while the
// combatant is locked; the Engine does this for every operation it performs.
type Combatant struct {
	mu sync.Mutex

	ID     string
	Name   string
	Kind   Kind
	RoomID string
	Race   string

	Attributes map[stats.Stat]stats.Attribute
	Skills     map[stats.Skill]int
	Equipment  Equipment
	Stance     stats.Stance
	// Static, when set, replaces derived AS and DS.
	Static *StaticProfile

	Health    int
	MaxHealth int
	Spirit    int
	MaxSpirit int
	// Encumbrance is carried load as a percent of capacity.
	Encumbrance int

	CombatData roundtime.State
	Wounds     *wound.Set
	// Amputations marks severed locations. The engine only records them;
	// equipment providers consult them to refuse gear for a missing limb.
	Amputations map[critical.BodyPart]bool
	// Prone is set by a knockdown and cleared by Tick once lag runs out.
	Prone bool
	Dead  bool
}

// Lock acquires the combatant's lock.
func (c *Combatant) Lock() { c.mu.Lock() }

// Unlock releases the combatant's lock.
func (c *Combatant) Unlock() { c.mu.Unlock() }

// IsPlayer reports whether this combatant is a player character.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// IsDead reports whether the combatant is dead.
func (c *Combatant) IsDead() bool { return c.Dead }

// Stat returns the effective value of s, or DefaultStat when undefined.
func (c *Combatant) Stat(s stats.Stat) int {
	a, ok := c.Attributes[s]
	if !ok {
		return DefaultStat
	}
	return a.Value()
}

// Ranks returns the trained ranks in skill.
func (c *Combatant) Ranks(skill stats.Skill) int {
	return c.Skills[skill]
}

// Weapon returns the wielded weapon profile, or nil when unarmed.
func (c *Combatant) Weapon() *armory.WeaponProfile {
	if c.Equipment == nil {
		return nil
	}
	return c.Equipment.Weapon()
}

// Armor returns the worn armor profile, or armory.Unarmored.
func (c *Combatant) Armor() *armory.ArmorProfile {
	if c.Equipment == nil {
		return armory.Unarmored
	}
	if a := c.Equipment.Armor(); a != nil {
		return a
	}
	return armory.Unarmored
}

// Shield returns the off-hand shield profile, or nil.
func (c *Combatant) Shield() *armory.ShieldProfile {
	if c.Equipment == nil {
		return nil
	}
	return c.Equipment.Shield()
}

// ApplyDamage reduces Health by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: Health >= 0. Returns true iff Health reached zero.
func (c *Combatant) ApplyDamage(amount int) bool {
	c.Health = max(0, c.Health-max(0, amount))
	return c.Health == 0
}

// InitSpirit sets MaxSpirit from the aura stat bonus and fills Spirit.
func (c *Combatant) InitSpirit(races *stats.RaceTable) {
	c.MaxSpirit = stats.MaxSpirit(races.StatBonus(c.Stat(stats.Aura), c.Race, stats.Aura))
	c.Spirit = c.MaxSpirit
}

// ensure lazily initialises the mutable collections.
func (c *Combatant) ensure() {
	if c.Wounds == nil {
		c.Wounds = wound.NewSet()
	}
	if c.Amputations == nil {
		c.Amputations = make(map[critical.BodyPart]bool)
	}
}
