package npc

import (
	"time"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// Instance is a live NPC occupying a room. Its combat state lives in
// Combatant and is guarded by the combatant's lock.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateID is the source template's ID.
	TemplateID string
	Name       string
	// Template is shared and read-only.
	Template  *Template
	Combatant *combat.Combatant

	registry *armory.Registry
	armor    *armory.ArmorProfile
}

// NewInstance creates a live NPC instance from a template, placed in roomID.
//
// Precondition: id must be non-empty; tmpl and reg must be non-nil; roomID must be non-empty.
// Postcondition: Combatant.Health equals tmpl.MaxHealth and the combatant
// carries the template's static AS/DS.
func NewInstance(id string, tmpl *Template, roomID string, reg *armory.Registry) *Instance {
	attrs := make(map[stats.Stat]stats.Attribute, len(tmpl.Attributes))
	for s, v := range tmpl.Attributes {
		attrs[s] = stats.Flat(v)
	}
	skills := make(map[stats.Skill]int, len(tmpl.Skills))
	for s, v := range tmpl.Skills {
		skills[s] = v
	}
	stance := stats.StanceNeutral
	if tmpl.Stance != "" {
		if st, err := stats.ParseStance(tmpl.Stance); err == nil {
			stance = st
		}
	}
	inst := &Instance{
		ID:         id,
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		Template:   tmpl,
		registry:   reg,
		armor:      reg.Armor(tmpl.Armor),
	}
	inst.Combatant = &combat.Combatant{
		ID:         id,
		Name:       tmpl.Name,
		Kind:       combat.KindNPC,
		RoomID:     roomID,
		Race:       tmpl.Race,
		Attributes: attrs,
		Skills:     skills,
		Stance:     stance,
		Static: &combat.StaticProfile{
			AttackStrength:  tmpl.AttackStrength,
			DefenseStrength: tmpl.DefenseStrength,
		},
		Health:    tmpl.MaxHealth,
		MaxHealth: tmpl.MaxHealth,
		Equipment: combat.Gear{
			WeaponProfile: AttackProfile(tmpl, reg, firstAttack{}),
			ArmorProfile:  inst.armor,
		},
	}
	return inst
}

// firstAttack is the Source used before any attack has been chosen.
type firstAttack struct{}

func (firstAttack) Intn(int) int { return 0 }

// RoomID returns the room the NPC occupies.
func (i *Instance) RoomID() string {
	i.Combatant.Lock()
	defer i.Combatant.Unlock()
	return i.Combatant.RoomID
}

// IsDead reports whether the NPC has died.
func (i *Instance) IsDead() bool {
	i.Combatant.Lock()
	defer i.Combatant.Unlock()
	return i.Combatant.Dead
}

// PrepareAttack chooses the profile for the NPC's next attack.
//
// Postcondition: The combatant's equipment names the chosen profile.
func (i *Instance) PrepareAttack(src dice.Source) *armory.WeaponProfile {
	w := AttackProfile(i.Template, i.registry, src)
	i.Combatant.Lock()
	defer i.Combatant.Unlock()
	i.Combatant.Equipment = combat.Gear{WeaponProfile: w, ArmorProfile: i.armor}
	return w
}

// RespawnDelay returns the template's respawn delay.
func (i *Instance) RespawnDelay() time.Duration {
	return i.Template.Respawn()
}

// HealthDescription returns a visible health state string suitable for examine output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	i.Combatant.Lock()
	cur, maxHealth, dead := i.Combatant.Health, i.Combatant.MaxHealth, i.Combatant.Dead
	i.Combatant.Unlock()
	if dead || cur <= 0 {
		return "dead"
	}
	pct := float64(cur) / float64(maxHealth)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
