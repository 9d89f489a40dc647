package combat

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/roundtime"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// Death causes reported by outcomes and metrics.
const (
	DeathByCritical = "critical"
	DeathByDamage   = "damage"
	DeathByBleeding = "bleeding"
)

// CriticalApplication is what applying a critical did to its target.
type CriticalApplication struct {
	Damage  int
	Killed  bool
	Cause   string
	StunLag time.Duration
	// Wounded lists the locations whose wound rank rose.
	Wounded []critical.BodyPart
}

// AttackOutcome is the full result of one atomic attack.
type AttackOutcome struct {
	AttackerID string
	DefenderID string
	Attack     AttackResult
	// Critical is nil on a miss.
	Critical    *critical.Result
	Application CriticalApplication
	Roundtime   roundtime.Breakdown
}

// Attack resolves one attack of attacker against defender as a single atomic
// unit: both combatants stay locked from validation through roundtime.
//
// Precondition: attacker must be non-nil.
// Postcondition: On error (always a *Failure) neither combatant changed.
// On success both are engaged unless one died, and the attacker's lag grew
// by the returned roundtime.
func (e *Engine) Attack(attacker, defender *Combatant) (*AttackOutcome, error) {
	if defender == nil {
		return nil, fail(CodeNoTarget, "Attack what?")
	}
	if attacker == defender || attacker.ID == defender.ID {
		return nil, fail(CodeSelfTarget, "You can't attack yourself.")
	}
	unlock := lockPair(attacker, defender)
	defer unlock()

	if attacker.Dead {
		return nil, fail(CodeDead, "You are dead.")
	}
	if defender.Dead {
		return nil, fail(CodeTargetDead, "%s is already dead.", defender.Name)
	}
	if attacker.RoomID != defender.RoomID {
		return nil, fail(CodeNotHere, "You don't see %s here.", defender.Name)
	}
	if e.scheduler.Blocked(&attacker.CombatData, roundtime.ActionAttack) {
		return nil, fail(CodeRoundtime, "Wait %.1f seconds.", roundtime.Seconds(attacker.CombatData.Lag))
	}
	attacker.ensure()
	defender.ensure()

	weapon := attacker.Weapon()
	res := ResolveAttack(attacker, weapon, defender, e.races, e.roller)
	out := &AttackOutcome{AttackerID: attacker.ID, DefenderID: defender.ID, Attack: res}
	e.recorder.Attack(attacker.Kind, res.Hit)

	if res.Hit {
		armor := defender.Armor()
		crit := e.crit.Determine(critical.Input{
			DamageType: res.Weapon.PrimaryDamageType(),
			RawDamage:  res.RawDamage,
			ArmorGroup: res.ArmorGroup,
			Padding:    armor.Padding,
			Weighting:  res.Weapon.Weighting,
		}, e.roller)
		out.Critical = &crit
		out.Application = e.applyCritical(defender, crit)
	}

	if !defender.Dead {
		e.engage(attacker.ID, defender.ID)
	}
	out.Roundtime = e.actionRoundtime(attacker)
	e.scheduler.AddLag(&attacker.CombatData, out.Roundtime.Total(), e.now())

	e.logger.Debug("attack resolved",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.Int("as", res.AS),
		zap.Int("ds", res.DS),
		zap.Int("avd", res.AvD),
		zap.Int("roll", res.Roll),
		zap.Int("end_roll", res.EndRoll),
		zap.Bool("hit", res.Hit),
		zap.Int("raw_damage", res.RawDamage),
		zap.Duration("roundtime", out.Roundtime.Total()),
	)
	return out, nil
}

// actionRoundtime composes the roundtime of an attack by c.
//
// Precondition: c is locked.
func (e *Engine) actionRoundtime(c *Combatant) roundtime.Breakdown {
	weapon := c.Weapon()
	if weapon == nil {
		weapon = armory.Unarmed
	}
	return roundtime.Compute(roundtime.Inputs{
		WeaponBase:         weapon.Roundtime(),
		TwoHanded:          weapon.TwoHanded,
		TwoHandedRanks:     c.Ranks(stats.TwoHandedWeapons),
		ArmorPenalty:       c.Armor().Penalty(),
		ArmorRanks:         c.Ranks(stats.ArmorUse),
		EncumbrancePercent: c.Encumbrance,
	})
}

// ApplyCritical applies a determined critical to target under target's lock.
//
// Precondition: target must be non-nil.
// Postcondition: A dead target yields a CodeTargetDead failure and is not
// changed. Fatal results leave target dead with zero health.
func (e *Engine) ApplyCritical(target *Combatant, res critical.Result) (CriticalApplication, error) {
	target.Lock()
	defer target.Unlock()
	if target.Dead {
		return CriticalApplication{}, fail(CodeTargetDead, "%s is already dead.", target.Name)
	}
	target.ensure()
	return e.applyCritical(target, res), nil
}

// applyCritical records damage, wounds, status effects and death.
//
// Precondition: target is locked and alive.
func (e *Engine) applyCritical(target *Combatant, res critical.Result) CriticalApplication {
	now := e.now()
	app := CriticalApplication{Damage: res.TotalDamage}
	e.recorder.Critical(res.Part, res.Rank)

	for _, loc := range sortedParts(res.Wounds) {
		if target.Wounds.Apply(loc, res.Wounds[loc], now) {
			app.Wounded = append(app.Wounded, loc)
		}
	}
	if res.Amputation {
		target.Amputations[res.Part] = true
	}
	if res.Knockdown {
		target.Prone = true
	}

	switch {
	case res.Fatal:
		app.Damage = target.Health
		app.Killed, app.Cause = true, DeathByCritical
		e.kill(target, DeathByCritical)
	case target.ApplyDamage(res.TotalDamage):
		app.Killed, app.Cause = true, DeathByDamage
		e.kill(target, DeathByDamage)
	}
	if !app.Killed && res.StunRounds > 0 {
		app.StunLag = roundtime.Compute(roundtime.Inputs{StunRounds: res.StunRounds}).Total()
		e.scheduler.AddLag(&target.CombatData, app.StunLag, now)
	}
	return app
}

func sortedParts(m map[critical.BodyPart]int) []critical.BodyPart {
	out := make([]critical.BodyPart, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
