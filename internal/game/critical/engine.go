package critical

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
)

// FatalCause records why a critical killed.
type FatalCause string

const (
	CauseNone      FatalCause = ""
	CauseEffect    FatalCause = "effect"
	CauseThreshold FatalCause = "threshold"
)

// Input describes a landed blow.
type Input struct {
	DamageType armory.DamageType
	RawDamage  int
	ArmorGroup int
	Padding    int
	Weighting  int
	// Part preselects the struck location; empty draws one.
	Part BodyPart
}

// Result is the determined critical.
type Result struct {
	Part  BodyPart
	Rank  int
	Entry *Entry
	// Synthesized is true when the table had no row and a neutral entry was used.
	Synthesized bool
	Fatal       bool
	FatalCause  FatalCause
	// TotalDamage is RawDamage plus the entry's bonus damage.
	TotalDamage int
	// Wounds maps each injured location to the wound rank to apply.
	Wounds     map[BodyPart]int
	StunRounds int
	Knockdown  bool
	Amputation bool
}

// Divisor returns the critical divisor for an armor group.
func Divisor(armorGroup int) int {
	switch {
	case armorGroup >= 17:
		return 11
	case armorGroup >= 13:
		return 9
	case armorGroup >= 9:
		return 7
	case armorGroup >= 5:
		return 6
	default:
		return 5
	}
}

// Rank returns clamp(max(0, raw-padding+weighting) / Divisor(group), 0, MaxRank).
func Rank(raw, padding, weighting, armorGroup int) int {
	adjusted := max(0, raw-padding+weighting)
	return min(MaxRank, adjusted/Divisor(armorGroup))
}

// WoundRank derives a wound rank from a critical rank: 0 none, 1-2 minor,
// 3-6 serious, 7-9 grievous.
func WoundRank(critRank int) int {
	switch {
	case critRank >= 7:
		return 3
	case critRank >= 3:
		return 2
	case critRank >= 1:
		return 1
	default:
		return 0
	}
}

// Engine determines criticals against its loaded table and thresholds.
// An Engine is safe for concurrent use.
type Engine struct {
	table      *Table
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEngine creates an Engine. A nil table or thresholds behaves as empty.
//
// Postcondition: Returns a non-nil Engine.
func NewEngine(table *Table, thresholds Thresholds, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{table: table, thresholds: thresholds, logger: logger}
}

// Determine selects the struck location (unless preselected), computes the
// rank, looks up the entry and decides fatality.
//
// Precondition: src must not be nil when in.Part is empty.
// Postcondition: Rank is in [0, MaxRank]; Entry is never nil.
func (e *Engine) Determine(in Input, src dice.Source) Result {
	part := in.Part
	if part == "" {
		part = SelectBodyPart(src)
	}
	rank := Rank(in.RawDamage, in.Padding, in.Weighting, in.ArmorGroup)

	res := Result{Part: part, Rank: rank}
	entry, ok := e.table.Lookup(in.DamageType, part, rank)
	if !ok {
		e.logger.Debug("no critical entry, using neutral entry",
			zap.String("damage_type", string(in.DamageType)),
			zap.String("part", string(part)),
			zap.Int("rank", rank),
		)
		entry = NeutralEntry(part, rank)
		res.Synthesized = true
	}
	res.Entry = entry
	res.TotalDamage = in.RawDamage + entry.Damage

	switch {
	case entry.Has(EffectFatal):
		res.Fatal, res.FatalCause = true, CauseEffect
	default:
		if th, ok := e.thresholds.Threshold(in.DamageType, part); ok && rank >= th {
			res.Fatal, res.FatalCause = true, CauseThreshold
		}
	}

	res.StunRounds = entry.StunRounds()
	res.Knockdown = entry.Has(EffectKnockdown) && !entry.Has(EffectNoKnockdown)
	res.Amputation = entry.Has(EffectAmputation)

	if len(entry.Wounds) > 0 {
		res.Wounds = make(map[BodyPart]int, len(entry.Wounds))
		for p, r := range entry.Wounds {
			res.Wounds[p] = r
		}
	} else if w := WoundRank(rank); w > 0 {
		res.Wounds = map[BodyPart]int{part: w}
	}
	return res
}
