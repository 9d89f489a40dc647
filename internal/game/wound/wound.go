// Package wound tracks per-location injuries and scars, the bleeding they
// cause each tick, and bandaging attempts.
package wound

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
)

// MaxRank is the most severe wound rank.
const MaxRank = 3

// Wound is a live injury at one location.
type Wound struct {
	Rank     int
	Bandaged bool
	// BandageReduction is the fraction of bleeding a bandage stops, 0..1.
	BandageReduction float64
	At               time.Time
}

// Bleeds reports whether the wound loses blood each tick.
func (w Wound) Bleeds() bool {
	return w.Rank >= 2 && w.BandageReduction < 1
}

// Scar is the healed remnant of a wound.
type Scar struct {
	Rank int
	At   time.Time
}

// bleedDice are the per-tick bleed rolls by wound rank.
var bleedDice = map[int]dice.Expression{
	2: dice.MustParse("1d2"),
	3: dice.MustParse("1d3+1"),
}

// Set holds the wounds and scars of one combatant.
// Set is not safe for concurrent use; its owner serializes access.
type Set struct {
	wounds map[critical.BodyPart]*Wound
	scars  map[critical.BodyPart]Scar
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{
		wounds: make(map[critical.BodyPart]*Wound),
		scars:  make(map[critical.BodyPart]Scar),
	}
}

// Apply records a wound of rank at loc if loc is unwounded or wounded less
// severely. Any bandage on loc is removed when the wound worsens.
//
// Precondition: rank in [1, MaxRank]; other values are clamped.
// Postcondition: Returns true iff the stored wound changed. Never lowers a rank.
func (s *Set) Apply(loc critical.BodyPart, rank int, at time.Time) bool {
	if rank < 1 {
		return false
	}
	rank = min(rank, MaxRank)
	if cur, ok := s.wounds[loc]; ok && cur.Rank >= rank {
		return false
	}
	s.wounds[loc] = &Wound{Rank: rank, At: at}
	return true
}

// Wound returns the live wound at loc.
func (s *Set) Wound(loc critical.BodyPart) (Wound, bool) {
	w, ok := s.wounds[loc]
	if !ok {
		return Wound{}, false
	}
	return *w, true
}

// Scar returns the scar at loc.
func (s *Set) Scar(loc critical.BodyPart) (Scar, bool) {
	sc, ok := s.scars[loc]
	return sc, ok
}

// Wounds returns a copy of every live wound.
func (s *Set) Wounds() map[critical.BodyPart]Wound {
	out := make(map[critical.BodyPart]Wound, len(s.wounds))
	for k, w := range s.wounds {
		out[k] = *w
	}
	return out
}

// Scars returns a copy of every scar.
func (s *Set) Scars() map[critical.BodyPart]Scar {
	out := make(map[critical.BodyPart]Scar, len(s.scars))
	for k, sc := range s.scars {
		out[k] = sc
	}
	return out
}

// Restore replaces the set's contents, e.g. after loading persisted state.
func (s *Set) Restore(wounds map[critical.BodyPart]Wound, scars map[critical.BodyPart]Scar) {
	s.wounds = make(map[critical.BodyPart]*Wound, len(wounds))
	for k, w := range wounds {
		s.wounds[k] = &w
	}
	s.scars = make(map[critical.BodyPart]Scar, len(scars))
	for k, sc := range scars {
		s.scars[k] = sc
	}
}

// Clear removes every wound. Scars remain.
func (s *Set) Clear() {
	s.wounds = make(map[critical.BodyPart]*Wound)
}

// Locations returns the wounded locations in stable order.
func (s *Set) Locations() []critical.BodyPart {
	out := make([]critical.BodyPart, 0, len(s.wounds))
	for k := range s.wounds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Heal removes the wound at loc. When scar is true a Scar of the same rank is
// left behind; an existing deeper scar is kept.
//
// Postcondition: Returns false when loc had no wound.
func (s *Set) Heal(loc critical.BodyPart, scar bool, at time.Time) bool {
	w, ok := s.wounds[loc]
	if !ok {
		return false
	}
	delete(s.wounds, loc)
	if scar {
		if cur, ok := s.scars[loc]; !ok || cur.Rank < w.Rank {
			s.scars[loc] = Scar{Rank: w.Rank, At: at}
		}
	}
	return true
}

// Injury is what an observer sees at a location.
type Injury struct {
	Rank int
	Scar bool
}

// Visible returns the wound at loc, or the scar when no wound is present.
func (s *Set) Visible(loc critical.BodyPart) (Injury, bool) {
	if w, ok := s.wounds[loc]; ok {
		return Injury{Rank: w.Rank}, true
	}
	if sc, ok := s.scars[loc]; ok {
		return Injury{Rank: sc.Rank, Scar: true}, true
	}
	return Injury{}, false
}

// BleedReport is one tick of bleeding.
type BleedReport struct {
	Total int
	// Locations holds the damage per bleeding location. Fully bandaged
	// wounds are omitted.
	Locations map[critical.BodyPart]int
}

// Bleed rolls one tick of bleeding for every wound of rank 2 or more.
// Rank 2 bleeds 1-2, rank 3 bleeds 2-4, reduced by floor(base × (1 - reduction)).
//
// Precondition: src must not be nil.
// Postcondition: Total equals the sum of Locations; all amounts are >= 0.
func (s *Set) Bleed(src dice.Source) BleedReport {
	rep := BleedReport{}
	for _, loc := range s.Locations() {
		w := s.wounds[loc]
		if !w.Bleeds() {
			continue
		}
		base := dice.Roll(bleedDice[w.Rank], src).Total()
		amount := int(math.Floor(float64(base)*(1-w.BandageReduction) + 1e-9))
		if rep.Locations == nil {
			rep.Locations = make(map[critical.BodyPart]int)
		}
		rep.Locations[loc] = amount
		rep.Total += amount
	}
	return rep
}

// Difficulty returns the bandaging difficulty tier of loc:
// limbs and back 1, head, eyes, chest and abdomen 2, neck 3.
func Difficulty(loc critical.BodyPart) int {
	switch loc {
	case critical.Neck:
		return 3
	case critical.Head, critical.LeftEye, critical.RightEye, critical.Chest, critical.Abdomen:
		return 2
	default:
		return 1
	}
}

var (
	ErrNoWound         = errors.New("there is no wound there")
	ErrNotBleeding     = errors.New("that wound is not bleeding")
	ErrAlreadyBandaged = errors.New("that wound is already bandaged")
	ErrBeyondSkill     = errors.New("tending that wound is beyond your skill")
)
