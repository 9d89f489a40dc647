// Package critical determines where a landed blow strikes, how severe the
// resulting critical is, which narrative entry describes it, and whether it kills.
package critical

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/combatcore/internal/game/dice"
)

// BodyPart is a hit location.
type BodyPart string

const (
	LeftArm   BodyPart = "left_arm"
	RightArm  BodyPart = "right_arm"
	LeftLeg   BodyPart = "left_leg"
	RightLeg  BodyPart = "right_leg"
	Chest     BodyPart = "chest"
	Abdomen   BodyPart = "abdomen"
	Back      BodyPart = "back"
	LeftHand  BodyPart = "left_hand"
	RightHand BodyPart = "right_hand"
	Neck      BodyPart = "neck"
	LeftEye   BodyPart = "left_eye"
	RightEye  BodyPart = "right_eye"
	Head      BodyPart = "head"

	// Eye is the simplified location both eyes collapse to for fatal thresholds.
	Eye BodyPart = "eye"
)

// weightTotal is the sum of all hit weights, in hundredths of a percent.
const weightTotal = 10000

var hitWeights = []struct {
	part   BodyPart
	weight int
}{
	{LeftArm, 985},
	{RightArm, 985},
	{LeftLeg, 825},
	{RightLeg, 825},
	{Chest, 1470},
	{Abdomen, 1210},
	{Back, 1010},
	{LeftHand, 450},
	{RightHand, 450},
	{Neck, 740},
	{LeftEye, 265},
	{RightEye, 265},
	{Head, 520},
}

// AllBodyParts lists every hit location in selection order.
var AllBodyParts = func() []BodyPart {
	out := make([]BodyPart, len(hitWeights))
	for i, w := range hitWeights {
		out[i] = w.part
	}
	return out
}()

// Weight returns the selection weight of p in hundredths of a percent.
func Weight(p BodyPart) int {
	for _, w := range hitWeights {
		if w.part == p {
			return w.weight
		}
	}
	return 0
}

// SelectBodyPart draws a hit location using the fixed location weights.
//
// Precondition: src must not be nil.
// Postcondition: Returns one of AllBodyParts.
func SelectBodyPart(src dice.Source) BodyPart {
	n := src.Intn(weightTotal)
	for _, w := range hitWeights {
		if n < w.weight {
			return w.part
		}
		n -= w.weight
	}
	return hitWeights[len(hitWeights)-1].part
}

// ParseBodyPart validates s as a hit location. "left arm" and "left_arm"
// are equivalent.
func ParseBodyPart(s string) (BodyPart, error) {
	p := BodyPart(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if Weight(p) == 0 {
		return "", fmt.Errorf("unknown body part %q", s)
	}
	return p, nil
}

// Simplified collapses sided locations that share a fatal threshold.
func (p BodyPart) Simplified() BodyPart {
	if p == LeftEye || p == RightEye {
		return Eye
	}
	return p
}

// Display returns the location in prose form, e.g. "left arm".
func (p BodyPart) Display() string {
	return strings.ReplaceAll(string(p), "_", " ")
}

// sidedAliases maps a generic location name to its two sided parts.
var sidedAliases = map[string][2]BodyPart{
	"arm":  {LeftArm, RightArm},
	"leg":  {LeftLeg, RightLeg},
	"hand": {LeftHand, RightHand},
	"eye":  {LeftEye, RightEye},
}
