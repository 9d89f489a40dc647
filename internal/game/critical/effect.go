package critical

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EffectKind discriminates Effect.
type EffectKind int

const (
	EffectStun EffectKind = iota + 1
	EffectFatal
	EffectKnockdown
	EffectAmputation
	EffectNoKnockdown
)

// Effect is a status consequence attached to a critical entry.
// Rounds is meaningful only for EffectStun.
type Effect struct {
	Kind   EffectKind
	Rounds int
}

// Stun returns a stun effect of n rounds.
func Stun(n int) Effect { return Effect{Kind: EffectStun, Rounds: n} }

var (
	Fatal       = Effect{Kind: EffectFatal}
	Knockdown   = Effect{Kind: EffectKnockdown}
	Amputation  = Effect{Kind: EffectAmputation}
	NoKnockdown = Effect{Kind: EffectNoKnockdown}
)

// ParseEffect parses a content effect code: "S<n>", "F", "K", "A" or "NK".
//
// Postcondition: Returns the typed effect or an error naming the bad code.
func ParseEffect(code string) (Effect, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	switch c {
	case "F":
		return Fatal, nil
	case "K":
		return Knockdown, nil
	case "A":
		return Amputation, nil
	case "NK":
		return NoKnockdown, nil
	}
	if rest, ok := strings.CutPrefix(c, "S"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Effect{}, fmt.Errorf("invalid stun effect %q: rounds must be a positive integer", code)
		}
		return Stun(n), nil
	}
	return Effect{}, fmt.Errorf("unknown effect code %q", code)
}

// String returns the content code of e.
func (e Effect) String() string {
	switch e.Kind {
	case EffectStun:
		return "S" + strconv.Itoa(e.Rounds)
	case EffectFatal:
		return "F"
	case EffectKnockdown:
		return "K"
	case EffectAmputation:
		return "A"
	case EffectNoKnockdown:
		return "NK"
	}
	return "?"
}

// UnmarshalYAML decodes an effect from its code.
func (e *Effect) UnmarshalYAML(value *yaml.Node) error {
	var code string
	if err := value.Decode(&code); err != nil {
		return err
	}
	parsed, err := ParseEffect(code)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*e = parsed
	return nil
}
