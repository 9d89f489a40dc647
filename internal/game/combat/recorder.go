package combat

import "github.com/cory-johannsen/combatcore/internal/game/critical"

// Recorder receives combat events for metrics.
type Recorder interface {
	Attack(attackerKind Kind, hit bool)
	Critical(part critical.BodyPart, rank int)
	Death(victimKind Kind, cause string)
	Bleed(amount int)
}

type nopRecorder struct{}

func (nopRecorder) Attack(Kind, bool)               {}
func (nopRecorder) Critical(critical.BodyPart, int) {}
func (nopRecorder) Death(Kind, string)              {}
func (nopRecorder) Bleed(int)                       {}
