package gameserver

// EventType classifies a CombatEvent.
type EventType int

const (
	EventAttack EventType = iota + 1
	EventCritical
	EventDeath
	EventBleed
	EventTend
	EventStance
	EventFlee
	EventHeal
	EventSpawn
	EventStand
)

var eventTypeNames = map[EventType]string{
	EventAttack:   "attack",
	EventCritical: "critical",
	EventDeath:    "death",
	EventBleed:    "bleed",
	EventTend:     "tend",
	EventStance:   "stance",
	EventFlee:     "flee",
	EventHeal:     "heal",
	EventSpawn:    "spawn",
	EventStand:    "stand",
}

func (t EventType) String() string {
	if n, ok := eventTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// CombatEvent is one line of combat output delivered to a room.
// Numeric fields are zero when they do not apply to the event type.
type CombatEvent struct {
	Type     EventType
	RoomID   string
	Attacker string
	Target   string
	// AS, DS, AvD, Roll and EndRoll are the attack exchange.
	AS      int
	DS      int
	AvD     int
	Roll    int
	EndRoll int
	Damage  int
	// TargetHealth is the target's health after the event.
	TargetHealth int
	Narrative    string
}
