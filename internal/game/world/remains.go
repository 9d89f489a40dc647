package world

import "time"

// RemainsItem is one item lying in a set of remains.
type RemainsItem struct {
	ItemDefID  string
	InstanceID string
	Quantity   int
}

// Remains is what a dead combatant leaves behind. Remains are never
// removed except by Decay.
type Remains struct {
	ID        string
	RoomID    string
	VictimID  string
	Name      string
	Items     []RemainsItem
	Currency  int
	CreatedAt time.Time
}
