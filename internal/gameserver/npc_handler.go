package gameserver

import (
	"fmt"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/npc"
)

// NPCView is what a player sees when examining an NPC.
type NPCView struct {
	InstanceID        string
	Name              string
	Description       string
	HealthDescription string
	Engaged           bool
}

// NPCHandler handles NPC-related commands.
type NPCHandler struct {
	npcMgr *npc.Manager
	engine *combat.Engine
}

// NewNPCHandler creates an NPCHandler.
//
// Precondition: npcMgr and engine must be non-nil.
func NewNPCHandler(npcMgr *npc.Manager, engine *combat.Engine) *NPCHandler {
	return &NPCHandler{npcMgr: npcMgr, engine: engine}
}

// InstancesInRoom returns all NPC instances in roomID.
func (h *NPCHandler) InstancesInRoom(roomID string) []*npc.Instance {
	return h.npcMgr.InstancesInRoom(roomID)
}

// Examine looks up an NPC by name prefix in the actor's room and returns its detail view.
//
// Precondition: actorID must name a live combatant; target must be non-empty.
// Postcondition: Returns an NPCView or an error if the target is not found.
func (h *NPCHandler) Examine(actorID, target string) (*NPCView, error) {
	actor, ok := h.engine.Get(actorID)
	if !ok {
		return nil, fmt.Errorf("combatant %q not found", actorID)
	}

	inst := h.npcMgr.FindInRoom(roomOf(actor), target)
	if inst == nil {
		return nil, combat.NewFailure(combat.CodeNotHere, "You don't see %q here.", target)
	}

	return &NPCView{
		InstanceID:        inst.ID,
		Name:              inst.Name,
		Description:       inst.Template.Description,
		HealthDescription: inst.HealthDescription(),
		Engaged:           h.engine.InCombat(inst.ID),
	}, nil
}
