package scripting

import lua "github.com/yuin/gopher-lua"

// Hook names content scripts may define.
const (
	HookOnDeath    = "on_death"
	HookOnCritical = "on_critical"
)

// CombatantInfo is a snapshot of a combatant passed to Lua hooks.
type CombatantInfo struct {
	ID        string
	Name      string
	Kind      string
	RoomID    string
	Health    int
	MaxHealth int
}

// CriticalInfo is a snapshot of a resolved critical passed to Lua hooks.
type CriticalInfo struct {
	DamageType string
	Location   string
	Rank       int
	Damage     int
	Fatal      bool
}

// OnDeath runs on_death(victim, killer, cause) in zoneID. killer may be nil
// (bleeding deaths). A string return is extra narrative for the room.
func (m *Manager) OnDeath(zoneID string, victim CombatantInfo, killer *CombatantInfo, cause string) string {
	ret, _ := m.call(zoneID, HookOnDeath, func(L *lua.LState) []lua.LValue {
		var k lua.LValue = lua.LNil
		if killer != nil {
			k = combatantTable(L, *killer)
		}
		return []lua.LValue{combatantTable(L, victim), k, lua.LString(cause)}
	})
	return narrative(ret)
}

// OnCritical runs on_critical(target, critical) in zoneID. A string return is
// extra narrative for the room.
func (m *Manager) OnCritical(zoneID string, target CombatantInfo, crit CriticalInfo) string {
	ret, _ := m.call(zoneID, HookOnCritical, func(L *lua.LState) []lua.LValue {
		t := L.CreateTable(0, 5)
		t.RawSetString("damage_type", lua.LString(crit.DamageType))
		t.RawSetString("location", lua.LString(crit.Location))
		t.RawSetString("rank", lua.LNumber(crit.Rank))
		t.RawSetString("damage", lua.LNumber(crit.Damage))
		t.RawSetString("fatal", lua.LBool(crit.Fatal))
		return []lua.LValue{combatantTable(L, target), t}
	})
	return narrative(ret)
}

func combatantTable(L *lua.LState, c CombatantInfo) *lua.LTable {
	t := L.CreateTable(0, 6)
	t.RawSetString("id", lua.LString(c.ID))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("kind", lua.LString(c.Kind))
	t.RawSetString("room", lua.LString(c.RoomID))
	t.RawSetString("health", lua.LNumber(c.Health))
	t.RawSetString("max_health", lua.LNumber(c.MaxHealth))
	return t
}

func narrative(v lua.LValue) string {
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}
