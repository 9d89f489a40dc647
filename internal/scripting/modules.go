package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules installs the engine table into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(expr)   -- total, or nil and an error message
//	engine.broadcast(room, msg)
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	log := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(log, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", log)

	dice := L.NewTable()
	L.SetField(dice, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))
	L.SetField(engine, "dice", dice)

	L.SetField(engine, "broadcast", L.NewFunction(func(L *lua.LState) int {
		room, msg := L.CheckString(1), L.CheckString(2)
		if m.Broadcast != nil {
			m.Broadcast(room, msg)
		}
		return 0
	}))

	L.SetGlobal("engine", engine)
}
