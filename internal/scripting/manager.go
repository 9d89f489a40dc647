package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/dice"
)

// globalZoneID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no zone VM is found.
const globalZoneID = "__global__"

// vm is one zone's interpreter. An LState is single-threaded; mu serializes
// every call into it. closed is set under mu before L is closed.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	closed bool
}

// close releases the interpreter once no call holds it.
func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.L.Close()
}

// Manager owns one sandboxed VM per zone and dispatches hooks into them.
// It is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// Broadcast, when set, backs engine.broadcast(room, msg).
	Broadcast func(roomID, msg string)
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no zones loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadZone creates a sandboxed VM for zoneID, registers the engine module,
// then executes every *.lua file in scriptDir in lexicographic order.
// Loading a zone twice replaces its VM.
//
// Precondition: zoneID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Zone VM is registered; returns error on Lua load failure.
func (m *Manager) LoadZone(zoneID, scriptDir string, instLimit int) error {
	return m.loadInto(zoneID, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used by zones without scripts of their own.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalZoneID, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	v := &vm{L: NewSandboxedState(), limit: instLimit}
	m.RegisterModules(v.L)
	for _, path := range luaFiles {
		if err := withBudget(v.L, v.limit, func() error { return v.L.DoFile(path) }); err != nil {
			v.L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.states[key]
	m.states[key] = v
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Debug("scripting: zone loaded", zap.String("zone", key), zap.Int("files", len(luaFiles)))
	return nil
}

// CallHook calls the named Lua global function in zoneID's VM, falling back
// to the global VM. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors, including exhausting the instruction budget,
// are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(zoneID, hook, func(*lua.LState) []lua.LValue { return args })
}

// call is CallHook with arguments built inside the VM's lock. A VM closed
// between lookup and lock was replaced by a reload or released by Close, so
// the lookup is repeated.
func (m *Manager) call(zoneID, hook string, build func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	for {
		v := m.lookup(zoneID)
		if v == nil {
			m.logger.Info("scripting: no VM for zone",
				zap.String("zone", zoneID),
				zap.String("hook", hook),
			)
			return lua.LNil, nil
		}

		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			continue
		}
		ret := m.invoke(v, zoneID, hook, build)
		v.mu.Unlock()
		return ret, nil
	}
}

// lookup returns zoneID's VM, the global VM, or nil.
func (m *Manager) lookup(zoneID string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.states[zoneID]; ok {
		return v
	}
	return m.states[globalZoneID]
}

// invoke runs hook in v.
//
// Precondition: v.mu is held and v is open.
func (m *Manager) invoke(v *vm, zoneID, hook string, build func(*lua.LState) []lua.LValue) lua.LValue {
	fn := v.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil
	}
	err := withBudget(v.L, v.limit, func() error {
		return v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, build(v.L)...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret
}

// Close releases every VM. Subsequent hook calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	states := m.states
	m.states = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range states {
		v.close()
	}
}
