package armory

import (
	"fmt"

	"go.uber.org/zap"
)

// Registry holds all loaded weapon, armor, and shield profiles indexed by ID.
// A Registry is populated at startup and read-only afterwards.
type Registry struct {
	weapons map[string]*WeaponProfile
	armors  map[string]*ArmorProfile
	shields map[string]*ShieldProfile
	logger  *zap.Logger
}

// NewRegistry returns an empty Registry. A nil logger is replaced by zap.NewNop.
//
// Postcondition: all internal maps are initialised.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		weapons: make(map[string]*WeaponProfile),
		armors:  make(map[string]*ArmorProfile),
		shields: make(map[string]*ShieldProfile),
		logger:  logger,
	}
}

// Dirs names the content directories a Registry loads from. Empty entries are skipped.
type Dirs struct {
	Weapons string
	Armor   string
	Shields string
}

// LoadRegistry loads every profile under dirs into a new Registry.
//
// Postcondition: Returns a populated Registry or the first load/registration error.
func LoadRegistry(dirs Dirs, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	if dirs.Weapons != "" {
		ws, err := LoadWeapons(dirs.Weapons)
		if err != nil {
			return nil, err
		}
		for _, w := range ws {
			if err := r.RegisterWeapon(w); err != nil {
				return nil, err
			}
		}
	}
	if dirs.Armor != "" {
		as, err := LoadArmors(dirs.Armor)
		if err != nil {
			return nil, err
		}
		for _, a := range as {
			if err := r.RegisterArmor(a); err != nil {
				return nil, err
			}
		}
	}
	if dirs.Shields != "" {
		ss, err := LoadShields(dirs.Shields)
		if err != nil {
			return nil, err
		}
		for _, s := range ss {
			if err := r.RegisterShield(s); err != nil {
				return nil, err
			}
		}
	}
	r.logger.Info("armory loaded",
		zap.Int("weapons", len(r.weapons)),
		zap.Int("armor", len(r.armors)),
		zap.Int("shields", len(r.shields)),
	)
	return r, nil
}

// RegisterWeapon adds w to the registry.
//
// Precondition: w must not be nil.
// Postcondition: Weapon(w.ID) returns w; returns error if w.ID already registered.
func (r *Registry) RegisterWeapon(w *WeaponProfile) error {
	if _, exists := r.weapons[w.ID]; exists {
		return fmt.Errorf("armory: Registry.RegisterWeapon: weapon ID %q already registered", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// RegisterArmor adds a to the registry.
//
// Precondition: a must not be nil.
// Postcondition: Armor(a.ID) returns a; returns error if a.ID already registered.
func (r *Registry) RegisterArmor(a *ArmorProfile) error {
	if _, exists := r.armors[a.ID]; exists {
		return fmt.Errorf("armory: Registry.RegisterArmor: armor ID %q already registered", a.ID)
	}
	r.armors[a.ID] = a
	return nil
}

// RegisterShield adds s to the registry.
//
// Precondition: s must not be nil.
// Postcondition: Shield(s.ID) returns s; returns error if s.ID already registered.
func (r *Registry) RegisterShield(s *ShieldProfile) error {
	if _, exists := r.shields[s.ID]; exists {
		return fmt.Errorf("armory: Registry.RegisterShield: shield ID %q already registered", s.ID)
	}
	r.shields[s.ID] = s
	return nil
}

// Weapon returns the profile for id. The empty id is Unarmed; an unregistered
// id falls back to UnknownWeapon.
//
// Postcondition: Never returns nil.
func (r *Registry) Weapon(id string) *WeaponProfile {
	if id == "" {
		return Unarmed
	}
	if w, ok := r.weapons[id]; ok {
		return w
	}
	r.logger.Debug("unknown weapon, using fallback profile", zap.String("weapon", id))
	return UnknownWeapon
}

// Armor returns the profile for id. The empty or an unregistered id is Unarmored.
//
// Postcondition: Never returns nil.
func (r *Registry) Armor(id string) *ArmorProfile {
	if id == "" {
		return Unarmored
	}
	if a, ok := r.armors[id]; ok {
		return a
	}
	r.logger.Debug("unknown armor, treating as unarmored", zap.String("armor", id))
	return Unarmored
}

// Shield returns the profile for id, or nil when id is empty or unregistered.
func (r *Registry) Shield(id string) *ShieldProfile {
	if id == "" {
		return nil
	}
	s, ok := r.shields[id]
	if !ok {
		r.logger.Debug("unknown shield, ignoring", zap.String("shield", id))
		return nil
	}
	return s
}
