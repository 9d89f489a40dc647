package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
	"github.com/cory-johannsen/combatcore/internal/game/wound"
)

// ErrStateNotFound is returned when no combat state is stored for a combatant.
var ErrStateNotFound = errors.New("combat state not found")

// CombatStateRepository persists combat state: health, spirit, stance,
// pending roundtime, wounds, scars and amputations.
type CombatStateRepository struct {
	db *pgxpool.Pool
}

// NewCombatStateRepository creates a CombatStateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatStateRepository(db *pgxpool.Pool) *CombatStateRepository {
	return &CombatStateRepository{db: db}
}

// Save inserts or replaces the stored state for st.ID.
//
// Precondition: st.ID must be non-empty.
func (r *CombatStateRepository) Save(ctx context.Context, st combat.State) error {
	if st.ID == "" {
		return fmt.Errorf("saving combat state: id must not be empty")
	}
	wounds := st.Wounds
	if wounds == nil {
		wounds = map[critical.BodyPart]wound.Wound{}
	}
	scars := st.Scars
	if scars == nil {
		scars = map[critical.BodyPart]wound.Scar{}
	}
	amputations := make([]string, 0, len(st.Amputations))
	for _, p := range st.Amputations {
		amputations = append(amputations, string(p))
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO combat_state
			(combatant_id, room_id, health, max_health, spirit, max_spirit,
			 stance, lag_ms, prone, dead, wounds, scars, amputations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (combatant_id) DO UPDATE SET
			room_id = EXCLUDED.room_id,
			health = EXCLUDED.health,
			max_health = EXCLUDED.max_health,
			spirit = EXCLUDED.spirit,
			max_spirit = EXCLUDED.max_spirit,
			stance = EXCLUDED.stance,
			lag_ms = EXCLUDED.lag_ms,
			prone = EXCLUDED.prone,
			dead = EXCLUDED.dead,
			wounds = EXCLUDED.wounds,
			scars = EXCLUDED.scars,
			amputations = EXCLUDED.amputations,
			updated_at = NOW()`,
		st.ID, st.RoomID, st.Health, st.MaxHealth, st.Spirit, st.MaxSpirit,
		int(st.Stance), st.Lag.Milliseconds(), st.Prone, st.Dead, wounds, scars, amputations,
	)
	if err != nil {
		return fmt.Errorf("saving combat state %q: %w", st.ID, err)
	}
	return nil
}

// Load retrieves the stored state for id.
//
// Postcondition: Returns the state or ErrStateNotFound.
func (r *CombatStateRepository) Load(ctx context.Context, id string) (combat.State, error) {
	var (
		st          combat.State
		stance      int
		lagMS       int64
		amputations []string
	)
	err := r.db.QueryRow(ctx, `
		SELECT combatant_id, room_id, health, max_health, spirit, max_spirit,
		       stance, lag_ms, prone, dead, wounds, scars, amputations
		FROM combat_state WHERE combatant_id = $1`,
		id,
	).Scan(
		&st.ID, &st.RoomID, &st.Health, &st.MaxHealth, &st.Spirit, &st.MaxSpirit,
		&stance, &lagMS, &st.Prone, &st.Dead, &st.Wounds, &st.Scars, &amputations,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.State{}, ErrStateNotFound
		}
		return combat.State{}, fmt.Errorf("loading combat state %q: %w", id, err)
	}
	st.Stance = stats.Stance(stance)
	st.Lag = time.Duration(lagMS) * time.Millisecond
	for _, p := range amputations {
		st.Amputations = append(st.Amputations, critical.BodyPart(p))
	}
	return st, nil
}

// Delete removes the stored state for id. Deleting an absent row is not an error.
func (r *CombatStateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM combat_state WHERE combatant_id = $1`, id); err != nil {
		return fmt.Errorf("deleting combat state %q: %w", id, err)
	}
	return nil
}
