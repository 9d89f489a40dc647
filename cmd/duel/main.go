// Package main provides a command-line duel: two fighters built from the
// content armory trade blows in a pit until one dies. With a fixed seed the
// whole fight replays identically.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/config"
	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
	"github.com/cory-johannsen/combatcore/internal/game/npc"
	"github.com/cory-johannsen/combatcore/internal/game/roundtime"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
	"github.com/cory-johannsen/combatcore/internal/game/world"
	"github.com/cory-johannsen/combatcore/internal/gameserver"
	"github.com/cory-johannsen/combatcore/internal/observability"
	"github.com/cory-johannsen/combatcore/internal/scripting"
)

const pitRoom = "pit"

type side struct {
	name, race, stance    string
	weapon, armor, shield string
}

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	seed := flag.Uint64("seed", 1, "dice seed; the same seed replays the same fight")
	maxTicks := flag.Int("max-ticks", 600, "stop after this many ticks without a death")
	var a, b side
	flag.StringVar(&a.name, "a", "Aldric", "first fighter's name")
	flag.StringVar(&a.race, "a-race", "human", "first fighter's race")
	flag.StringVar(&a.weapon, "a-weapon", "broadsword", "first fighter's weapon ID")
	flag.StringVar(&a.armor, "a-armor", "leather_breastplate", "first fighter's armor ID")
	flag.StringVar(&a.shield, "a-shield", "buckler", "first fighter's shield ID")
	flag.StringVar(&a.stance, "a-stance", "forward", "first fighter's stance")
	flag.StringVar(&b.name, "b", "Brannoc", "second fighter's name")
	flag.StringVar(&b.race, "b-race", "dwarf", "second fighter's race")
	flag.StringVar(&b.weapon, "b-weapon", "war_hammer", "second fighter's weapon ID")
	flag.StringVar(&b.armor, "b-armor", "chain_mail", "second fighter's armor ID")
	flag.StringVar(&b.shield, "b-shield", "", "second fighter's shield ID")
	flag.StringVar(&b.stance, "b-stance", "neutral", "second fighter's stance")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "duel")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	races, err := stats.LoadRaceTable(cfg.Content.Path(cfg.Content.Races))
	if err != nil {
		logger.Fatal("loading race table", zap.Error(err))
	}
	reg, err := armory.LoadRegistry(armory.Dirs{
		Weapons: cfg.Content.Path(cfg.Content.Weapons),
		Armor:   cfg.Content.Path(cfg.Content.Armor),
		Shields: cfg.Content.Path(cfg.Content.Shields),
	}, logger)
	if err != nil {
		logger.Fatal("loading armory", zap.Error(err))
	}
	table, err := critical.LoadTable(cfg.Content.Path(cfg.Content.Criticals))
	if err != nil {
		logger.Fatal("loading critical tables", zap.Error(err))
	}
	thresholds, err := critical.LoadThresholds(cfg.Content.Path(cfg.Content.Thresholds))
	if err != nil {
		logger.Fatal("loading fatal thresholds", zap.Error(err))
	}

	roller := dice.NewLoggedRoller(dice.NewSeededSource(*seed), logger)
	interval := cfg.Engine.TickInterval
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	engine := combat.NewEngine(combat.Deps{
		Critical:  critical.NewEngine(table, thresholds, logger),
		Races:     races,
		Scheduler: roundtime.NewScheduler(interval),
		Roller:    roller,
		Logger:    logger,
		Clock:     func() time.Time { return clock },
	})

	rooms, err := world.NewManager([]*world.Zone{{
		ID: "duel", Name: "Duel", StartRoom: pitRoom,
		Rooms: map[string]*world.Room{
			pitRoom: {ID: pitRoom, ZoneID: "duel", Title: "The Dueling Pit"},
		},
	}})
	if err != nil {
		logger.Fatal("creating world", zap.Error(err))
	}

	var scripts *scripting.Manager
	if dir := cfg.Content.Path(cfg.Content.Scripts); dir != "" {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			scripts = scripting.NewManager(roller, logger)
			defer scripts.Close()
			if err := scripts.LoadGlobal(dir, cfg.Scripting.InstructionLimit); err != nil {
				logger.Fatal("loading scripts", zap.Error(err))
			}
		}
	}

	printEvents := func(_ string, events []*gameserver.CombatEvent) {
		for _, ev := range events {
			fmt.Println(ev.Narrative)
		}
	}
	handler := gameserver.NewCombatHandler(engine, npc.NewManager(reg), rooms, roller, printEvents, scripts, nil, nil, logger)
	ticker := gameserver.NewTicker(handler, interval, 0, logger)

	ctx := context.Background()
	fa, err := newFighter(a, reg)
	if err != nil {
		logger.Fatal("building fighter", zap.String("name", a.name), zap.Error(err))
	}
	fb, err := newFighter(b, reg)
	if err != nil {
		logger.Fatal("building fighter", zap.String("name", b.name), zap.Error(err))
	}
	for _, f := range []*combat.Combatant{fa, fb} {
		if err := handler.Join(ctx, f, pitRoom); err != nil {
			logger.Fatal("joining pit", zap.String("name", f.Name), zap.Error(err))
		}
	}
	fmt.Printf("%s (%s, %s) faces %s (%s, %s). Seed %d.\n\n",
		a.name, a.race, a.weapon, b.name, b.race, b.weapon, *seed)

	for tick := 0; tick < *maxTicks; tick++ {
		for _, pair := range [][2]*combat.Combatant{{fa, fb}, {fb, fa}} {
			actor, target := pair[0], pair[1]
			if dead(actor) || dead(target) || engine.Blocked(actor) {
				continue
			}
			if _, err := handler.Attack(actor.ID, target.ID); err != nil {
				logger.Debug("attack refused", zap.String("actor", actor.Name), zap.Error(err))
			}
		}
		if dead(fa) || dead(fb) {
			break
		}
		ticker.Tick(clock)
		clock = clock.Add(interval)
		if dead(fa) || dead(fb) {
			break
		}
	}

	fmt.Println()
	for _, f := range []*combat.Combatant{fa, fb} {
		st := f.Snapshot()
		status := "alive"
		if st.Dead {
			status = "dead"
		}
		fmt.Printf("%s: %s, %d/%d health, %d wounds\n", f.Name, status, st.Health, st.MaxHealth, len(st.Wounds))
	}
}

func newFighter(s side, reg *armory.Registry) (*combat.Combatant, error) {
	stance, err := stats.ParseStance(s.stance)
	if err != nil {
		return nil, err
	}
	w := reg.Weapon(s.weapon)
	if w.ID != s.weapon {
		return nil, fmt.Errorf("unknown weapon %q", s.weapon)
	}
	return &combat.Combatant{
		ID:   uuid.NewString(),
		Name: s.name,
		Kind: combat.KindPlayer,
		Race: s.race,
		Attributes: map[stats.Stat]stats.Attribute{
			stats.Strength:     stats.Flat(75),
			stats.Constitution: stats.Flat(70),
			stats.Dexterity:    stats.Flat(65),
			stats.Agility:      stats.Flat(65),
			stats.Discipline:   stats.Flat(60),
		},
		Skills: map[stats.Skill]int{
			w.Skill:               20,
			stats.CombatManeuvers: 10,
			stats.ShieldUse:       8,
			stats.ArmorUse:        10,
			stats.FirstAid:        5,
		},
		Equipment: combat.Loadout{Registry: reg, WeaponID: s.weapon, ArmorID: s.armor, ShieldID: s.shield},
		Stance:    stance,
		Health:    120, MaxHealth: 120,
		Spirit: 10, MaxSpirit: 10,
	}, nil
}

func dead(c *combat.Combatant) bool {
	return c.Snapshot().Dead
}
