// Package main provides the combat daemon: it loads reference content, builds
// the combat engine and world, populates NPCs and runs the game tick until
// signalled.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

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
	"github.com/cory-johannsen/combatcore/internal/server"
	"github.com/cory-johannsen/combatcore/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "combatd")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source
	if cfg.Engine.Seed != 0 {
		src = dice.NewSeededSource(cfg.Engine.Seed)
		logger.Info("using seeded dice", zap.Uint64("seed", cfg.Engine.Seed))
	} else {
		src = dice.NewCryptoSource()
	}
	diceRoller := dice.NewLoggedRoller(src, logger)

	logger.Info("starting combat daemon",
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
		zap.String("content_dir", cfg.Content.Dir),
	)

	// Reference data
	contentStart := time.Now()
	races, err := stats.LoadRaceTable(cfg.Content.Path(cfg.Content.Races))
	if err != nil {
		logger.Fatal("loading race table", zap.Error(err))
	}
	armoryReg, err := armory.LoadRegistry(armory.Dirs{
		Weapons: cfg.Content.Path(cfg.Content.Weapons),
		Armor:   cfg.Content.Path(cfg.Content.Armor),
		Shields: cfg.Content.Path(cfg.Content.Shields),
	}, logger)
	if err != nil {
		logger.Fatal("loading armory", zap.Error(err))
	}
	critTable, err := critical.LoadTable(cfg.Content.Path(cfg.Content.Criticals))
	if err != nil {
		logger.Fatal("loading critical tables", zap.Error(err))
	}
	thresholds, err := critical.LoadThresholds(cfg.Content.Path(cfg.Content.Thresholds))
	if err != nil {
		logger.Fatal("loading fatal thresholds", zap.Error(err))
	}
	logger.Info("reference data loaded",
		zap.Int("critical_entries", critTable.Len()),
		zap.Int("threshold_types", len(thresholds)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Metrics
	metricsProvider := observability.NewMetricsProvider(cfg.Metrics, logger)
	combatMetrics, err := observability.NewCombatMetrics(metricsProvider.Meter())
	if err != nil {
		logger.Fatal("creating combat metrics", zap.Error(err))
	}

	combatEngine := combat.NewEngine(combat.Deps{
		Critical:  critical.NewEngine(critTable, thresholds, logger),
		Races:     races,
		Scheduler: roundtime.NewScheduler(cfg.Engine.TickInterval),
		Roller:    diceRoller,
		Logger:    observability.Component(logger, "engine"),
		Recorder:  combatMetrics,
	})

	// Load world
	zonesDir := cfg.Content.Path(cfg.Content.Zones)
	zoneStart := time.Now()
	zones, err := world.LoadZonesFromDir(zonesDir)
	if err != nil {
		logger.Fatal("loading zones", zap.Error(err))
	}
	worldMgr, err := world.NewManager(zones)
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("zones", worldMgr.ZoneCount()),
		zap.Int("rooms", worldMgr.RoomCount()),
		zap.Duration("elapsed", time.Since(zoneStart)),
	)

	// Load NPC templates and build per-room spawn configs from zone data.
	npcTemplates, err := npc.LoadTemplates(cfg.Content.Path(cfg.Content.NPCs))
	if err != nil {
		logger.Fatal("loading npc templates", zap.Error(err))
	}
	logger.Info("loaded npc templates", zap.Int("count", len(npcTemplates)))

	npcMgr := npc.NewManager(armoryReg)

	templateByID := make(map[string]*npc.Template, len(npcTemplates))
	for _, tmpl := range npcTemplates {
		templateByID[tmpl.ID] = tmpl
	}
	roomSpawns := make(map[string][]npc.RoomSpawn)
	for _, zone := range worldMgr.AllZones() {
		for _, room := range zone.Rooms {
			for _, sc := range room.Spawns {
				if _, ok := templateByID[sc.Template]; !ok {
					logger.Fatal("spawn references unknown npc template",
						zap.String("zone", zone.ID),
						zap.String("room", room.ID),
						zap.String("template", sc.Template),
					)
				}
				roomSpawns[room.ID] = append(roomSpawns[room.ID], npc.RoomSpawn{
					TemplateID:   sc.Template,
					Max:          sc.Count,
					RespawnDelay: sc.RespawnAfter,
				})
			}
		}
	}
	respawnMgr := npc.NewRespawnManager(roomSpawns, templateByID)
	logger.Info("built respawn manager", zap.Int("room_configs", len(roomSpawns)))

	// Initialise scripting engine
	var scriptMgr *scripting.Manager
	if cfg.Content.Scripts != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(diceRoller, observability.Component(logger, "scripting"))
		defer scriptMgr.Close()

		limit := cfg.Scripting.InstructionLimit
		globalDir := cfg.Content.Path(cfg.Content.Scripts)
		if isDir(globalDir) {
			if err := scriptMgr.LoadGlobal(globalDir, limit); err != nil {
				logger.Fatal("loading global scripts", zap.String("dir", globalDir), zap.Error(err))
			}
			logger.Info("global scripts loaded", zap.String("dir", globalDir))
		}

		for _, zone := range worldMgr.AllZones() {
			if zone.ScriptDir == "" {
				continue
			}
			dir := zone.ScriptDir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(zonesDir, dir)
			}
			if !isDir(dir) {
				logger.Warn("zone script_dir not found, skipping",
					zap.String("zone", zone.ID), zap.String("dir", dir))
				continue
			}
			if err := scriptMgr.LoadZone(zone.ID, dir, limit); err != nil {
				logger.Fatal("loading zone scripts", zap.String("zone", zone.ID), zap.Error(err))
			}
			logger.Info("zone scripts loaded", zap.String("zone", zone.ID), zap.String("dir", dir))
		}
		logger.Info("scripting engine initialized", zap.Duration("elapsed", time.Since(scriptStart)))
	}

	// Connect to PostgreSQL for player state persistence
	var (
		pool  *postgres.Pool
		store gameserver.StateStore
	)
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		if err := pool.SchemaReady(ctx); err != nil {
			logger.Fatal("checking database schema", zap.Error(err))
		}
		store = postgres.NewCombatStateRepository(pool.DB())
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	narrative := observability.Component(logger, "narrative")
	broadcastFn := func(roomID string, events []*gameserver.CombatEvent) {
		for _, ev := range events {
			narrative.Info("combat",
				zap.String("room", roomID),
				zap.Stringer("type", ev.Type),
				zap.String("text", ev.Narrative),
			)
		}
	}
	if scriptMgr != nil {
		scriptMgr.Broadcast = func(roomID, msg string) {
			broadcastFn(roomID, []*gameserver.CombatEvent{{RoomID: roomID, Narrative: strings.TrimSpace(msg)}})
		}
	}

	combatHandler := gameserver.NewCombatHandler(combatEngine, npcMgr, worldMgr, diceRoller, broadcastFn, scriptMgr, respawnMgr, store, observability.Component(logger, "handler"))
	spawned := combatHandler.Populate()
	logger.Info("initial NPC population complete", zap.Int("spawned", spawned))

	ticker := gameserver.NewTicker(combatHandler, cfg.Engine.TickInterval, cfg.Engine.RemainsTTL, observability.Component(logger, "ticker"))

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	// Services stop in reverse order: the ticker first, then the save queue
	// flushes its last snapshots, then the pool closes.
	if pool != nil {
		lifecycle.Add("postgres", &server.ContextService{
			RunFn: func(ctx context.Context) error {
				defer pool.Close()
				return pool.Watch(ctx, 30*time.Second, 5*time.Second, observability.Component(logger, "postgres"))
			},
		})
	}

	if saves := combatHandler.Saves(); saves != nil {
		lifecycle.Add("state-saver", &server.ContextService{RunFn: saves.Run})
	}
	lifecycle.Add("ticker", &server.ContextService{RunFn: ticker.Run})

	if cfg.Metrics.Enabled {
		lifecycle.Add("metrics", &server.ContextService{
			RunFn: func(ctx context.Context) error {
				metricsProvider.Run(ctx)
				return nil
			},
		})
	}

	logger.Info("combat daemon initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsProvider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown", zap.Error(err))
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
