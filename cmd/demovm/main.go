package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/farmdemo/server/internal/config"
	"github.com/farmdemo/server/internal/core/event"
	coresys "github.com/farmdemo/server/internal/core/system"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/demo"
	"github.com/farmdemo/server/internal/expand"
	"github.com/farmdemo/server/internal/locale"
	"github.com/farmdemo/server/internal/motion"
	"github.com/farmdemo/server/internal/persist"
	"github.com/farmdemo/server/internal/scheduler"
	"github.com/farmdemo/server/internal/scripting"
	"github.com/farmdemo/server/internal/system"
	"github.com/farmdemo/server/internal/terrain"
	"github.com/farmdemo/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(lang string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             FarmBot demo  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       Lua + sequence motion interpreter   \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mlanguage:\033[0m %s\n\n", lang)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main demo logic ───────────────────────────────────────────────

func run() error {
	luaPath := flag.String("lua", "", "Lua file to run")
	sequenceID := flag.Int("sequence", 0, "sequence id to run")
	cfgPath := flag.String("config", config.Path(), "config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Runtime.Language)

	// 3. Optional PostgreSQL sinks
	var repos *repoSet
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()

		repos = &repoSet{
			points: persist.NewPointRepo(db),
			images: persist.NewImageRepo(db),
			logs:   persist.NewLogRepo(db),
		}
	}

	// 4. Garden resources
	printSection("garden")
	res, err := data.LoadResources(cfg.Data.Resources)
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}
	printStat("resources", res.Count())

	session := data.NewStore(nil)
	overrides := data.NewStore(cfg.OverrideValues())

	// 5. Soil surface
	triangles, err := loadSurface(cfg, res, session, repos)
	if err != nil {
		return fmt.Errorf("soil surface: %w", err)
	}
	printStat("soil surface triangles", triangles)
	fmt.Println()

	garden := data.NewGarden(res, session, cfg.Device.SafeHeight, cfg.Terrain.FallbackZ, log)

	// 6. Simulated bot and event bus
	bus := event.NewBus()
	bot := world.NewState(res, cfg.Device.MountedToolID, log)
	bot.Attach(bus)
	console := world.NewConsole(log)
	console.Attach(bus)

	// 7. Interpreter
	tr := locale.New(cfg.Runtime.Language)
	cursor := expand.NewCursor(motion.Xyz{})
	expander := expand.New(garden, overrides, cursor, expand.Options{
		Workspace: expand.Workspace{Size: cfg.GardenSize(), HomeUpZ: cfg.Firmware.MovementHomeUpZ},
		AxisOrder: cfg.Device.DefaultAxisOrder,
		Jitter:    func() float64 { return float64(rand.Intn(21) - 10) },
	}, log)
	sched := scheduler.New(bus, bot, cursor, scheduler.SystemClock{}, tr,
		scheduler.Config{ImageBaseURL: cfg.Runtime.ImageBaseURL}, log)
	runner := demo.NewRunner(scripting.NewEngine(garden, log), res, expander, sched, tr, log)

	// 8. Systems
	systems := coresys.NewRunner()
	systems.Register(event.NewDispatchSystem(bus))
	systems.Register(sched)
	var persistence *system.PersistenceSystem
	if repos != nil {
		persistence = system.NewPersistenceSystem(repos.points, repos.images, repos.logs,
			time.Now, cfg.Runtime.LogSaveDelay, log)
		persistence.Attach(bus)
		systems.Register(persistence)
	}

	// 9. Submit the program
	if *luaPath != "" {
		code, err := os.ReadFile(*luaPath)
		if err != nil {
			return fmt.Errorf("read lua %s: %w", *luaPath, err)
		}
		if err := runner.RunLuaCode(string(code)); err != nil {
			return err
		}
	}
	if *sequenceID != 0 {
		if err := runner.RunSequence(*sequenceID, nil); err != nil {
			return err
		}
	}

	// 10. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Runtime.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("%d effects queued", sched.Pending()))
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Runtime.TickRate))
	fmt.Println()

	stop := func() {
		// Deliver the records of the last tick before the final flush.
		systems.TickPhase(coresys.PhasePreUpdate, 0)
		if persistence != nil {
			persistence.Flush()
		}
		printSection("finished")
		printStat("toasts", len(console.Toasts()))
		printStat("messages", len(console.Messages()))
		printStat("photos", len(console.Photos()))
		p := bot.Position()
		printReady(fmt.Sprintf("bot at (%g, %g, %g)", p.X, p.Y, p.Z))
	}

	for {
		select {
		case <-ticker.C:
			systems.Tick(cfg.Runtime.TickRate)
			if cfg.Runtime.ExitWhenIdle && sched.Idle() && bus.Pending() == 0 {
				log.Info("queue drained")
				stop()
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if sig == syscall.SIGINT && !sched.Idle() {
				sched.EStop()
			}
			stop()
			return nil
		}
	}
}

type repoSet struct {
	points *persist.PointRepo
	images *persist.ImageRepo
	logs   *persist.LogRepo
}

// loadSurface fills the session terrain dataset: from the configured
// dataset file when there is one, else triangulated from the measured soil
// points inside the bed. With no points the bed is flat at soil height.
func loadSurface(cfg *config.Config, res *data.Resources, session *data.Store, repos *repoSet) (int, error) {
	if cfg.Terrain.Dataset != "" {
		triangles, err := terrain.LoadFile(cfg.Terrain.Dataset)
		if err != nil {
			return 0, err
		}
		raw, err := terrain.Encode(triangles)
		if err != nil {
			return 0, err
		}
		session.Set(data.KeySoilSurface, string(raw))
		return len(triangles), nil
	}

	points := res.SoilHeightPoints()
	if repos != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stored, err := repos.points.SoilHeightPoints(ctx)
		if err != nil {
			return 0, fmt.Errorf("load soil height points: %w", err)
		}
		points = append(points, stored...)
	}
	return data.BuildSoilSurface(session, points, cfg.Geometry())
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
