package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/ranchsim/server/internal/config"
	"github.com/ranchsim/server/internal/data"
	"github.com/ranchsim/server/internal/persist"
	"github.com/ranchsim/server/internal/scripting"
	"github.com/ranchsim/server/internal/sim"
	"github.com/ranchsim/server/internal/system"
	"github.com/ranchsim/server/internal/transport/observer"
	"github.com/ranchsim/server/internal/tui"
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

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              ranchsim  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main logic ─────────────────────────────────────────────────────

func run() error {
	scenario := flag.String("scenario", "", "run a Lua scenario without the terminal UI and exit")
	flag.Parse()

	// 1. Load config. The default path may be absent; an explicit one may not.
	cfgPath, explicit := "config/ranchsim.toml", false
	if p := os.Getenv("RANCHSIM_CONFIG"); p != "" {
		cfgPath, explicit = p, true
	}
	cfg, err := config.Load(cfgPath, !explicit)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger. The terminal UI owns stdout, so logs go to a file.
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Livestock definition
	printSection("data")
	kind := data.DefaultLivestock()
	if cfg.Data.Livestock != "" {
		kind, err = data.LoadLivestock(cfg.Data.Livestock)
		if err != nil {
			return fmt.Errorf("load livestock: %w", err)
		}
	}
	printOK(fmt.Sprintf("livestock %q: cost %v, payout %v, lifetime %v", kind.Name, kind.Cost, kind.Payout, kind.Lifetime))

	// 4. Simulation
	runID := uuid.New()
	s, err := sim.New(sim.Options{
		Step:            cfg.Sim.TickRate,
		StartingBalance: cfg.Sim.StartingBalance,
		PlayerSpeed:     cfg.Sim.PlayerSpeed,
		Seed:            cfg.Sim.Seed,
		Kind:            kind,
		RunID:           runID,
		Log:             log,
	})
	if err != nil {
		return fmt.Errorf("init sim: %w", err)
	}
	printOK(fmt.Sprintf("run %s, seed %d", runID, s.Seed()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 5. Ledger journal
	printSection("outputs")
	openCtx, cancelOpen := context.WithTimeout(ctx, 30*time.Second)
	journal, err := persist.OpenJournal(openCtx, cfg.Journal, log.Named("journal"))
	cancelOpen()
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if journal != nil {
		writer := persist.NewJournalWriter(journal, cfg.Journal.QueueSize, log.Named("journal"))
		journalSys := system.NewJournalSystem(s.State, writer, runID, cfg.Journal.FlushTicks)
		s.Register(journalSys)
		defer func() {
			journalSys.Flush()
			if err := writer.Close(); err != nil {
				log.Error("journal close", zap.Error(err))
			}
			log.Info("journal closed",
				zap.Uint64("written", writer.Written()),
				zap.Uint64("dropped", writer.Dropped()))
		}()
		printOK("ledger journal: " + cfg.Journal.Driver)
	}

	// 6. Tick log
	if cfg.TickLog.Enabled {
		ticks, err := persist.NewTickLogger(cfg.TickLog.Dir, runID.String())
		if err != nil {
			return fmt.Errorf("tick log: %w", err)
		}
		defer func() {
			if err := ticks.Close(); err != nil {
				log.Error("tick log close", zap.Error(err))
			}
		}()
		s.Register(system.NewTickLogSystem(s.State, s.Bus, ticks, runID.String(), log.Named("ticklog")))
		printOK("tick log: " + ticks.Path())
	}

	// 7. Render observer
	if cfg.Observer.Enabled {
		obs := observer.NewServer(runID.String(), cfg.Sim.StartingBalance, s.Bus, log.Named("observer"))
		s.Register(system.NewBroadcastSystem(s.State, obs, cfg.Observer.FrameEvery))
		go func() {
			if err := obs.ListenAndServe(ctx, cfg.Observer.BindAddress); err != nil {
				log.Error("observer stopped", zap.Error(err))
			}
		}()
		printOK("observer: ws://" + cfg.Observer.BindAddress + "/ws")
	}

	defer func() {
		log.Info("simulation stopped",
			zap.Uint64("tick", s.State.Tick()),
			zap.Float64("balance", s.State.Ledger.Balance()),
			zap.Int("livestock", s.State.LivestockCount()))
	}()

	// 8. Headless scenario or interactive terminal
	if *scenario != "" {
		engine := scripting.NewEngine(s, log.Named("lua"))
		defer engine.Close()
		if err := engine.RunFile(*scenario); err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		printOK("scenario passed: " + *scenario)
		return nil
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer screen.Fini()

	return tui.New(screen, s, cfg.Frontend).Run(ctx, cfg.Sim.TickRate)
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
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	} else if cfg.Format != "json" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zapCfg.Build()
}
