package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minefield/server/internal/config"
	"github.com/minefield/server/internal/game"
	gonet "github.com/minefield/server/internal/net"
	"github.com/minefield/server/internal/persist"
	"github.com/minefield/server/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	host := flag.String("host", "", "listen address (overrides config)")
	port := flag.Int("port", 0, "listen port (overrides config)")
	debug := flag.Bool("debug", false, "debug mode: serve the static client files")
	flag.Parse()

	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("MINEFIELD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
	}
	if *host != "" {
		cfg.Network.Host = *host
	}
	if *port != 0 {
		cfg.Network.Port = *port
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Connect to PostgreSQL and run migrations
	baseCtx := context.Background()
	initCtx, cancel := context.WithTimeout(baseCtx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(initCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := persist.RunMigrations(initCtx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// 4. Restore unfinished matches and start the registry
	roomRepo := persist.NewRoomRepo(db)
	srv := server.New(roomRepo, game.ShuffledDeal{}, log)
	if err := srv.LoadRooms(initCtx); err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	// 5. Start the websocket listener
	netSrv := gonet.NewServer(cfg.Network, *debug, log)
	go func() {
		if err := netSrv.ListenAndServe(); err != nil {
			log.Error("listener failed", zap.Error(err))
		}
	}()
	log.Info("listening", zap.String("addr", netSrv.Addr()), zap.Bool("debug", *debug))

	// 6. Server loop: every mutation of server, room and game state
	// happens here, on one goroutine.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.BeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-netSrv.Events():
			switch ev.Kind {
			case gonet.Connected:
				srv.HandleConnect(ev.Sess)
			case gonet.Frame:
				srv.HandleMessage(baseCtx, ev.Sess, ev.Data)
			case gonet.Disconnected:
				srv.HandleDisconnect(ev.Sess)
			}
		case <-ticker.C:
			srv.Beat(baseCtx)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			stopCtx, stop := context.WithTimeout(baseCtx, 10*time.Second)
			srv.Stop(stopCtx)
			netSrv.Shutdown(stopCtx)
			stop()
			log.Info("stopped")
			return nil
		}
	}
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
