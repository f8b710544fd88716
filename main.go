package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/awion/stadion360/config"
	"github.com/awion/stadion360/public/analyzer"
	"github.com/awion/stadion360/public/api"
	"github.com/awion/stadion360/public/metrics"
	"github.com/awion/stadion360/public/realtime"
	"github.com/awion/stadion360/public/simulator"
	"github.com/awion/stadion360/public/store"
	"github.com/awion/stadion360/ui"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information
var Version = "0.1.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	version := flag.Bool("version", false, "Display version information")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	noCLI := flag.Bool("no-cli", false, "Run without the terminal dashboard")
	flag.Parse()

	if *version {
		fmt.Printf("Stadion 360° v%s\n", Version)
		os.Exit(0)
	}

	if *initConfig {
		if err := config.CreateDefaultConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved configuration to %s\n", *configPath)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	usingDefaults := false
	if errors.Is(err, config.ErrNotFound) {
		cfg = config.Default()
		usingDefaults = true
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		cfg.Logging.Verbose = true
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	if usingDefaults {
		logger.Warn("Configuration file not found, using defaults", zap.String("path", *configPath))
	}

	// Rules and store
	rules := analyzer.NewAnalyzer(cfg.Trash.Bands, cfg.Security, logger.Named("analyzer"))
	st, err := store.NewStore(cfg.Store, store.WithRules(rules), store.WithLogger(logger.Named("store")))
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Observers
	registry := prometheus.NewRegistry()
	var gatherer prometheus.Gatherer
	if cfg.API.Metrics {
		collector := metrics.NewCollector(registry)
		defer collector.Attach(st)()
		gatherer = registry
	}

	var hub *realtime.Hub
	if cfg.API.Realtime {
		hub = realtime.NewHub(st.Snapshot, logger.Named("realtime"))
		go hub.Run(ctx)
		defer st.Subscribe(hub.Publish)()
	}

	// Simulation drivers
	sim := simulator.NewSimulator(cfg.Scenarios, st, logger.Named("simulator"))
	sim.Start()
	rules.Start(st)

	// HTTP API
	var server *http.Server
	if cfg.API.Enabled {
		if !cfg.Logging.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		handler := api.NewHandler(st, sim, hub, gatherer, logger.Named("api"), Version)
		server = &http.Server{
			Addr:              net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port)),
			Handler:           handler.NewRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("Starting HTTP server", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	// Terminal dashboard
	var cliUI *ui.CLI
	var cliDone <-chan struct{}
	if !*noCLI {
		cliUI = ui.NewCLI(os.Stdin, os.Stdout, st, sim, cfg.CLI, logger.Named("cli"))
		cliUI.Start()
		cliDone = cliUI.Done()
	}

	logger.Info("Stadion 360° started",
		zap.String("version", Version),
		zap.Bool("api", cfg.API.Enabled),
		zap.Bool("cli", !*noCLI),
		zap.Int("scenarios", sim.Running()))

	// Wait for termination signal or for the operator to quit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case <-cliDone:
		logger.Info("Terminal closed, shutting down")
	}

	// Stop components
	if cliUI != nil {
		cliUI.Stop()
	}
	sim.Stop()
	rules.Stop()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.API.ShutdownTimeout)*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
		}
		shutdownCancel()
	}

	logger.Info("Stadion 360° terminated")
}

// initLogger builds the application logger. A configured file keeps log
// lines out of the terminal dashboard.
func initLogger(cfg *config.Config) *zap.Logger {
	var zapConfig zap.Config
	if cfg.Logging.Verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if cfg.Logging.Verbose {
		level = zapcore.DebugLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.Logging.File != "" {
		zapConfig.OutputPaths = []string{cfg.Logging.File}
		zapConfig.ErrorOutputPaths = []string{cfg.Logging.File}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}
