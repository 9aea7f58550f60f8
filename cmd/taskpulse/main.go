package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/app"
	"github.com/ternarybob/taskpulse/internal/common"
)

var (
	configFile   = flag.String("config", "", "Configuration file path")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("TaskPulse version %s\n", common.VersionString())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Initialize logger
	// 3. Print banner

	// Auto-discover config file if not specified
	path := *configFile
	if path == "" {
		if _, err := os.Stat("taskpulse.toml"); err == nil {
			path = "taskpulse.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Str("path", path).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Str("config_file", path).
		Str("environment", config.Environment).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	logger.Info().Msg("TaskPulse running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}
