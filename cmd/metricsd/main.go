package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/metricsd/internal/config"
	"git.home.luguber.info/inful/metricsd/internal/daemon"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"metricsd.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		NoWatch bool `help:"Disable configuration file watching"`
	} `cmd:"" help:"Run the metrics daemon"`

	Validate struct {
	} `cmd:"" help:"Validate the configuration file and exit"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Snapshot struct {
	} `cmd:"" help:"Print a one-off JSON snapshot of the configured registry"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Bootstrap logging before the config is loaded; serve reconfigures it
	// from the config file.
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if CLI.Verbose {
		level.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	switch ctx.Command() {
	case "serve":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		configureLogging(cfg, level)
		if err := runServe(cfg, level); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "validate":
		if _, err := config.Load(CLI.Config); err != nil {
			slog.Error("Configuration is invalid", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration is valid: %s\n", CLI.Config)
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote example configuration: %s\n", CLI.Config)
	case "snapshot":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runSnapshot(cfg); err != nil {
			slog.Error("Snapshot failed", "error", err)
			os.Exit(1)
		}
	}
}

// configureLogging applies the configured level and format. The -v flag
// wins over the configured level.
func configureLogging(cfg *config.Config, level *slog.LevelVar) {
	if !CLI.Verbose {
		level.Set(cfg.Logging.Level.SlogLevel())
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runServe(cfg *config.Config, level *slog.LevelVar) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configFile := CLI.Config
	if CLI.Serve.NoWatch {
		configFile = ""
	}

	d, err := daemon.NewDaemonWithConfigFile(cfg, configFile, level)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	slog.Info("Daemon stopped")
	return nil
}

// runSnapshot builds the facade, captures one JSON document and prints it.
func runSnapshot(cfg *config.Config) error {
	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		return err
	}

	body, err := d.Facade().ToJSON()
	if err != nil {
		return fmt.Errorf("failed to capture snapshot: %w", err)
	}

	fmt.Println(body)
	return nil
}
