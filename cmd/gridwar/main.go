package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridwar/server/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "gridwar",
		Usage: "turn-based grid combat engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the TOML configuration",
				Value:   "config/server.toml",
				Sources: cli.EnvVars("GRIDWAR_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "snapshot",
				Usage:  "create the configured match and print its initial state as JSON",
				Action: snapshotAction,
			},
			{
				Name:      "play",
				Usage:     "apply a JSON-lines command script to a fresh match",
				ArgsUsage: "<script.jsonl | ->",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "final", Usage: "print the final snapshot after the script"},
				},
				Action: playAction,
			},
			{
				Name:      "replay",
				Usage:     "rebuild a journaled match from the database",
				ArgsUsage: "<match-id>",
				Action:    replayAction,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateAction,
			},
		},
	}
}

// loadConfig reads the --config file, falling back to built-in defaults when
// the default path does not exist.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); os.IsNotExist(err) && !cmd.IsSet("config") {
		return config.Default(), nil
	}
	return config.Load(path)
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
	// stdout carries command output.
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
