// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Command netintel runs network-intelligence lookups from the terminal and
// serves the DNS lookup API.
//
//	netintel query example.com --analyze
//	netintel query 93.184.216.34 --json
//	netintel serve --listen :8080
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/netintel/src/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:     "netintel",
		Short:   "Network intelligence lookups for domains and IP addresses",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("NETINTEL_CONFIG")
	cmd.PersistentFlags().String("config", defaultConfig, "Path to a YAML config file (env NETINTEL_CONFIG)")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace|debug|info|warn|error), overrides log_level")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		path, _ := c.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if level, _ := c.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		lvl, err := cfg.Level()
		if err != nil {
			return err
		}

		a.cfg = cfg
		a.logger = newLogger(c.ErrOrStderr(), lvl)
		return nil
	}

	cmd.AddCommand(newCmdQuery(a))
	cmd.AddCommand(newCmdServe(a))
	cmd.AddCommand(newCmdVersion())
	return cmd
}

// newLogger returns a human-readable zerolog logger writing to w.
func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			// Keep output minimal and script-friendly
			fmt.Fprintf(cmd.OutOrStdout(), "netintel version %s\n", version)
		},
	}
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "netintel: %s\n", strings.TrimPrefix(err.Error(), "netintel: "))
		os.Exit(1)
	}
}
