// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/netintel/src/config"
	"github.com/H0llyW00dzZ/netintel/src/dnsapi"
)

func newCmdServe(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the DNS lookup API",
		Long: "Serve the DNS lookup API consumed by the DNS lookup:\n" +
			"  GET /?domain=<name>[&types=A,MX]\n" +
			"  GET /propagation?domain=<name>\n" +
			"  GET /health, /health/resolvers, /metrics",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.cfg.ListenAddr()
			if cmd.Flags().Changed("listen") {
				addr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := dnsapi.New(a.cfg.ServerOptions(a.logger)...)
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides dns.listen, default "+config.DefaultListen+")")
	return cmd
}
