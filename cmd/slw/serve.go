package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/lease"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the layout service",
		Long:  "Launches the HTTP API for layout viewing and editing, slot swaps, work sessions, and the viewer resync channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	// A periodic sweep clears leases left behind by crashed editors even
	// when no one is trying to acquire.
	if cfg.Lease.Sweep {
		c := cron.New()
		timeout := cfg.LeaseTimeout()
		_, err := c.AddFunc("@every 1m", func() {
			removed, err := lease.SweepStale(gormDB, timeout)
			if err != nil {
				log.Printf("lease sweep: %v", err)
				return
			}
			if removed > 0 {
				log.Printf("lease sweep: removed %d stale lease(s)", removed)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule lease sweep: %w", err)
		}
		c.Start()
		defer c.Stop()
	}

	return server.Start(ctx, server.StartOpts{
		DB:             gormDB,
		Port:           port,
		Out:            cmd.OutOrStdout(),
		DebounceWindow: cfg.DebounceWindow(),
		LeaseTimeout:   cfg.LeaseTimeout(),
	})
}
