package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show layout service status",
		Long:  "Displays the current edit lease holder, layout shape, and open work sessions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var l models.EditLease
	err = gormDB.Where("resource_type = ?", "layout").First(&l).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fmt.Fprintln(out, "Edit lease: free")
	case err != nil:
		return fmt.Errorf("read lease: %w", err)
	case time.Since(l.LastHeartbeat) > cfg.LeaseTimeout():
		fmt.Fprintf(out, "Edit lease: stale (last held by %s, heartbeat %s ago)\n",
			l.OwnerName, time.Since(l.LastHeartbeat).Round(time.Second))
	default:
		fmt.Fprintf(out, "Edit lease: held by %s since %s\n",
			l.OwnerName, l.AcquiredAt.Format(time.RFC3339))
	}

	snap, err := layout.Load(gormDB)
	if err != nil {
		return err
	}
	processes, assigned := 0, 0
	for _, line := range snap.Lines {
		processes += len(line.Processes)
		for _, p := range line.Processes {
			for _, s := range p.Slots {
				if s.WorkerID != nil {
					assigned++
				}
			}
		}
	}
	fmt.Fprintf(out, "Layout: %d lines, %d processes, %d assigned slots\n",
		len(snap.Lines), processes, assigned)

	var open int64
	if err := gormDB.Model(&models.WorkLog{}).Where("ended_at IS NULL").Count(&open).Error; err != nil {
		return fmt.Errorf("count open sessions: %w", err)
	}
	fmt.Fprintf(out, "Open work sessions: %d\n", open)
	return nil
}
