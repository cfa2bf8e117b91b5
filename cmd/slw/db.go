package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/config"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/db"
)

// defaultGroups seeds the initial layout group names for a fresh install.
var defaultGroups = []string{"Assembly", "Inspection"}

// defaultSettings seeds service-level settings stored alongside the layout.
var defaultSettings = map[string]string{
	"slot.statuses": "normal,overtime,extended",
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the layout database",
		Long:  "Creates the MySQL database, migrates all tables, and seeds line groups and settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adminDB, err := db.ConnectAdmin(cfg.MySQL)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.MySQL.Host, cfg.MySQL.Port)

	if err := db.CreateDatabase(adminDB, cfg.MySQL.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.MySQL.Database)

	gormDB, err := db.Connect(cfg.MySQL)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedGroups(gormDB, defaultGroups); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d line groups: %s\n", len(defaultGroups), strings.Join(defaultGroups, ", "))

	if err := db.SeedConfig(gormDB, defaultSettings); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nLayout database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the layout database",
		Long:  "Drops the configured database, then re-creates, migrates, and seeds it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !skipConfirm && !confirmReset(cmd, cfg.MySQL.Database) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	adminDB, err := db.ConnectAdmin(cfg.MySQL)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.MySQL.Host, cfg.MySQL.Port)

	if err := db.DropDatabase(adminDB, cfg.MySQL.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Dropped database %s\n", cfg.MySQL.Database)

	return runDBInit(cmd, configPath)
}

func confirmReset(cmd *cobra.Command, dbName string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in database %q.\n", dbName)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
