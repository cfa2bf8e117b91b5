package main

import (
	"fmt"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/config"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/db"
	"gorm.io/gorm"
)

const defaultConfigPath = "slworklog.yaml"

// connectFromConfig loads the config file and opens the service database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}
