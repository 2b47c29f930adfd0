// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package connectors

import (
	"context"
	"fmt"

	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/configs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sqliteConnector struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewSqliteConnector opens (or creates) the embedded sqlite database at the
// configured path. Pass ":memory:" for an ephemeral database in tests.
func NewSqliteConnector(cfg configs.SqliteConfig, lg commons.Logger) (SqliteConnector, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err)
	}

	lg.Infow("opened sqlite database", "path", cfg.Path)
	return &sqliteConnector{db: db, logger: lg}, nil
}

func (c *sqliteConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *sqliteConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
