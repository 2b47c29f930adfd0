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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type postgresConnector struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewPostgresConnector opens a pooled Postgres connection from config.
func NewPostgresConnector(cfg configs.PostgresConfig, lg commons.Logger) (PostgresConnector, error) {
	sslMode := cfg.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DbName, sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres %s:%d/%s: %w",
			cfg.Host, cfg.Port, cfg.DbName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres connection pool: %w", err)
	}
	if cfg.MaxOpenConnection > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConnection)
	}
	if cfg.MaxIdealConnection > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdealConnection)
	}

	lg.Infow("connected to postgres", "host", cfg.Host, "db", cfg.DbName)
	return &postgresConnector{db: db, logger: lg}, nil
}

func (c *postgresConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *postgresConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
