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
	"gorm.io/gorm"
)

// Connector is the common surface of every database connector. Stores depend
// on this interface rather than a concrete driver so the same store runs
// against Postgres in production and sqlite in tests.
type Connector interface {
	// DB returns a request-scoped gorm handle.
	DB(ctx context.Context) *gorm.DB
	// Close releases the underlying connection pool.
	Close() error
}

// PostgresConnector marks a connector backed by Postgres.
type PostgresConnector interface {
	Connector
}

// SqliteConnector marks a connector backed by an embedded sqlite database.
type SqliteConnector interface {
	Connector
}

// NewDatabaseConnector opens the connector selected by driver: "postgres" for
// the shared instance, "sqlite" (the default) for the embedded database.
func NewDatabaseConnector(
	driver string,
	pg configs.PostgresConfig, lite configs.SqliteConfig,
	lg commons.Logger,
) (Connector, error) {
	switch driver {
	case "postgres":
		return NewPostgresConnector(pg, lg)
	case "sqlite", "":
		return NewSqliteConnector(lite, lg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
