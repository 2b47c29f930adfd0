// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package configs

// PostgresConfig holds connection settings for the shared Postgres instance.
type PostgresConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required"`
	DbName             string `mapstructure:"db_name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password"`
	SslMode            string `mapstructure:"ssl_mode"`
	MaxOpenConnection  int    `mapstructure:"max_open_connection"`
	MaxIdealConnection int    `mapstructure:"max_ideal_connection"`
}

// SqliteConfig holds settings for the embedded sqlite database used by
// single-node deployments and tests.
type SqliteConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// UploaderConfig holds settings for handing finalized recordings to the
// learning-management backend.
type UploaderConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	ApiKey    string `mapstructure:"api_key"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}
