// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rapidaai/practice/pkg/configs"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path"`

	// DatabaseDriver selects the archive backend: sqlite for single-node
	// deployments, postgres for the shared instance.
	DatabaseDriver string                 `mapstructure:"database_driver" validate:"required,oneof=sqlite postgres"`
	SqliteConfig   configs.SqliteConfig   `mapstructure:"sqlite" validate:"required"`
	PostgresConfig configs.PostgresConfig `mapstructure:"postgres"`
	UploaderConfig configs.UploaderConfig `mapstructure:"uploader"`

	// Capture pipeline knobs. Sample rate and the ingest attach timeout are
	// deployment-tunable; everything else about the pipeline lives with the
	// session defaults.
	CaptureSampleRate    int `mapstructure:"capture_sample_rate" validate:"required"`
	CaptureAttachTimeout int `mapstructure:"capture_attach_timeout_ms" validate:"required"`
	MaxRecordingSeconds  int `mapstructure:"max_recording_seconds"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	v.SetDefault("SERVICE_NAME", "practice-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("SQLITE__PATH", "practice.db")

	v.SetDefault("POSTGRES__HOST", "127.0.0.1")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "practice")
	v.SetDefault("POSTGRES__USER", "practice")
	v.SetDefault("POSTGRES__PASSWORD", "")
	v.SetDefault("POSTGRES__SSL_MODE", "disable")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 5)

	v.SetDefault("UPLOADER__ENDPOINT", "")
	v.SetDefault("UPLOADER__API_KEY", "")
	v.SetDefault("UPLOADER__TIMEOUT_MS", 30000)

	v.SetDefault("CAPTURE_SAMPLE_RATE", 44100)
	v.SetDefault("CAPTURE_ATTACH_TIMEOUT_MS", 10000)
	v.SetDefault("MAX_RECORDING_SECONDS", 0) // 0 = uncapped
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
