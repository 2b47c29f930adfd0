// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package commons

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide structured logging interface. All services,
// stores and pipeline components receive a Logger at construction time and
// never log through package-level state.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Sync() error
}

// LoggerOption configures NewApplicationLogger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	name  string
	path  string
	level string
}

// Name sets the service name attached to every log line (and the log file
// basename when file logging is enabled).
func Name(name string) LoggerOption {
	return func(c *loggerConfig) { c.name = name }
}

// Path enables file logging (with rotation) under the given directory.
// Without a path, logs go to stdout only.
func Path(path string) LoggerOption {
	return func(c *loggerConfig) { c.path = path }
}

// Level sets the minimum log level: debug, info, warn or error.
func Level(level string) LoggerOption {
	return func(c *loggerConfig) { c.level = level }
}

type applicationLogger struct {
	*zap.SugaredLogger
}

// NewApplicationLogger builds the standard zap-backed logger. All options are
// optional — the zero-option call returns an info-level stdout logger, which is
// what tests use.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	cfg := loggerConfig{
		name:  "application",
		level: "info",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	level, err := zapcore.ParseLevel(cfg.level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stdout),
			level,
		),
	}

	if cfg.path != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.path, cfg.name+".log"),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(rotator),
			level,
		))
	}

	logger := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
	).Named(cfg.name)

	return &applicationLogger{logger.Sugar()}, nil
}
