// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package practice_routers

import (
	"github.com/gin-gonic/gin"

	healthCheckApi "github.com/rapidaai/practice/api/health-check-api"
	"github.com/rapidaai/practice/config"
	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/connectors"
)

// HealthCheckRoutes mounts the liveness and readiness probes at the engine
// root, outside the versioned practice group.
func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, db connectors.Connector) {
	logger.Infow("mounting health and readiness probes", "service", cfg.Name)
	root := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, db)
	{
		root.GET("/readiness/", hcApi.Readiness)
		root.GET("/healthz/", hcApi.Healthz)
	}
}
