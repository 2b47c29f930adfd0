// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package healthcheck_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/practice/config"
	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/connectors"
)

type healthCheckApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	db     connectors.Connector
}

func New(cfg *config.AppConfig, logger commons.Logger, db connectors.Connector) *healthCheckApi {
	return &healthCheckApi{cfg: cfg, logger: logger, db: db}
}

// Healthz reports process liveness.
func (h *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.cfg.Name,
		"version": h.cfg.Version,
	})
}

// Readiness additionally verifies the database is reachable.
func (h *healthCheckApi) Readiness(c *gin.Context) {
	var one int
	if err := h.db.DB(c.Request.Context()).Raw("SELECT 1").Scan(&one).Error; err != nil {
		h.logger.Warnw("readiness check failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
