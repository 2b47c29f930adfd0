// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package practice_routers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/practice/config"
	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/configs"
	"github.com/rapidaai/practice/pkg/connectors"
)

func TestHealthAndReadinessProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-router"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)

	db, err := connectors.NewSqliteConnector(configs.SqliteConfig{Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.AppConfig{Name: "practice-api-test", Version: "test"}
	engine := gin.New()
	HealthCheckRoutes(cfg, engine, logger, db)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/healthz/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "practice-api-test", health["service"])

	resp, err = http.Get(server.URL + "/readiness/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
