// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package practice_routers

import (
	"github.com/gin-gonic/gin"

	practiceApi "github.com/rapidaai/practice/api/practice-api/practice"
	"github.com/rapidaai/practice/config"
	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/connectors"
)

// PracticeApiRoute mounts the practice session endpoints on the engine and
// returns the api so the caller can shut it down on exit.
func PracticeApiRoute(
	cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	db connectors.Connector,
) (*practiceApi.PracticeApi, error) {
	api, err := practiceApi.NewPracticeApi(cfg, logger, db)
	if err != nil {
		return nil, err
	}

	apiv1 := engine.Group("v1/practice")
	{
		apiv1.POST("/session", api.CreateSession)
		apiv1.GET("/session/:sessionId", api.GetSession)
		apiv1.DELETE("/session/:sessionId", api.DeleteSession)
		apiv1.POST("/session/:sessionId/submit", api.Submit)
		apiv1.GET("/session/:sessionId/recordings", api.ListRecordings)

		// slot commands
		apiv1.POST("/session/:sessionId/slot/:slotId/start", api.StartRecording)
		apiv1.POST("/session/:sessionId/slot/:slotId/stop", api.StopRecording)
		apiv1.POST("/session/:sessionId/slot/:slotId/re-record", api.ReRecord)
		apiv1.GET("/session/:sessionId/slot/:slotId/payload", api.GetPayload)

		// audio ingest (websocket)
		apiv1.GET("/session/:sessionId/slot/:slotId/ingest", api.Ingest)
	}

	return api, nil
}
