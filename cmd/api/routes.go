package main

import (
	"voice-gateway/internal/httpapi"
	"voice-gateway/internal/telephony"

	"github.com/gin-gonic/gin"
)

type deps struct {
	voice           telephony.VoiceWebhookHandler
	api             httpapi.Handlers
	upstreamLimiter *httpapi.ClientLimiter
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Provider webhook (public).
	// NOTE: This endpoint should be protected by Twilio signature validation in production.
	api.POST("/voice", d.voice.HandleCallSetup)

	api.GET("/token", d.api.Token)
	api.GET("/config", d.api.Config)

	api.POST("/call", d.api.PlaceCall)
	api.POST("/end-call", d.api.EndCall)

	// Assistant routes proxy to a metered upstream.
	assistantGroup := api.Group("")
	if d.upstreamLimiter != nil {
		assistantGroup.Use(d.upstreamLimiter.Middleware())
	}
	{
		assistantGroup.POST("/chat", d.api.Chat)
		assistantGroup.POST("/tts", d.api.Speech)
	}
}
