package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-gateway/internal/assistant"
	"voice-gateway/internal/auth"
	"voice-gateway/internal/config"
	"voice-gateway/internal/httpapi"
	"voice-gateway/internal/identity"
	"voice-gateway/internal/telephony"
	"voice-gateway/pkg/logger"
	"voice-gateway/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	} else {
		log.Warn("REDIS_HOST not set; call placement cap disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(corsMiddleware(cfg.App.CORSAllowedOrigins))

	registerRoutes(r, buildDeps(cfg, rdb, log))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// buildDeps constructs the request-path collaborators. Missing provider
// credentials are logged here and reported per request.
func buildDeps(cfg config.Config, rdb *redis.Client, log *slog.Logger) deps {
	if cfg.Twilio.APIKeySID == "" || cfg.Twilio.APIKeySecret == "" || cfg.Twilio.AccountSID == "" {
		log.Warn("twilio signing credentials incomplete; token issuance will fail")
	}
	if cfg.Assistant.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set; chat and speech will fail")
	}

	var calls telephony.Provider = telephony.NewTwilioProvider(cfg.Twilio, nil)
	if rdb != nil {
		calls = telephony.CappedProvider{
			Provider: calls,
			Slots: utils.ConcurrencySlots{
				Client: rdb,
				Limit:  cfg.Limits.CallConcurrency,
				TTL:    cfg.Limits.CallSlotTTL,
			},
		}
	}

	ai := assistant.New(cfg.Assistant, nil)

	return deps{
		voice: telephony.VoiceWebhookHandler{
			OutboundCallerID: cfg.Voice.CallerID,
			FallbackNumber:   cfg.Voice.FallbackNumber,
		},
		api: httpapi.Handlers{
			Identities:  identity.NewAllocator(nil),
			Issuer:      auth.NewIssuer(auth.SigningConfigFrom(cfg.Twilio, cfg.Voice.TokenTTL)),
			Calls:       calls,
			Completer:   ai,
			Synthesizer: ai,
			Voice: httpapi.VoiceSettings{
				CallerID:           cfg.Voice.CallerID,
				FallbackNumber:     cfg.Voice.FallbackNumber,
				DefaultCountryCode: cfg.Voice.DefaultCountryCode,
				OutboundTwiMLURL:   cfg.Voice.OutboundTwiMLURL,
			},
		},
		upstreamLimiter: httpapi.NewClientLimiter(cfg.Limits.UpstreamRPS, cfg.Limits.UpstreamBurst),
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "X-Request-Id")
	cc.ExposeHeaders = []string{"X-Request-Id"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}
