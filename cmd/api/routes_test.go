package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"voice-gateway/internal/auth"
	"voice-gateway/internal/config"
	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		App: config.AppConfig{Env: "local", Port: 3000},
		Twilio: config.TwilioConfig{
			AccountSID:   "ACtest",
			APIKeySID:    "SKtest",
			APIKeySecret: "secret",
			TwiMLAppSID:  "APtest",
		},
		Voice: config.VoiceConfig{CallerID: "+15550000000"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewWithWriter("production", &bytes.Buffer{})

	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(corsMiddleware(cfg.App.CORSAllowedOrigins))
	registerRoutes(r, buildDeps(cfg, nil, log))
	return r
}

func TestHealthz(t *testing.T) {
	r := newTestServer(t, testConfig(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestVoiceWebhookDialsClient(t *testing.T) {
	r := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/voice", strings.NewReader("To=client%3Abob&CallSid=CA1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "<Dial><Client>bob</Client></Dial>") {
		t.Fatalf("unexpected twiml %q", w.Body.String())
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	r := newTestServer(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Token           string `json:"token"`
		Identity        string `json:"identity"`
		IncomingAllowed bool   `json:"incomingAllowed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !regexp.MustCompile(`^web-\d+$`).MatchString(body.Identity) || !body.IncomingAllowed {
		t.Fatalf("unexpected body %+v", body)
	}

	issuer := auth.NewIssuer(auth.SigningConfigFrom(cfg.Twilio, cfg.Voice.TokenTTL))
	claims, err := issuer.Verify(body.Token, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Grants.Identity != body.Identity || !claims.Grants.Voice.OutboundAllowed() {
		t.Fatalf("unexpected claims %+v", claims.Grants)
	}
}

func TestTokenWithoutSigningKeyIs500(t *testing.T) {
	cfg := testConfig(t)
	cfg.Twilio.APIKeySecret = ""
	r := newTestServer(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token?identity=alice", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestChatWithoutAPIKeyIs500(t *testing.T) {
	r := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/token", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}
