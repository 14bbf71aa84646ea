package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newVoiceRouter(h VoiceWebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/voice", h.HandleCallSetup)
	return r
}

func postVoice(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, newFormRequest(body))
	return w
}

func TestHandleCallSetup_ClientTarget(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{OutboundCallerID: "+15550000000", FallbackNumber: "+15559999999"})

	w := postVoice(r, "To=client%3Abob")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("expected text/xml, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Client>bob</Client>") {
		t.Fatalf("expected client dial: %s", body)
	}
	if strings.Contains(body, "callerId") {
		t.Fatalf("unexpected callerId: %s", body)
	}
}

func TestHandleCallSetup_PrefixedNumberStaysClient(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{OutboundCallerID: "+15550000000"})

	w := postVoice(r, "To=client%3A%2B15551234567")
	body := w.Body.String()
	if !strings.Contains(body, "<Client>+15551234567</Client>") {
		t.Fatalf("expected client dial for prefixed number: %s", body)
	}
	if strings.Contains(body, "<Number>") {
		t.Fatalf("unexpected number dial: %s", body)
	}
}

func TestHandleCallSetup_BareNumberRoutesToClient(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{OutboundCallerID: "+15550000000"})

	body := postVoice(r, "To=%2B15551234567").Body.String()
	if !strings.Contains(body, "<Client>+15551234567</Client>") {
		t.Fatalf("expected client dial: %s", body)
	}
}

func TestHandleCallSetup_MissingTo(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postVoice(r, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Client></Client>") {
		t.Fatalf("expected empty client dial: %s", w.Body.String())
	}
}
