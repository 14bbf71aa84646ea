package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"voice-gateway/internal/apperr"
	"voice-gateway/internal/assistant"
	"voice-gateway/internal/auth"
	"voice-gateway/internal/telephony"
	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Identities  IdentityAllocator
	Issuer      CredentialIssuer
	Calls       telephony.Provider
	Completer   ChatCompleter
	Synthesizer SpeechSynthesizer

	Voice VoiceSettings

	Now func() time.Time
}

type IdentityAllocator interface {
	Allocate(requested string) string
}

type CredentialIssuer interface {
	Issue(now time.Time, identity string) (auth.Credential, error)
}

type ChatCompleter interface {
	Complete(ctx context.Context, message string) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (assistant.Audio, error)
}

// VoiceSettings is the read-only slice of config the call handlers need.
type VoiceSettings struct {
	CallerID           string
	FallbackNumber     string
	DefaultCountryCode string
	OutboundTwiMLURL   string
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Session bootstrap ---

// Token allocates an identity and issues a voice access token for it.
//
// The incoming query flag is accepted for client compatibility but does not
// change the grant: every token can both place and receive calls.
func (h Handlers) Token(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Identities == nil || h.Issuer == nil {
		WriteError(c, apperr.Unavailable("token issuance not configured"))
		return
	}

	identity := h.Identities.Allocate(c.Query("identity"))
	if v, ok := c.GetQuery("incoming"); ok {
		if requested, err := strconv.ParseBool(v); err == nil && !requested {
			log.Debug("incoming=false requested; issuing incoming grant anyway", "identity", identity)
		}
	}

	cred, err := h.Issuer.Issue(h.now(), identity)
	if err != nil {
		log.Error("token issuance failed", "identity", identity, "err", err)
		WriteError(c, err)
		return
	}

	log.Info("token issued", "identity", cred.Identity, "expires_at", cred.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"token":           cred.Token,
		"identity":        cred.Identity,
		"incomingAllowed": cred.Grant.InboundAllowed(),
	})
}

// --- PSTN calls ---

type placeCallRequest struct {
	Phone string `json:"phone" form:"phone"`
}

// PlaceCall dials a PSTN number from the gateway's own number.
func (h Handlers) PlaceCall(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Calls == nil {
		WriteError(c, apperr.Unavailable("telephony provider not configured"))
		return
	}

	var req placeCallRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Phone == "" {
		WriteError(c, apperr.Validation("Phone number required"))
		return
	}

	to := telephony.NormalizeDialNumber(req.Phone, h.Voice.DefaultCountryCode)
	ctx := telephony.WithClientIP(c.Request.Context(), c.ClientIP())

	call, err := h.Calls.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:       to,
		From:     h.Voice.CallerID,
		TwiMLURL: h.Voice.OutboundTwiMLURL,
	})
	if err != nil {
		log.Error("place call failed", "to", to, "err", err)
		WriteError(c, err)
		return
	}

	log.Info("call placed", "call_sid", call.SID, "to", to)
	c.JSON(http.StatusOK, gin.H{"success": true, "callSid": call.SID})
}

type endCallRequest struct {
	CallSID string `json:"callSid" form:"callSid"`
}

// EndCall terminates a call by SID.
func (h Handlers) EndCall(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Calls == nil {
		WriteError(c, apperr.Unavailable("telephony provider not configured"))
		return
	}

	var req endCallRequest
	if !bindBody(c, &req) {
		return
	}
	if req.CallSID == "" {
		WriteError(c, apperr.Validation("Call SID required"))
		return
	}

	call, err := h.Calls.EndCall(c.Request.Context(), req.CallSID)
	if err != nil {
		log.Error("end call failed", "call_sid", req.CallSID, "err", err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": call})
}

// Config exposes the gateway's public numbers to the browser client.
func (h Handlers) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"twilioNumber": nullable(h.Voice.CallerID),
		"targetNumber": nullable(h.Voice.FallbackNumber),
	})
}

// --- Assistant ---

type chatRequest struct {
	Message string `json:"message" form:"message"`
}

func (h Handlers) Chat(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Completer == nil {
		WriteError(c, apperr.Unavailable("chat completion not configured"))
		return
	}

	var req chatRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Message == "" {
		WriteError(c, apperr.Validation("Message required"))
		return
	}

	reply, err := h.Completer.Complete(c.Request.Context(), req.Message)
	if err != nil {
		log.Error("chat completion failed", "err", err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type speechRequest struct {
	Text  string `json:"text" form:"text"`
	Voice string `json:"voice" form:"voice"`
}

// Speech streams synthesized audio back to the caller as it arrives.
func (h Handlers) Speech(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Synthesizer == nil {
		WriteError(c, apperr.Unavailable("speech synthesis not configured"))
		return
	}

	var req speechRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Text == "" {
		WriteError(c, apperr.Validation("Text required"))
		return
	}

	audio, err := h.Synthesizer.Synthesize(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		log.Error("speech synthesis failed", "err", err)
		WriteError(c, err)
		return
	}
	defer func() { _ = audio.Body.Close() }()

	c.DataFromReader(http.StatusOK, -1, audio.ContentType, audio.Body, nil)
}

// bindBody binds JSON or form bodies. An empty body leaves req zero-valued
// so the handler can report the specific missing field.
func bindBody(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(c, apperr.Validation("invalid request body"))
		return false
	}
	return true
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
