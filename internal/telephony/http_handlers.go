package telephony

import (
	"net/http"

	"voice-gateway/internal/routing"
	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceWebhookHandler converts the call-setup webhook to a routing decision,
// builds the dial instruction and writes TwiML.
//
// Destination policy lives in routing.Resolve; nothing here inspects the
// descriptor.
type VoiceWebhookHandler struct {
	// OutboundCallerID is presented on number legs.
	OutboundCallerID string
	// FallbackNumber is dialed when a number decision carries no number.
	FallbackNumber string
}

func (h VoiceWebhookHandler) HandleCallSetup(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	decision := routing.Resolve(form.To)
	dial := BuildDial(decision, h.OutboundCallerID, h.FallbackNumber)

	twiml, err := RenderTwiML(dial)
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info("dialing", "call_sid", form.CallSid, "leg", dial.Leg, "target", dial.Target())

	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twiml)
}
