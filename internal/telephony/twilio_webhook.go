package telephony

import (
	"net/http"
	"strings"
)

// VoiceWebhookForm captures the subset of voice webhook fields we care about.
// Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/twiml
//
// Keep it minimal and provider-adapter-only.
// Routing decisions are not made here.
type VoiceWebhookForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	Direction  string
	CallStatus string
	Caller     string
}

// ParseVoiceWebhook reads a call-setup webhook. To may arrive as "To" or,
// from some browser SDK builds, as "to"; a missing To is not an error.
func ParseVoiceWebhook(r *http.Request) (VoiceWebhookForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceWebhookForm{}, err
	}
	to := r.PostFormValue("To")
	if to == "" {
		to = r.PostFormValue("to")
	}
	f := VoiceWebhookForm{
		CallSid:    r.PostFormValue("CallSid"),
		AccountSid: r.PostFormValue("AccountSid"),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         to,
		Direction:  r.PostFormValue("Direction"),
		CallStatus: r.PostFormValue("CallStatus"),
		Caller:     r.PostFormValue("Caller"),
	}
	return f, nil
}
