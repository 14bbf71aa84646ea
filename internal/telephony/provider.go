package telephony

import (
	"context"
	"strings"
)

// Provider is the PSTN call-control surface the gateway consumes.
//
// Rules:
// - No provider REST calls outside telephony adapters.
// - Errors from the provider are returned unmodified; the HTTP layer passes
//   their messages through. Nothing here retries.
type Provider interface {
	Name() string

	PlaceCall(ctx context.Context, req PlaceCallRequest) (Call, error)
	EndCall(ctx context.Context, callSID string) (Call, error)
}

// PlaceCallRequest starts an outbound PSTN call.
type PlaceCallRequest struct {
	// To and From are E.164.
	To   string `json:"to"`
	From string `json:"from"`

	// TwiMLURL is fetched by the provider once the callee answers.
	TwiMLURL string `json:"twiml_url"`
}

// Call is the provider's view of a call resource.
type Call struct {
	SID         string `json:"sid"`
	AccountSID  string `json:"account_sid,omitempty"`
	To          string `json:"to,omitempty"`
	From        string `json:"from,omitempty"`
	Status      string `json:"status,omitempty"`
	Direction   string `json:"direction,omitempty"`
	Duration    string `json:"duration,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	DateCreated string `json:"date_created,omitempty"`
	DateUpdated string `json:"date_updated,omitempty"`
}

// Call statuses the gateway sets or reports.
const (
	CallStatusQueued    = "queued"
	CallStatusCompleted = "completed"
)

// NormalizeDialNumber prefixes numbers lacking a leading "+" with the
// default country code. Input is otherwise kept as-is.
func NormalizeDialNumber(phone, defaultCountryCode string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return defaultCountryCode + phone
}
