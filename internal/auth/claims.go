package auth

import "github.com/golang-jwt/jwt/v5"

// contentType marks the token as a provider access token.
const contentType = "twilio-fpa;v=1"

// Claims are the only supported access-token claims shape for this service.
// Grants carries exactly one capability: voice.
type Claims struct {
	jwt.RegisteredClaims

	Grants Grants `json:"grants"`
}

type Grants struct {
	Identity string      `json:"identity"`
	Voice    *VoiceGrant `json:"voice,omitempty"`
}

// VoiceGrant lets the holder register as a signaling endpoint. Outgoing
// present means the holder may place calls; Incoming.Allow means calls to
// the identity are delivered to it.
type VoiceGrant struct {
	Incoming *IncomingGrant `json:"incoming,omitempty"`
	Outgoing *OutgoingGrant `json:"outgoing,omitempty"`
}

type IncomingGrant struct {
	Allow bool `json:"allow"`
}

type OutgoingGrant struct {
	ApplicationSID string            `json:"application_sid,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
}

func (g VoiceGrant) OutboundAllowed() bool { return g.Outgoing != nil }

func (g VoiceGrant) InboundAllowed() bool { return g.Incoming != nil && g.Incoming.Allow }
