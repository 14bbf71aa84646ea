package telephony

import "voice-gateway/internal/routing"

// DialInstruction tells the provider's call-control interpreter which leg to
// connect. Exactly one of Client or Number is the target.
//
// CallerID is only set for number legs; client-to-client legs are not
// PSTN-billed and carry no caller id.
type DialInstruction struct {
	Leg      routing.Kind `json:"leg"`
	Client   string       `json:"client,omitempty"`
	Number   string       `json:"number,omitempty"`
	CallerID string       `json:"caller_id,omitempty"`
}

func (d DialInstruction) IsClient() bool { return d.Leg == routing.KindClient }

func (d DialInstruction) Target() string {
	if d.IsClient() {
		return d.Client
	}
	return d.Number
}

// BuildDial turns a routing decision into a dial instruction.
//
// A number decision with an empty number dials fallbackNumber. If both are
// empty the instruction dials "", which the provider rejects.
func BuildDial(d routing.Decision, outboundCallerID, fallbackNumber string) DialInstruction {
	if d.IsClient() {
		return DialInstruction{Leg: routing.KindClient, Client: d.Identity}
	}

	number := d.Number
	if number == "" {
		number = fallbackNumber
	}
	return DialInstruction{Leg: routing.KindNumber, Number: number, CallerID: outboundCallerID}
}
