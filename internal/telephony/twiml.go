package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlDial struct {
	XMLName  xml.Name   `xml:"Dial"`
	CallerID *string    `xml:"callerId,attr,omitempty"`
	Client   *twimlNoun `xml:"Client,omitempty"`
	Number   *twimlNoun `xml:"Number,omitempty"`
}

type twimlNoun struct {
	Value string `xml:",chardata"`
}

// RenderTwiML maps a DialInstruction to a TwiML document.
func RenderTwiML(in DialInstruction) (string, error) {
	var r twimlResponse

	d := twimlDial{}
	switch {
	case in.IsClient():
		d.Client = &twimlNoun{Value: in.Client}
	case in.Leg != "":
		// Number legs always present callerId, even when unset.
		callerID := in.CallerID
		d.CallerID = &callerID
		d.Number = &twimlNoun{Value: in.Number}
	default:
		return "", errors.New("telephony: dial instruction has no leg")
	}
	r.Verbs = append(r.Verbs, d)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
