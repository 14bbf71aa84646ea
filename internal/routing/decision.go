package routing

// Decision is the classified destination of a call-setup event.
//
// Exactly one of Identity or Number is meaningful, selected by Kind.
// Identity never carries the "client:" prefix.
type Decision struct {
	Kind     Kind   `json:"kind"`
	Identity string `json:"identity,omitempty"`
	Number   string `json:"number,omitempty"`
}

type Kind string

const (
	KindClient Kind = "client"
	KindNumber Kind = "number"
)

func ToClient(identity string) Decision {
	return Decision{Kind: KindClient, Identity: identity}
}

func ToNumber(number string) Decision {
	return Decision{Kind: KindNumber, Number: number}
}

func (d Decision) IsClient() bool { return d.Kind == KindClient }
