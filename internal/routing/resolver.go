package routing

import "strings"

// ClientPrefix marks a descriptor that names a software client identity.
// It is written lower-case and recognised in any case.
const ClientPrefix = "client:"

// Resolve classifies the raw To descriptor of a call-setup event.
//
// Any descriptor without the client prefix is coerced into a client target,
// so a bare number still routes to a client of that name. Callers that need
// a PSTN leg must build a number Decision themselves.
//
// Resolve never fails; malformed input lands on the client branch.
func Resolve(descriptor string) Decision {
	normalized := descriptor
	if !hasClientPrefix(normalized) {
		normalized = ClientPrefix + normalized
	}

	if hasClientPrefix(normalized) {
		_, identity, _ := strings.Cut(normalized, ":")
		return ToClient(identity)
	}
	return ToNumber(descriptor)
}

func hasClientPrefix(s string) bool {
	return len(s) >= len(ClientPrefix) && strings.EqualFold(s[:len(ClientPrefix)], ClientPrefix)
}
