package routing

import "testing"

func TestResolve_PrefixedDescriptors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"client:bob", "bob"},
		{"CLIENT:bob", "bob"},
		{"Client:Alice", "Alice"},
		{"client:", ""},
		{"client:+15551234567", "+15551234567"},
		{"client:sip:alice@example.com", "sip:alice@example.com"},
	}
	for _, tc := range cases {
		d := Resolve(tc.in)
		if d.Kind != KindClient {
			t.Fatalf("Resolve(%q) kind = %q, want client", tc.in, d.Kind)
		}
		if d.Identity != tc.want {
			t.Fatalf("Resolve(%q) identity = %q, want %q", tc.in, d.Identity, tc.want)
		}
		if d.Number != "" {
			t.Fatalf("Resolve(%q) unexpected number %q", tc.in, d.Number)
		}
	}
}

func TestResolve_IsIdempotent(t *testing.T) {
	for _, in := range []string{"client:bob", "CLIENT:carol", "client:+15551234567"} {
		once := Resolve(in)
		twice := Resolve(ClientPrefix + once.Identity)
		if once != twice {
			t.Fatalf("Resolve not idempotent for %q: %+v vs %+v", in, once, twice)
		}
	}
}

// Bare descriptors, numbers included, are routed to a client of the same name.
func TestResolve_BareDescriptorsDefaultToClient(t *testing.T) {
	for _, in := range []string{"bob", "+15551234567", "15551234567", "web-123"} {
		d := Resolve(in)
		if d != ToClient(in) {
			t.Fatalf("Resolve(%q) = %+v, want client %q", in, d, in)
		}
	}
}

func TestResolve_EmptyDescriptor(t *testing.T) {
	if d := Resolve(""); d != ToClient("") {
		t.Fatalf("Resolve(\"\") = %+v", d)
	}
}

func TestDecisionConstructors(t *testing.T) {
	if d := ToNumber("+1555"); d.IsClient() || d.Number != "+1555" {
		t.Fatalf("unexpected number decision %+v", d)
	}
	if d := ToClient("alice"); !d.IsClient() || d.Identity != "alice" {
		t.Fatalf("unexpected client decision %+v", d)
	}
}
