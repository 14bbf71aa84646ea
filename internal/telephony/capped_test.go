package telephony

import (
	"context"
	"errors"
	"testing"

	"voice-gateway/internal/apperr"
)

type fakeProvider struct {
	placed []PlaceCallRequest
	ended  []string
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (Call, error) {
	if f.err != nil {
		return Call{}, f.err
	}
	f.placed = append(f.placed, req)
	return Call{SID: "CA1", To: req.To, From: req.From, Status: CallStatusQueued}, nil
}

func (f *fakeProvider) EndCall(ctx context.Context, callSID string) (Call, error) {
	if f.err != nil {
		return Call{}, f.err
	}
	f.ended = append(f.ended, callSID)
	return Call{SID: callSID, Status: CallStatusCompleted}, nil
}

type fakeSlots struct {
	allow    bool
	err      error
	acquired []string
	released []string
}

func (s *fakeSlots) Acquire(ctx context.Context, key string) (bool, error) {
	s.acquired = append(s.acquired, key)
	return s.allow, s.err
}

func (s *fakeSlots) Release(ctx context.Context, key string) error {
	s.released = append(s.released, key)
	return nil
}

func TestCappedProvider_AcquiresAndReleasesPerIP(t *testing.T) {
	inner := &fakeProvider{}
	slots := &fakeSlots{allow: true}
	p := CappedProvider{Provider: inner, Slots: slots}

	ctx := WithClientIP(context.Background(), "10.0.0.1")
	if _, err := p.PlaceCall(ctx, PlaceCallRequest{To: "+1", From: "+2"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(inner.placed) != 1 {
		t.Fatalf("expected call placed")
	}
	if len(slots.acquired) != 1 || slots.acquired[0] != "calls:place:10.0.0.1" {
		t.Fatalf("unexpected acquire keys %v", slots.acquired)
	}
	if len(slots.released) != 1 {
		t.Fatalf("expected slot released")
	}
}

func TestCappedProvider_RejectsOverCap(t *testing.T) {
	inner := &fakeProvider{}
	p := CappedProvider{Provider: inner, Slots: &fakeSlots{allow: false}}

	_, err := p.PlaceCall(WithClientIP(context.Background(), "10.0.0.1"), PlaceCallRequest{To: "+1", From: "+2"})
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if len(inner.placed) != 0 {
		t.Fatalf("call must not be placed over cap")
	}
}

func TestCappedProvider_FailsOpenOnSlotError(t *testing.T) {
	inner := &fakeProvider{}
	p := CappedProvider{Provider: inner, Slots: &fakeSlots{err: errors.New("redis down")}}

	if _, err := p.PlaceCall(WithClientIP(context.Background(), "10.0.0.1"), PlaceCallRequest{To: "+1", From: "+2"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(inner.placed) != 1 {
		t.Fatalf("expected call placed when cap store fails")
	}
}

func TestCappedProvider_SkipsCapWithoutClientIP(t *testing.T) {
	inner := &fakeProvider{}
	slots := &fakeSlots{allow: false}
	p := CappedProvider{Provider: inner, Slots: slots}

	if _, err := p.PlaceCall(context.Background(), PlaceCallRequest{To: "+1", From: "+2"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(slots.acquired) != 0 {
		t.Fatalf("expected no shared slot key, acquired %v", slots.acquired)
	}
	if len(inner.placed) != 1 {
		t.Fatalf("expected call placed")
	}
}

func TestCappedProvider_EndCallPassesThrough(t *testing.T) {
	inner := &fakeProvider{}
	p := CappedProvider{Provider: inner, Slots: &fakeSlots{allow: false}}

	if _, err := p.EndCall(context.Background(), "CA7"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(inner.ended) != 1 || inner.ended[0] != "CA7" {
		t.Fatalf("expected end call forwarded")
	}
}
