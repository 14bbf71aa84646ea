package telephony

import (
	"context"
	"log/slog"

	"voice-gateway/internal/apperr"
	"voice-gateway/pkg/logger"
)

// Slots is a distributed concurrency cap keyed by caller.
type Slots interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// CappedProvider bounds concurrent call placements per client IP.
//
// A slot is held only while the placement request to the provider is in
// flight; it is not tied to the lifetime of the call itself.
type CappedProvider struct {
	Provider
	Slots Slots
	Log   *slog.Logger
}

func (p CappedProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (Call, error) {
	if p.Slots == nil {
		return p.Provider.PlaceCall(ctx, req)
	}

	ip := ClientIPFromContext(ctx)
	if ip == "" {
		// Without a caller key every request would share one global slot pool.
		p.logger(ctx).Warn("call cap skipped: no client ip")
		return p.Provider.PlaceCall(ctx, req)
	}

	key := "calls:place:" + ip
	ok, err := p.Slots.Acquire(ctx, key)
	if err != nil {
		// The cap is advisory; a Redis outage must not block calling.
		p.logger(ctx).Warn("call cap acquire failed", "key", key, "err", err)
		return p.Provider.PlaceCall(ctx, req)
	}
	if !ok {
		return Call{}, apperr.RateLimited("too many concurrent call requests")
	}
	defer func() {
		if err := p.Slots.Release(context.WithoutCancel(ctx), key); err != nil {
			p.logger(ctx).Warn("call cap release failed", "key", key, "err", err)
		}
	}()

	return p.Provider.PlaceCall(ctx, req)
}

func (p CappedProvider) logger(ctx context.Context) *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logger.From(ctx)
}
