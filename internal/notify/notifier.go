// Package notify defines the outbound notification channel the approval
// workflow delivers through, and the inbound reply grammar a human answers
// with. The transport itself (Signal, Telegram, whatever the operator
// wired) is an external collaborator behind the Notifier interface.
package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Payload is one part of an outbound message: text, a media attachment
// path, or both.
type Payload struct {
	Text      string
	MediaPath string
}

// Message is one outbound delivery.
type Message struct {
	Channel  string
	To       string
	Payloads []Payload
}

// Notifier delivers a message to a human. Delivery is best-effort;
// implementations should return an error rather than block indefinitely.
type Notifier interface {
	Deliver(ctx context.Context, msg Message) error
}

// RateLimited wraps a Notifier with a token-bucket limiter so a chatty
// agent cannot flood the operator's channel.
type RateLimited struct {
	inner   Notifier
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond deliveries with the given burst.
func NewRateLimited(inner Notifier, perSecond float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

var _ Notifier = (*RateLimited)(nil)

// Deliver waits for limiter headroom, then forwards to the wrapped notifier.
func (r *RateLimited) Deliver(ctx context.Context, msg Message) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return r.inner.Deliver(ctx, msg)
}
