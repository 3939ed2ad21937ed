package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/browser"
	"github.com/cliffbreak/actiongate/internal/config"
	"github.com/cliffbreak/actiongate/internal/notify"
	"github.com/cliffbreak/actiongate/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoApprovalTarget indicates the gateway has no configured channel or
// recipient to send approval requests to. Misconfiguration, terminal for
// the call; the tool never silently proceeds without a human in the loop.
var ErrNoApprovalTarget = errors.New("no approval target configured")

// Tool orchestrates one approval round-trip: summarize the action, deliver
// it to the configured human, suspend on the ledger until a decision or
// the timeout, then report the outcome back on the same channel.
type Tool struct {
	logger   *zap.Logger
	ledger   *Ledger
	notifier notify.Notifier
	driver   browser.Driver
	channel  string
	target   string
	timeout  time.Duration

	// newID is swappable for tests that need a known token.
	newID func() string
}

// NewTool builds the approval tool from gateway configuration. driver is
// optional; without one, screenshot requests degrade to text-only.
func NewTool(ledger *Ledger, notifier notify.Notifier, driver browser.Driver, cfg config.GatewayConfig) *Tool {
	return &Tool{
		logger:   observability.GetLogger().Named("approval_tool"),
		ledger:   ledger,
		notifier: notifier,
		driver:   driver,
		channel:  cfg.ApprovalChannel,
		target:   cfg.ApprovalTarget,
		timeout:  cfg.ApprovalTimeout,
		newID:    newToken,
	}
}

// newToken returns a short random id matching the reply grammar: humans
// type these back, so 8 hex characters beats a full UUID.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Request runs one approval. The returned outcome always carries the
// approval id once a request was delivered; Approved is false on denial,
// timeout, or cancelled context alike. Failure to deliver the outcome
// notice never fails the call — the decision already happened.
func (t *Tool) Request(ctx context.Context, req schemas.ApprovalRequest) schemas.ApprovalOutcome {
	if t.channel == "" || t.target == "" {
		t.logger.Error("Approval requested but no delivery target is configured")
		return schemas.ApprovalOutcome{Approved: false, Error: ErrNoApprovalTarget.Error()}
	}

	id := t.newID()
	expiry := time.Now().Add(t.timeout)

	payloads := []notify.Payload{{Text: t.summarize(req, id, expiry)}}
	if req.Screenshot && t.driver != nil {
		if path, err := t.driver.Screenshot(ctx, req.Profile); err != nil {
			t.logger.Warn("Screenshot capture failed; sending text-only approval request", zap.Error(err))
		} else {
			payloads = append(payloads, notify.Payload{MediaPath: path})
		}
	}

	if err := t.notifier.Deliver(ctx, notify.Message{Channel: t.channel, To: t.target, Payloads: payloads}); err != nil {
		t.logger.Error("Failed to deliver approval request", zap.String("id", id), zap.Error(err))
		return schemas.ApprovalOutcome{Approved: false, ApprovalID: id, Error: "approval request could not be delivered"}
	}

	// Buffered so whichever of {resolve, timeout} fires never blocks in
	// the ledger callback.
	decided := make(chan bool, 1)
	if err := t.ledger.Create(id, t.timeout, func(approved bool) { decided <- approved }); err != nil {
		return schemas.ApprovalOutcome{Approved: false, ApprovalID: id, Error: err.Error()}
	}

	t.logger.Info("Awaiting human approval",
		zap.String("id", id), zap.Time("expires", expiry))

	var approved bool
	select {
	case approved = <-decided:
	case <-ctx.Done():
		// Clean up our entry; if the resolver won the race this is a no-op
		// and its buffered send is simply discarded with the channel.
		t.ledger.Resolve(id, false)
		return schemas.ApprovalOutcome{Approved: false, ApprovalID: id, Error: ctx.Err().Error()}
	}

	t.deliverOutcome(ctx, id, approved)
	return schemas.ApprovalOutcome{Approved: approved, ApprovalID: id}
}

// summarize renders the human-readable request.
func (t *Tool) summarize(req schemas.ApprovalRequest, id string, expiry time.Time) string {
	var b strings.Builder
	b.WriteString("Approval needed: ")
	b.WriteString(req.Action)
	if req.Details != "" {
		b.WriteString("\n")
		b.WriteString(req.Details)
	}
	fmt.Fprintf(&b, "\n\nReply \"approve %s yes\" or \"approve %s no\" before %s.",
		id, id, expiry.Format(time.Kitchen))
	return b.String()
}

// deliverOutcome sends the best-effort second notice.
func (t *Tool) deliverOutcome(ctx context.Context, id string, approved bool) {
	verdict := "Denied"
	if approved {
		verdict = "Approved"
	}
	msg := notify.Message{
		Channel:  t.channel,
		To:       t.target,
		Payloads: []notify.Payload{{Text: fmt.Sprintf("%s: %s", verdict, id)}},
	}
	if err := t.notifier.Deliver(ctx, msg); err != nil {
		t.logger.Warn("Failed to deliver approval outcome notice", zap.String("id", id), zap.Error(err))
	}
}
