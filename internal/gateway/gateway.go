// Package gateway wires the secure action gateway together: the guard and
// tracker around browser dispatch, the credential bridge behind structured
// tool results, and the approval workflow behind the notification channel.
package gateway

import (
	"context"
	"fmt"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/approval"
	"github.com/cliffbreak/actiongate/internal/bridge"
	"github.com/cliffbreak/actiongate/internal/browser"
	"github.com/cliffbreak/actiongate/internal/config"
	"github.com/cliffbreak/actiongate/internal/guard"
	"github.com/cliffbreak/actiongate/internal/journal"
	"github.com/cliffbreak/actiongate/internal/notify"
	"github.com/cliffbreak/actiongate/internal/observability"
	"github.com/cliffbreak/actiongate/internal/vault"
	"go.uber.org/zap"
)

// Gateway is the single entry point an agent harness talks to. Everything
// money-adjacent flows through here so the two core invariants hold in one
// place: secrets never cross the tool boundary, and purchase-like actions
// on sensitive sites don't execute without a human decision.
type Gateway struct {
	logger  *zap.Logger
	driver  browser.Driver
	bridge  *bridge.Bridge
	guard   *guard.Guard
	tracker *guard.Tracker
	ledger  *approval.Ledger
	tool    *approval.Tool
	journal *journal.Journal
}

// New assembles a gateway from configuration and its external
// collaborators. jnl may be nil to disable journaling.
func New(cfg *config.Config, driver browser.Driver, resolver vault.SecretResolver, notifier notify.Notifier, jnl *journal.Journal) *Gateway {
	tracker := guard.NewTracker()
	ledger := approval.NewLedger()

	g := &Gateway{
		logger:  observability.GetLogger().Named("gateway"),
		driver:  driver,
		bridge:  bridge.New(resolver, driver, nil, cfg.Vault.Prefix),
		guard:   guard.New(cfg.Gateway.Enabled, cfg.Gateway.SensitiveDomains, tracker.Current),
		tracker: tracker,
		ledger:  ledger,
		tool:    approval.NewTool(ledger, notifier, driver, cfg.Gateway),
		journal: jnl,
	}

	ledger.SetExpiryHook(func(id string) {
		g.journal.Record(context.Background(), journal.Entry{
			ID:   id,
			Kind: journal.KindTimedOut,
		})
	})
	return g
}

// Close releases the ledger's timers and the journal.
func (g *Gateway) Close() error {
	g.ledger.Close()
	return g.journal.Close()
}

// Dispatch runs one navigate or act action through the guard and, when
// allowed, the driver. Blocked actions come back as a failed result whose
// Error is the advisory refusal; they are not Go errors.
func (g *Gateway) Dispatch(ctx context.Context, action schemas.BrowserAction) (*schemas.ActionResult, error) {
	if !action.Confirmed {
		if d := g.guard.Check(action); !d.Allowed {
			g.journal.Record(ctx, journal.Entry{
				Kind:   journal.KindBlocked,
				Domain: d.Domain,
				Detail: actionDetail(action),
			})
			return &schemas.ActionResult{OK: false, Error: d.Reason}, nil
		}
	}

	var (
		res *schemas.ActionResult
		err error
	)
	switch action.Kind {
	case schemas.ActionNavigate:
		res, err = g.driver.Navigate(ctx, action.URL, action.Profile)
	case schemas.ActionAct:
		if action.Act == nil {
			return nil, fmt.Errorf("act action without parameters")
		}
		res, err = g.driver.Act(ctx, *action.Act, action.Profile)
	default:
		return nil, fmt.Errorf("dispatch does not handle %q actions", action.Kind)
	}
	if err != nil {
		return nil, err
	}

	// Post-dispatch observation: this is the only place the tracker
	// learns about page state, so the guard's view lags the real page by
	// at most this one action.
	g.tracker.Observe(action)
	g.tracker.ObserveResult(res)
	return res, nil
}

// Snapshot captures the accessibility tree and feeds the tracker.
func (g *Gateway) Snapshot(ctx context.Context, profile string) (*schemas.Snapshot, error) {
	snap, err := g.driver.Snapshot(ctx, profile)
	if err != nil {
		return nil, err
	}
	g.tracker.ObserveSnapshot(snap)
	return snap, nil
}

// ConfirmAction is the agent-facing approval tool: it suspends until a
// human decides or the window closes and returns the boolean outcome.
func (g *Gateway) ConfirmAction(ctx context.Context, req schemas.ApprovalRequest) schemas.ApprovalOutcome {
	return g.tool.Request(ctx, req)
}

// HandleReply feeds an inbound message from the notification channel into
// the ledger. Returns false when the text is not an approval reply or the
// id is no longer outstanding; neither is an error worth surfacing.
func (g *Gateway) HandleReply(ctx context.Context, text string) bool {
	reply, err := notify.ParseReply(text)
	if err != nil {
		return false
	}
	if !g.ledger.Resolve(reply.ID, reply.Approved) {
		return false
	}
	g.journal.Record(ctx, journal.Entry{
		ID:       reply.ID,
		Kind:     journal.KindResolved,
		Approved: reply.Approved,
	})
	return true
}

// OutstandingApprovals lists the ids still awaiting a decision.
func (g *Gateway) OutstandingApprovals() []string {
	return g.ledger.Outstanding()
}

// FillCredentials resolves an item's login and types it into the page.
// All vault and browser errors are converted to a structured result here;
// our error types carry references and field names, never values, so the
// Error string is safe to hand back to the agent's context.
func (g *Gateway) FillCredentials(ctx context.Context, item string, fieldMap map[string]string, profile string) schemas.FillResult {
	res, err := g.bridge.Inject(ctx, item, fieldMap, profile)
	if err != nil {
		g.logger.Warn("Credential injection failed", zap.Error(err))
		return schemas.FillResult{Success: false, Error: err.Error()}
	}
	return schemas.FillResult{Success: true, Filled: res.Filled, Fields: res.Fields}
}

// FillTOTP types an item's current one-time code. Items without TOTP
// report success with Filled=false.
func (g *Gateway) FillTOTP(ctx context.Context, item, ref, profile string) schemas.FillResult {
	res, err := g.bridge.InjectTOTP(ctx, item, ref, profile)
	if err != nil {
		g.logger.Warn("TOTP injection failed", zap.Error(err))
		return schemas.FillResult{Success: false, Error: err.Error()}
	}
	return schemas.FillResult{Success: true, Filled: res.Filled, Fields: res.Fields}
}

// actionDetail renders a short journal-safe description of an action.
func actionDetail(action schemas.BrowserAction) string {
	if action.Act == nil {
		return string(action.Kind)
	}
	return fmt.Sprintf("%s %s %q", action.Act.Kind, action.Act.Ref, action.Act.Text)
}
