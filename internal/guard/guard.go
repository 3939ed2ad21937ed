package guard

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/observability"
	"go.uber.org/zap"
)

// purchasePattern matches the textual surface of checkout and payment
// gestures, case-insensitively. Keyword matching is deliberate: this is a
// tripwire for purchase-shaped actions on known-sensitive sites, not a
// general intent classifier.
var purchasePattern = regexp.MustCompile(`(?i)` +
	`checkout|check out|buy now|buy-now|place (your )?order|place order|` +
	`pay now|confirm (order|purchase|payment)|complete (order|purchase)|` +
	`submit order|proceed to (pay|payment|checkout)|purchase`)

// Decision is the guard's verdict on one action. Reason carries the
// advisory refusal text when Allowed is false; the agent is expected to
// change strategy, not retry.
type Decision struct {
	Allowed bool
	Reason  string
	// Domain is the matched sensitive domain when the action was blocked.
	Domain string
}

// CurrentURL provides the tracked page URL. The guard cannot observe page
// state itself; it sees only what this function reports.
type CurrentURL func() (string, bool)

// Guard blocks purchase-intent actions on sensitive domains. It holds no
// per-action state and no memory of past approvals; after a human approves,
// the agent re-issues the action marked confirmed and the dispatcher skips
// the check. That mark is trusted, not verified. The refusal text names the
// approval tool so a blocked agent knows where to go next.
type Guard struct {
	logger     *zap.Logger
	enabled    bool
	domains    []string
	currentURL CurrentURL
}

// New builds a guard over the configured sensitive domains. Domains are
// normalized to lowercase hostnames once at construction; the set is
// immutable for the life of the guard.
func New(enabled bool, domains []string, currentURL CurrentURL) *Guard {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Guard{
		logger:     observability.GetLogger().Named("guard"),
		enabled:    enabled,
		domains:    normalized,
		currentURL: currentURL,
	}
}

// Check evaluates one outgoing action. Only act-kind actions are
// inspected; navigation and read-only actions always pass. An action is
// blocked iff the tracked URL is on a sensitive domain AND the action's
// text matches the purchase pattern.
func (g *Guard) Check(action schemas.BrowserAction) Decision {
	if !g.enabled || action.Kind != schemas.ActionAct || action.Act == nil {
		return Decision{Allowed: true}
	}

	current, ok := g.currentURL()
	if !ok {
		return Decision{Allowed: true}
	}

	domain, sensitive := g.matchDomain(current)
	if !sensitive {
		return Decision{Allowed: true}
	}

	surface := actionSurface(action.Act)
	if !purchasePattern.MatchString(surface) {
		return Decision{Allowed: true}
	}

	g.logger.Warn("Blocked purchase-intent action on sensitive domain",
		zap.String("domain", domain),
		zap.String("ref", action.Act.Ref))

	return Decision{
		Allowed: false,
		Domain:  domain,
		Reason: fmt.Sprintf(
			"Action blocked: %q is a sensitive site and this looks like a purchase. "+
				"Call the confirm_action tool to request human approval before retrying.",
			domain),
	}
}

// matchDomain reports whether the current URL is on a configured sensitive
// domain: exact host, www.<domain>, or any subdomain. A URL the parser
// rejects degrades to substring containment — a conservative fallback that
// prefers a spurious block over a missed one.
func (g *Guard) matchDomain(current string) (string, bool) {
	u, err := url.Parse(current)
	if err != nil || u.Hostname() == "" {
		lower := strings.ToLower(current)
		for _, d := range g.domains {
			if strings.Contains(lower, d) {
				return d, true
			}
		}
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range g.domains {
		if host == d || host == "www."+d || strings.HasSuffix(host, "."+d) {
			return d, true
		}
	}
	return "", false
}

// actionSurface concatenates everything textual about a gesture: the
// element ref, any literal text, and the key name.
func actionSurface(act *schemas.ActParams) string {
	return act.Ref + " " + act.Text + " " + act.Key
}
