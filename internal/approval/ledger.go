// Package approval implements the human-approval workflow: a ledger of
// outstanding requests, each resolved exactly once by an external decision
// or a timeout, and the tool that suspends an agent flow on that ledger.
package approval

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cliffbreak/actiongate/internal/observability"
	"go.uber.org/zap"
)

// entry is one outstanding request. The timer and the external resolve
// path race; removal from the ledger map under the mutex decides the
// winner, and only the winner invokes fn.
type entry struct {
	timer *time.Timer
	fn    func(approved bool)
}

// Ledger is the in-memory registry of outstanding approvals. Three writers
// touch it: Create, Resolve (inbound decision), and timer expiry. Whichever
// of resolve and expiry finds the entry first removes it and fires the
// callback; the loser observes an absent id and does nothing.
type Ledger struct {
	logger  *zap.Logger
	mu      sync.Mutex
	entries map[string]*entry

	// onExpire, when set, is told about timeouts after the resolver has
	// been denied. Used for journaling; never for control flow.
	onExpire func(id string)
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		logger:  observability.GetLogger().Named("approval"),
		entries: make(map[string]*entry),
	}
}

// SetExpiryHook installs an observer for timeouts. Call before any Create.
func (l *Ledger) SetExpiryHook(fn func(id string)) {
	l.mu.Lock()
	l.onExpire = fn
	l.mu.Unlock()
}

// Create registers an approval id and arms its timeout. fn is invoked
// exactly once with the decision: false on expiry, the human's answer on
// an external resolve. Reusing a live id is an error; callers generate
// unique tokens.
func (l *Ledger) Create(id string, timeout time.Duration, fn func(approved bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[id]; exists {
		return fmt.Errorf("approval id %q already pending", id)
	}

	e := &entry{fn: fn}
	e.timer = time.AfterFunc(timeout, func() { l.expire(id) })
	l.entries[id] = e

	l.logger.Debug("Approval created", zap.String("id", id), zap.Duration("timeout", timeout))
	return nil
}

// Resolve delivers an external decision. It returns false when the id is
// not outstanding — already resolved, expired, or never created — which is
// a no-op, not an error. The second Resolve for an id always returns false.
func (l *Ledger) Resolve(id string, approved bool) bool {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		l.mu.Unlock()
		l.logger.Debug("Resolve for unknown approval id", zap.String("id", id))
		return false
	}
	delete(l.entries, id)
	l.mu.Unlock()

	// Stopping a timer that already fired is fine; its expire call will
	// find the entry gone.
	e.timer.Stop()
	e.fn(approved)

	l.logger.Info("Approval resolved", zap.String("id", id), zap.Bool("approved", approved))
	return true
}

// expire is the timer path: remove the entry and deny, unless an external
// resolve already won.
func (l *Ledger) expire(id string) {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		l.mu.Unlock()
		return
	}
	delete(l.entries, id)
	hook := l.onExpire
	l.mu.Unlock()

	e.fn(false)
	l.logger.Info("Approval timed out", zap.String("id", id))
	if hook != nil {
		hook(id)
	}
}

// Outstanding returns the ids of currently pending approvals, sorted.
func (l *Ledger) Outstanding() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close cancels every pending timer without resolving anything. Waiters
// blocked on a callback are expected to observe their context instead.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, e := range l.entries {
		e.timer.Stop()
		delete(l.entries, id)
	}
}
