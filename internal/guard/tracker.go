// Package guard decides, before dispatch, whether a browser action may
// proceed. The guard itself is a pure function; the one piece of state it
// consumes — the current page URL — lives in the Tracker, a passive
// observer fed after every dispatch.
package guard

import (
	"sync"

	"github.com/cliffbreak/actiongate/api/schemas"
)

// Tracker maintains the single source of truth for "current page URL".
// It is written by the after-action observer and read by the guard's
// before-action check; the tracked value therefore lags the real page by
// at most one action cycle, which the guard accepts by design.
type Tracker struct {
	mu  sync.Mutex
	url string
	set bool
}

// NewTracker returns a tracker with no URL observed yet.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records the destination of a navigate action. Other action kinds
// carry no URL of their own and are ignored.
func (t *Tracker) Observe(action schemas.BrowserAction) {
	if action.Kind != schemas.ActionNavigate || action.URL == "" {
		return
	}
	t.record(action.URL)
}

// ObserveResult records a URL reported by any tool result. This covers
// navigation completing inside an act call, e.g. a redirect after submit.
func (t *Tracker) ObserveResult(res *schemas.ActionResult) {
	if res == nil || res.URL == "" {
		return
	}
	t.record(res.URL)
}

// ObserveSnapshot records the URL carried by an accessibility snapshot.
func (t *Tracker) ObserveSnapshot(snap *schemas.Snapshot) {
	if snap == nil || snap.URL == "" {
		return
	}
	t.record(snap.URL)
}

func (t *Tracker) record(url string) {
	t.mu.Lock()
	t.url = url
	t.set = true
	t.mu.Unlock()
}

// Current returns the tracked URL, false when nothing has been observed.
func (t *Tracker) Current() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url, t.set
}
