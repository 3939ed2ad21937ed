package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/cliffbreak/actiongate/api/schemas"
)

// FakePage is one synthetic page served by the FakeDriver.
type FakePage struct {
	URL   string
	Nodes []schemas.SnapshotNode
	// Redirects maps a ref to the URL the page lands on after acting on it.
	Redirects map[string]string
}

// FakeDriver is an in-memory Driver used by tests and the smoke-run mode.
// It serves canned pages and records every gesture it receives, including
// typed text, so tests can assert on injection behavior without a browser.
type FakeDriver struct {
	mu        sync.Mutex
	pages     map[string]FakePage
	current   map[string]string // profile -> url
	running   map[string]bool
	gestures  []schemas.ActParams
	snapshots int

	// ScreenshotPath is returned from Screenshot when set; otherwise
	// Screenshot reports an error.
	ScreenshotPath string
}

// NewFakeDriver builds an empty fake. Add pages before navigating.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		pages:   make(map[string]FakePage),
		current: make(map[string]string),
		running: make(map[string]bool),
	}
}

var _ Driver = (*FakeDriver)(nil)

// AddPage registers a page the fake can serve.
func (d *FakeDriver) AddPage(p FakePage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages[p.URL] = p
}

// Gestures returns a copy of every act the driver executed, in order.
func (d *FakeDriver) Gestures() []schemas.ActParams {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]schemas.ActParams, len(d.gestures))
	copy(out, d.gestures)
	return out
}

// TypedInto returns the text typed into a given ref, if any.
func (d *FakeDriver) TypedInto(ref string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, g := range d.gestures {
		if g.Kind == schemas.ActType && g.Ref == ref {
			return g.Text, true
		}
	}
	return "", false
}

func (d *FakeDriver) Navigate(_ context.Context, url, profile string) (*schemas.ActionResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pages[url]; !ok {
		return &schemas.ActionResult{OK: false, Error: "no such page"}, nil
	}
	d.current[profile] = url
	return &schemas.ActionResult{OK: true, URL: url}, nil
}

func (d *FakeDriver) Act(_ context.Context, params schemas.ActParams, profile string) (*schemas.ActionResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gestures = append(d.gestures, params)

	res := &schemas.ActionResult{OK: true}
	cur := d.current[profile]
	if page, ok := d.pages[cur]; ok {
		if next, ok := page.Redirects[params.Ref]; ok {
			d.current[profile] = next
			res.URL = next
		}
	}
	return res, nil
}

// SnapshotCalls reports how many times Snapshot has been taken.
func (d *FakeDriver) SnapshotCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshots
}

func (d *FakeDriver) Snapshot(_ context.Context, profile string) (*schemas.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshots++
	cur := d.current[profile]
	page, ok := d.pages[cur]
	if !ok {
		return &schemas.Snapshot{OK: false}, nil
	}
	nodes := make([]schemas.SnapshotNode, len(page.Nodes))
	copy(nodes, page.Nodes)
	return &schemas.Snapshot{OK: true, URL: cur, Nodes: nodes}, nil
}

func (d *FakeDriver) Screenshot(_ context.Context, _ string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ScreenshotPath == "" {
		return "", fmt.Errorf("screenshot capture not available")
	}
	return d.ScreenshotPath, nil
}

func (d *FakeDriver) Status(_ context.Context, profile string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running[profile], nil
}

func (d *FakeDriver) Start(_ context.Context, profile string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running[profile] = true
	return nil
}
