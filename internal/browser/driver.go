// Package browser defines the contract with the browser automation driver.
// The gateway never controls a browser itself; it dispatches actions through
// this interface and observes what comes back.
package browser

import (
	"context"

	"github.com/cliffbreak/actiongate/api/schemas"
)

// Driver is the browser automation collaborator. Implementations are
// expected to be safe for sequential use per profile; the gateway never
// issues concurrent actions against the same profile.
type Driver interface {
	// Navigate loads a URL in the named profile's window.
	Navigate(ctx context.Context, url, profile string) (*schemas.ActionResult, error)
	// Act performs a click, type, or key gesture against a snapshot ref.
	Act(ctx context.Context, params schemas.ActParams, profile string) (*schemas.ActionResult, error)
	// Snapshot returns the accessibility tree of the current page.
	Snapshot(ctx context.Context, profile string) (*schemas.Snapshot, error)
	// Screenshot captures the current page to a file and returns its path.
	Screenshot(ctx context.Context, profile string) (string, error)
	// Status reports whether the profile's browser is running.
	Status(ctx context.Context, profile string) (bool, error)
	// Start launches the profile's browser if it is not already running.
	Start(ctx context.Context, profile string) error
}
