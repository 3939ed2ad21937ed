package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Console is a Notifier that writes deliveries to a local writer. It backs
// the smoke-run mode, where the "human" is whoever is watching the
// terminal.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole writes deliveries to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

var _ Notifier = (*Console)(nil)

// Deliver prints each payload; media attachments are shown as their path.
func (c *Console) Deliver(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range msg.Payloads {
		if p.Text != "" {
			if _, err := fmt.Fprintf(c.w, "[%s -> %s] %s\n", msg.Channel, msg.To, p.Text); err != nil {
				return err
			}
		}
		if p.MediaPath != "" {
			if _, err := fmt.Fprintf(c.w, "[%s -> %s] (attachment: %s)\n", msg.Channel, msg.To, p.MediaPath); err != nil {
				return err
			}
		}
	}
	return nil
}
