package notify

import (
	"fmt"
	"strings"
)

// Reply is a parsed human decision on an outstanding approval.
type Reply struct {
	ID       string
	Approved bool
}

// ParseReply parses the reply grammar: "approve <id> yes|no". Matching is
// case-insensitive and tolerant of extra whitespace; the verdict token also
// accepts y/n and approve/deny. Anything else is an error so the inbound
// handler can ignore unrelated chatter.
func ParseReply(text string) (Reply, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 3 || !strings.EqualFold(fields[0], "approve") {
		return Reply{}, fmt.Errorf("not an approval reply: want \"approve <id> yes|no\"")
	}

	id := fields[1]
	switch strings.ToLower(fields[2]) {
	case "yes", "y", "approve":
		return Reply{ID: id, Approved: true}, nil
	case "no", "n", "deny":
		return Reply{ID: id, Approved: false}, nil
	}
	return Reply{}, fmt.Errorf("unrecognized verdict %q: want yes or no", fields[2])
}
