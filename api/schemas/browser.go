package schemas

// -- Browser Action Schemas --

// ActionKind identifies the top-level browser operation an agent requested.
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionAct        ActionKind = "act"
	ActionSnapshot   ActionKind = "snapshot"
	ActionScreenshot ActionKind = "screenshot"
	ActionStatus     ActionKind = "status"
	ActionStart      ActionKind = "start"
)

// ActKind narrows an "act" action to the gesture being performed.
type ActKind string

const (
	ActClick ActKind = "click"
	ActType  ActKind = "type"
	ActKey   ActKind = "key"
)

// ActParams carries the parameters of a single "act" gesture. Ref addresses
// an element from a prior accessibility snapshot (e.g. "e12").
type ActParams struct {
	Kind   ActKind `json:"kind"`
	Ref    string  `json:"ref,omitempty"`
	Text   string  `json:"text,omitempty"`
	Key    string  `json:"key,omitempty"`
	Submit bool    `json:"submit,omitempty"`
}

// BrowserAction is the envelope the gateway inspects before dispatching to
// the driver. Exactly one of URL (navigate) or Act (act) is populated for
// the kinds that take parameters; read-only kinds carry neither.
type BrowserAction struct {
	Kind    ActionKind `json:"kind"`
	Profile string     `json:"profile,omitempty"`
	URL     string     `json:"url,omitempty"`
	Act     *ActParams `json:"act,omitempty"`
	// Confirmed marks a retry issued after human approval. The dispatcher
	// trusts it; the agent is expected to set it only for a truly approved
	// action.
	Confirmed bool `json:"confirmed,omitempty"`
}

// ActionResult is what the driver reports back after executing an action.
// URL, when present, is the page the browser landed on once the action
// settled; post-dispatch observers use it to track navigation that happened
// inside an act call (e.g. a redirect after a form submit).
type ActionResult struct {
	OK    bool   `json:"ok"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// -- Accessibility Snapshot Schemas --

// SnapshotNode is one element of the page's accessibility tree.
type SnapshotNode struct {
	Ref         string `json:"ref"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Snapshot is the accessibility-tree view of the current page.
type Snapshot struct {
	OK    bool           `json:"ok"`
	URL   string         `json:"url,omitempty"`
	Nodes []SnapshotNode `json:"nodes"`
}
