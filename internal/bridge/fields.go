package bridge

import (
	"regexp"
	"strings"

	"github.com/cliffbreak/actiongate/api/schemas"
)

// Logical field names the resolver can locate on a page.
const (
	RoleUsername = "username"
	RolePassword = "password"
	RoleTOTP     = "totp"
)

// Matcher is one labeled predicate in the detection strategy: a node
// qualifies when its accessibility role matches Role and its name or
// description matches Label. Matchers are tried in order; first hit wins.
type Matcher struct {
	Field string
	Role  *regexp.Regexp
	Label *regexp.Regexp
}

// DefaultMatchers returns the built-in detection heuristics. Password
// managers have converged on roughly this vocabulary; extend rather than
// reorder, order encodes priority.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{
			Field: RoleUsername,
			Role:  regexp.MustCompile(`^(textbox|searchbox|combobox)$`),
			Label: regexp.MustCompile(`(?i)e-?mail|user\s?name|username|login|phone|account`),
		},
		{
			Field: RolePassword,
			Role:  regexp.MustCompile(`^textbox$`),
			Label: regexp.MustCompile(`(?i)pass\s?word|passcode|passphrase`),
		},
		{
			Field: RoleTOTP,
			Role:  regexp.MustCompile(`^(textbox|spinbutton)$`),
			Label: regexp.MustCompile(`(?i)\bcode\b|\botp\b|\btotp\b|verif|2fa|mfa|one.?time|authenticator`),
		},
	}
}

// FieldResolver locates login inputs in an accessibility snapshot.
type FieldResolver struct {
	matchers []Matcher
}

// NewFieldResolver builds a resolver with the given matchers, falling back
// to the defaults when none are supplied.
func NewFieldResolver(matchers []Matcher) *FieldResolver {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &FieldResolver{matchers: matchers}
}

// Find returns the ref of the first node matching the requested logical
// field. The boolean is false when no node qualifies; whether that is an
// error is the caller's decision (hard for username/password, soft for TOTP).
func (r *FieldResolver) Find(snap *schemas.Snapshot, field string) (string, bool) {
	if snap == nil {
		return "", false
	}
	for _, m := range r.matchers {
		if m.Field != field {
			continue
		}
		for _, node := range snap.Nodes {
			if !m.Role.MatchString(node.Role) {
				continue
			}
			label := node.Name + " " + node.Description
			if m.Label.MatchString(label) {
				return node.Ref, true
			}
		}
	}
	return "", false
}

// fieldAliases maps natural-language field names onto the vault's canonical
// field vocabulary, so callers can say "cvv" without knowing how the vault
// names things.
var fieldAliases = map[string]string{
	"user":               "username",
	"email":              "username",
	"login":              "username",
	"pass":               "password",
	"otp":                "one-time password",
	"totp":               "one-time password",
	"2fa code":           "one-time password",
	"verification code":  "one-time password",
	"cvv":                "verification number",
	"cvc":                "verification number",
	"security code":      "verification number",
	"card number":        "number",
	"cc number":          "number",
	"credit card number": "number",
	"expiry":             "expiry date",
	"expiration":         "expiry date",
	"expiration date":    "expiry date",
	"zip":                "postal code",
	"zip code":           "postal code",
	"postcode":           "postal code",
	"phone":              "phone number",
	"cardholder":         "cardholder name",
	"name on card":       "cardholder name",
}

// CanonicalField normalizes a caller-supplied field name to the vault's
// vocabulary. Unknown names pass through lowercased.
func CanonicalField(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := fieldAliases[key]; ok {
		return canonical
	}
	return key
}
