// Package vault resolves path-addressed secrets from an external secret
// store. A reference like "op://Private/GitHub/password" names one string
// field of one item; resolution returns that string and nothing else.
package vault

import (
	"fmt"
	"strings"
)

// Scheme is the reference scheme understood by the resolver.
const Scheme = "op://"

// Canonical field names used by vault items for login material.
const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldTOTP     = "one-time password"
)

// Reference addresses a single secret field: vault, item, field.
type Reference struct {
	Vault string
	Item  string
	Field string
}

// ParseReference parses "op://vault/item/field". The field segment may
// itself contain slashes (section-qualified fields), so only the first two
// separators are structural.
func ParseReference(s string) (Reference, error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return Reference{}, fmt.Errorf("secret reference must start with %q", Scheme)
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Reference{}, fmt.Errorf("secret reference must have the form %svault/item/field", Scheme)
	}
	return Reference{Vault: parts[0], Item: parts[1], Field: parts[2]}, nil
}

// String renders the full reference path. Safe to log: it names a secret,
// it does not contain one.
func (r Reference) String() string {
	return Scheme + r.Vault + "/" + r.Item + "/" + r.Field
}

// ItemPrefix returns the reference path up to the item, for building
// sibling-field references.
func (r Reference) ItemPrefix() string {
	return Scheme + r.Vault + "/" + r.Item
}

// ExpandItem turns a bare item name into a full item path under the given
// prefix. An input that already carries the scheme is returned unchanged.
func ExpandItem(item, prefix string) (string, error) {
	if strings.HasPrefix(item, Scheme) {
		return strings.TrimSuffix(item, "/"), nil
	}
	if prefix == "" {
		return "", fmt.Errorf("item %q is not a full reference and no vault prefix is configured", item)
	}
	return strings.TrimSuffix(prefix, "/") + "/" + item, nil
}
