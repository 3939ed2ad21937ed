// Package bridge injects vault credentials into browser login and payment
// forms. Secret values live only inside this package's call stacks: every
// exported operation returns booleans and counts, never the values it
// typed. That asymmetry is the whole point of the package.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/browser"
	"github.com/cliffbreak/actiongate/internal/observability"
	"github.com/cliffbreak/actiongate/internal/vault"
	"go.uber.org/zap"
)

// Credentials is the transient shape of a resolved login. It exists only
// between Resolve and the browser write; it must never appear in a return
// value crossing the tool boundary, a log line, or a stored session.
type Credentials struct {
	Username string
	Password string
	TOTP     string // empty when the item has no one-time password
}

// String keeps credentials out of fmt-formatted output.
func (Credentials) String() string { return "bridge.Credentials(redacted)" }

// InjectResult reports what an injection did without saying what it typed.
type InjectResult struct {
	Filled bool
	Fields int
}

// Bridge wires the vault resolver to the browser driver.
type Bridge struct {
	logger *zap.Logger
	vault  vault.SecretResolver
	driver browser.Driver
	fields *FieldResolver
	prefix string
}

// New builds a Bridge. prefix is the configured vault prefix applied to
// bare item names ("op://Private"); pass the empty string to require full
// references from callers.
func New(resolver vault.SecretResolver, driver browser.Driver, fields *FieldResolver, prefix string) *Bridge {
	if fields == nil {
		fields = NewFieldResolver(nil)
	}
	return &Bridge{
		logger: observability.GetLogger().Named("bridge"),
		vault:  resolver,
		driver: driver,
		fields: fields,
		prefix: prefix,
	}
}

// resolveField reads one field of an item, given the item's full path.
func (b *Bridge) resolveField(ctx context.Context, itemPath, field string) (string, error) {
	ref, err := vault.ParseReference(itemPath + "/" + field)
	if err != nil {
		return "", err
	}
	return b.vault.ResolveSecret(ctx, ref)
}

// Resolve fetches the username, password, and optional one-time password
// for an item. A missing username or password is an error; a missing
// one-time password is the normal case for items without TOTP.
func (b *Bridge) Resolve(ctx context.Context, item string) (Credentials, error) {
	itemPath, err := vault.ExpandItem(item, b.prefix)
	if err != nil {
		return Credentials{}, err
	}

	var creds Credentials
	if creds.Username, err = b.resolveField(ctx, itemPath, vault.FieldUsername); err != nil {
		return Credentials{}, err
	}
	if creds.Password, err = b.resolveField(ctx, itemPath, vault.FieldPassword); err != nil {
		return Credentials{}, err
	}

	totp, err := b.resolveField(ctx, itemPath, vault.FieldTOTP)
	var notFound *vault.SecretNotFoundError
	switch {
	case err == nil:
		creds.TOTP = totp
	case errors.As(err, &notFound):
		// Item has no one-time password configured. Expected, not an error.
	default:
		return Credentials{}, err
	}
	return creds, nil
}

// typeInto writes a value into a page element. The value is handed to the
// driver and forgotten; only the ref is logged.
func (b *Bridge) typeInto(ctx context.Context, ref, value, profile string) error {
	b.logger.Debug("Typing into field", zap.String("ref", ref), zap.String("profile", profile))
	res, err := b.driver.Act(ctx, schemas.ActParams{Kind: schemas.ActType, Ref: ref, Text: value}, profile)
	if err != nil {
		return fmt.Errorf("typing into %s: %w", ref, err)
	}
	if !res.OK {
		return fmt.Errorf("typing into %s failed: %s", ref, res.Error)
	}
	return nil
}

// Inject fills login fields for an item. With an explicit fieldMap
// (page ref -> vault field name, aliases allowed) each mapped field is
// resolved and typed; the Field Resolver is never consulted. Without one,
// the page is snapshotted and username/password located heuristically.
// A failed field aborts the whole attempt; no partial-state recovery.
func (b *Bridge) Inject(ctx context.Context, item string, fieldMap map[string]string, profile string) (InjectResult, error) {
	itemPath, err := vault.ExpandItem(item, b.prefix)
	if err != nil {
		return InjectResult{}, err
	}

	if len(fieldMap) > 0 {
		return b.injectMapped(ctx, itemPath, fieldMap, profile)
	}
	return b.injectDetected(ctx, itemPath, profile)
}

func (b *Bridge) injectMapped(ctx context.Context, itemPath string, fieldMap map[string]string, profile string) (InjectResult, error) {
	count := 0
	for ref, fieldName := range fieldMap {
		value, err := b.resolveField(ctx, itemPath, CanonicalField(fieldName))
		var notFound *vault.SecretNotFoundError
		if errors.As(err, &notFound) {
			return InjectResult{}, &FieldNotFoundError{Field: fieldName, Ref: ref}
		}
		if err != nil {
			return InjectResult{}, err
		}
		if err := b.typeInto(ctx, ref, value, profile); err != nil {
			return InjectResult{}, err
		}
		count++
	}
	b.logger.Info("Injected mapped fields", zap.Int("fields", count))
	return InjectResult{Filled: true, Fields: count}, nil
}

func (b *Bridge) injectDetected(ctx context.Context, itemPath, profile string) (InjectResult, error) {
	snap, err := b.driver.Snapshot(ctx, profile)
	if err != nil || snap == nil || !snap.OK {
		return InjectResult{}, &SnapshotUnavailableError{Profile: profile}
	}

	userRef, ok := b.fields.Find(snap, RoleUsername)
	if !ok {
		return InjectResult{}, &FieldNotFoundError{Field: RoleUsername}
	}
	passRef, ok := b.fields.Find(snap, RolePassword)
	if !ok {
		return InjectResult{}, &FieldNotFoundError{Field: RolePassword}
	}

	creds, err := b.Resolve(ctx, itemPath)
	if err != nil {
		return InjectResult{}, err
	}
	if err := b.typeInto(ctx, userRef, creds.Username, profile); err != nil {
		return InjectResult{}, err
	}
	if err := b.typeInto(ctx, passRef, creds.Password, profile); err != nil {
		return InjectResult{}, err
	}

	b.logger.Info("Injected detected login fields",
		zap.String("username_ref", userRef), zap.String("password_ref", passRef))
	return InjectResult{Filled: true, Fields: 2}, nil
}

// InjectTOTP fills a one-time code field. An item without a TOTP secret
// yields {Filled: false} with no error — expected for most logins. When no
// ref is supplied and no code field is visible on the page, the result is
// likewise a soft false.
func (b *Bridge) InjectTOTP(ctx context.Context, item, ref, profile string) (InjectResult, error) {
	itemPath, err := vault.ExpandItem(item, b.prefix)
	if err != nil {
		return InjectResult{}, err
	}

	code, err := b.resolveField(ctx, itemPath, vault.FieldTOTP)
	var notFound *vault.SecretNotFoundError
	if errors.As(err, &notFound) {
		b.logger.Debug("Item has no one-time password; nothing to fill")
		return InjectResult{Filled: false}, nil
	}
	if err != nil {
		return InjectResult{}, err
	}

	if ref == "" {
		snap, err := b.driver.Snapshot(ctx, profile)
		if err != nil || snap == nil || !snap.OK {
			return InjectResult{}, &SnapshotUnavailableError{Profile: profile}
		}
		var ok bool
		if ref, ok = b.fields.Find(snap, RoleTOTP); !ok {
			b.logger.Warn("No visible one-time code field; skipping TOTP injection")
			return InjectResult{Filled: false}, nil
		}
	}

	if err := b.typeInto(ctx, ref, code, profile); err != nil {
		return InjectResult{}, err
	}
	return InjectResult{Filled: true, Fields: 1}, nil
}
