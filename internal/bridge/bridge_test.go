package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/browser"
	"github.com/cliffbreak/actiongate/internal/vault"
)

// stubVault resolves from a fixed map keyed by the full reference path.
type stubVault struct {
	secrets map[string]string
}

func (s *stubVault) ResolveSecret(_ context.Context, ref vault.Reference) (string, error) {
	if v, ok := s.secrets[ref.String()]; ok {
		return v, nil
	}
	return "", &vault.SecretNotFoundError{Ref: ref}
}

var _ vault.SecretResolver = (*stubVault)(nil)

func loginDriver(t *testing.T) *browser.FakeDriver {
	t.Helper()
	d := browser.NewFakeDriver()
	d.AddPage(browser.FakePage{
		URL: "https://example.test/login",
		Nodes: []schemas.SnapshotNode{
			{Ref: "e2", Role: "textbox", Name: "Email address"},
			{Ref: "e3", Role: "textbox", Name: "Password"},
			{Ref: "e4", Role: "button", Name: "Sign in"},
		},
	})
	_, err := d.Navigate(context.Background(), "https://example.test/login", "default")
	require.NoError(t, err)
	return d
}

func TestResolve(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/GitHub/username":          "octocat",
		"op://Private/GitHub/password":          "hunter2",
		"op://Private/GitHub/one-time password": "123456",
	}}
	b := New(v, browser.NewFakeDriver(), nil, "op://Private")

	creds, err := b.Resolve(context.Background(), "GitHub")
	require.NoError(t, err)
	assert.Equal(t, "octocat", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "123456", creds.TOTP)
}

func TestResolveWithoutTOTP(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/Shop/username": "alice",
		"op://Private/Shop/password": "pw",
	}}
	b := New(v, browser.NewFakeDriver(), nil, "op://Private")

	creds, err := b.Resolve(context.Background(), "Shop")
	require.NoError(t, err)
	assert.Empty(t, creds.TOTP)
}

func TestResolveMissingPassword(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/Shop/username": "alice",
	}}
	b := New(v, browser.NewFakeDriver(), nil, "op://Private")

	_, err := b.Resolve(context.Background(), "Shop")
	var notFound *vault.SecretNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCredentialsRedactedInFormatting(t *testing.T) {
	creds := Credentials{Username: "alice", Password: "hunter2", TOTP: "123456"}
	s := creds.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "alice")
}

// TestInjectMappedSkipsSnapshot: an explicit field map pins which elements
// get which fields, so the page is never snapshotted.
func TestInjectMappedSkipsSnapshot(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/Visa/number":              "4111111111111111",
		"op://Private/Visa/verification number": "123",
	}}
	d := loginDriver(t)
	b := New(v, d, nil, "op://Private")

	res, err := b.Inject(context.Background(), "Visa", map[string]string{
		"e10": "card number",
		"e11": "cvv",
	}, "default")
	require.NoError(t, err)
	assert.True(t, res.Filled)
	assert.Equal(t, 2, res.Fields)
	assert.Zero(t, d.SnapshotCalls())

	typed, ok := d.TypedInto("e10")
	require.True(t, ok)
	assert.Equal(t, "4111111111111111", typed)
	typed, ok = d.TypedInto("e11")
	require.True(t, ok)
	assert.Equal(t, "123", typed)
}

func TestInjectMappedUnknownField(t *testing.T) {
	v := &stubVault{secrets: map[string]string{}}
	d := loginDriver(t)
	b := New(v, d, nil, "op://Private")

	_, err := b.Inject(context.Background(), "Visa", map[string]string{"e10": "cvv"}, "default")
	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "cvv", notFound.Field)
	assert.Equal(t, "e10", notFound.Ref)
	assert.Empty(t, d.Gestures(), "nothing may be typed after a failed resolution")
}

func TestInjectDetected(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/Example/username": "alice",
		"op://Private/Example/password": "pw",
	}}
	d := loginDriver(t)
	b := New(v, d, nil, "op://Private")

	res, err := b.Inject(context.Background(), "Example", nil, "default")
	require.NoError(t, err)
	assert.True(t, res.Filled)
	assert.Equal(t, 2, res.Fields)

	typed, ok := d.TypedInto("e2")
	require.True(t, ok)
	assert.Equal(t, "alice", typed)
	typed, ok = d.TypedInto("e3")
	require.True(t, ok)
	assert.Equal(t, "pw", typed)
}

func TestInjectDetectedNoUsernameField(t *testing.T) {
	d := browser.NewFakeDriver()
	d.AddPage(browser.FakePage{
		URL: "https://example.test/odd",
		Nodes: []schemas.SnapshotNode{
			{Ref: "e1", Role: "textbox", Name: "Search"},
		},
	})
	_, err := d.Navigate(context.Background(), "https://example.test/odd", "default")
	require.NoError(t, err)

	b := New(&stubVault{}, d, nil, "op://Private")
	_, err = b.Inject(context.Background(), "Example", nil, "default")

	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, RoleUsername, notFound.Field)
}

func TestInjectDetectedSnapshotUnavailable(t *testing.T) {
	d := browser.NewFakeDriver() // never navigated: snapshot reports not OK
	b := New(&stubVault{}, d, nil, "op://Private")

	_, err := b.Inject(context.Background(), "Example", nil, "default")
	var unavailable *SnapshotUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestInjectTOTP(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/GitHub/one-time password": "654321",
	}}
	d := loginDriver(t)
	b := New(v, d, nil, "op://Private")

	res, err := b.InjectTOTP(context.Background(), "GitHub", "e7", "default")
	require.NoError(t, err)
	assert.True(t, res.Filled)

	typed, ok := d.TypedInto("e7")
	require.True(t, ok)
	assert.Equal(t, "654321", typed)
}

// TestInjectTOTPNoSecret: an item without a one-time password yields a soft
// false, not an error.
func TestInjectTOTPNoSecret(t *testing.T) {
	d := loginDriver(t)
	b := New(&stubVault{}, d, nil, "op://Private")

	res, err := b.InjectTOTP(context.Background(), "Shop", "", "default")
	require.NoError(t, err)
	assert.False(t, res.Filled)
	assert.Empty(t, d.Gestures())
}

func TestInjectTOTPDetectsCodeField(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/GitHub/one-time password": "654321",
	}}
	d := browser.NewFakeDriver()
	d.AddPage(browser.FakePage{
		URL: "https://example.test/2fa",
		Nodes: []schemas.SnapshotNode{
			{Ref: "e5", Role: "textbox", Name: "Verification code"},
		},
	})
	_, err := d.Navigate(context.Background(), "https://example.test/2fa", "default")
	require.NoError(t, err)

	b := New(v, d, nil, "op://Private")
	res, err := b.InjectTOTP(context.Background(), "GitHub", "", "default")
	require.NoError(t, err)
	assert.True(t, res.Filled)

	typed, ok := d.TypedInto("e5")
	require.True(t, ok)
	assert.Equal(t, "654321", typed)
}

func TestInjectTOTPNoVisibleField(t *testing.T) {
	v := &stubVault{secrets: map[string]string{
		"op://Private/GitHub/one-time password": "654321",
	}}
	d := loginDriver(t) // login page has no code field
	b := New(v, d, nil, "op://Private")

	res, err := b.InjectTOTP(context.Background(), "GitHub", "", "default")
	require.NoError(t, err)
	assert.False(t, res.Filled)
}
