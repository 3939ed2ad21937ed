package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/browser"
	"github.com/cliffbreak/actiongate/internal/config"
	"github.com/cliffbreak/actiongate/internal/notify"
	"github.com/cliffbreak/actiongate/internal/vault"
)

// stubResolver serves secrets from a fixed map keyed by reference path.
type stubResolver struct {
	secrets map[string]string
}

func (s *stubResolver) ResolveSecret(_ context.Context, ref vault.Reference) (string, error) {
	if v, ok := s.secrets[ref.String()]; ok {
		return v, nil
	}
	return "", &vault.SecretNotFoundError{Ref: ref}
}

// channelNotifier is a Notifier whose deliveries land on a channel, so
// tests can wait for the approval request to go out.
type channelNotifier struct {
	deliveries chan notify.Message
}

func newChannelNotifier() *channelNotifier {
	return &channelNotifier{deliveries: make(chan notify.Message, 8)}
}

func (n *channelNotifier) Deliver(_ context.Context, msg notify.Message) error {
	n.deliveries <- msg
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("logger.log_file", "")
	v.Set("gateway.enabled", true)
	v.Set("gateway.sensitive_domains", []string{"shop.test", "amazon.com"})
	v.Set("gateway.approval_channel", "signal")
	v.Set("gateway.approval_target", "+15550100")
	v.Set("gateway.approval_timeout", "2s")
	v.Set("vault.prefix", "op://Private")
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

// shopDriver serves a storefront on a sensitive domain: a browse page and a
// checkout page whose order button leads to a confirmation page.
func shopDriver(t *testing.T) *browser.FakeDriver {
	t.Helper()
	d := browser.NewFakeDriver()
	d.AddPage(browser.FakePage{
		URL: "https://shop.test/products",
		Nodes: []schemas.SnapshotNode{
			{Ref: "e1", Role: "link", Name: "Espresso machine"},
			{Ref: "e2", Role: "button", Name: "Add to cart"},
		},
		Redirects: map[string]string{"e1": "https://shop.test/checkout"},
	})
	d.AddPage(browser.FakePage{
		URL: "https://shop.test/checkout",
		Nodes: []schemas.SnapshotNode{
			{Ref: "e5", Role: "textbox", Name: "Email address"},
			{Ref: "e6", Role: "textbox", Name: "Password"},
			{Ref: "e9", Role: "button", Name: "Place your order"},
		},
		Redirects: map[string]string{"e9": "https://shop.test/thanks"},
	})
	d.AddPage(browser.FakePage{URL: "https://shop.test/thanks"})
	return d
}

func newTestGateway(t *testing.T, d *browser.FakeDriver, resolver vault.SecretResolver, notifier notify.Notifier) *Gateway {
	t.Helper()
	if resolver == nil {
		resolver = &stubResolver{}
	}
	if notifier == nil {
		notifier = newChannelNotifier()
	}
	g := New(testConfig(t), d, resolver, notifier, nil)
	t.Cleanup(func() { g.Close() })
	return g
}

func clickOrder() schemas.BrowserAction {
	return schemas.BrowserAction{
		Kind:    schemas.ActionAct,
		Profile: "default",
		Act:     &schemas.ActParams{Kind: schemas.ActClick, Ref: "e9", Text: "Place your order"},
	}
}

func navigate(url string) schemas.BrowserAction {
	return schemas.BrowserAction{Kind: schemas.ActionNavigate, Profile: "default", URL: url}
}

// TestPurchaseBlockedOnSensitiveSite walks the storefront flow: navigation
// and browsing pass, the order click on the tracked sensitive page is
// refused with a pointer at the approval tool, and the page never advances.
func TestPurchaseBlockedOnSensitiveSite(t *testing.T) {
	d := shopDriver(t)
	g := newTestGateway(t, d, nil, nil)
	ctx := context.Background()

	res, err := g.Dispatch(ctx, navigate("https://shop.test/products"))
	require.NoError(t, err)
	assert.True(t, res.OK)

	// Browsing gesture on the same sensitive site passes: no purchase
	// vocabulary.
	res, err = g.Dispatch(ctx, schemas.BrowserAction{
		Kind:    schemas.ActionAct,
		Profile: "default",
		Act:     &schemas.ActParams{Kind: schemas.ActClick, Ref: "e1", Text: "Espresso machine"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK)

	// Now on /checkout. The order click must be refused.
	res, err = g.Dispatch(ctx, clickOrder())
	require.NoError(t, err, "a blocked action is a result, not a Go error")
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "confirm_action")
	assert.Contains(t, res.Error, "shop.test")

	snap, err := g.Snapshot(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/checkout", snap.URL, "blocked click must not advance the page")
}

func TestPurchaseAllowedElsewhere(t *testing.T) {
	d := browser.NewFakeDriver()
	d.AddPage(browser.FakePage{
		URL:   "https://docs.test/cart",
		Nodes: []schemas.SnapshotNode{{Ref: "e3", Role: "button", Name: "Buy now"}},
	})
	g := newTestGateway(t, d, nil, nil)
	ctx := context.Background()

	_, err := g.Dispatch(ctx, navigate("https://docs.test/cart"))
	require.NoError(t, err)

	res, err := g.Dispatch(ctx, schemas.BrowserAction{
		Kind:    schemas.ActionAct,
		Profile: "default",
		Act:     &schemas.ActParams{Kind: schemas.ActClick, Ref: "e3", Text: "Buy now"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK, "purchase vocabulary on a non-sensitive site passes")
}

// TestApprovedRetryExecutes: after a human approval the retry carries the
// confirmation mark and executes without a second refusal.
func TestApprovedRetryExecutes(t *testing.T) {
	d := shopDriver(t)
	notifier := newChannelNotifier()
	g := newTestGateway(t, d, nil, notifier)
	ctx := context.Background()

	_, err := g.Dispatch(ctx, navigate("https://shop.test/checkout"))
	require.NoError(t, err)

	res, err := g.Dispatch(ctx, clickOrder())
	require.NoError(t, err)
	require.False(t, res.OK)

	// The agent calls the approval tool; the human replies on the channel.
	var wg sync.WaitGroup
	wg.Add(1)
	var outcome schemas.ApprovalOutcome
	go func() {
		defer wg.Done()
		outcome = g.ConfirmAction(ctx, schemas.ApprovalRequest{Action: "Place order on shop.test"})
	}()

	var request notify.Message
	select {
	case request = <-notifier.deliveries:
	case <-time.After(time.Second):
		t.Fatal("approval request was never delivered")
	}
	assert.Contains(t, request.Payloads[0].Text, "Place order on shop.test")

	require.Len(t, g.OutstandingApprovals(), 1)
	id := g.OutstandingApprovals()[0]
	assert.True(t, g.HandleReply(ctx, "approve "+id+" yes"))
	wg.Wait()

	require.True(t, outcome.Approved)
	assert.Empty(t, g.OutstandingApprovals())

	retry := clickOrder()
	retry.Confirmed = true
	res, err = g.Dispatch(ctx, retry)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "https://shop.test/thanks", res.URL)
}

func TestDeniedReplyResolvesFalse(t *testing.T) {
	notifier := newChannelNotifier()
	g := newTestGateway(t, shopDriver(t), nil, notifier)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	var outcome schemas.ApprovalOutcome
	go func() {
		defer wg.Done()
		outcome = g.ConfirmAction(ctx, schemas.ApprovalRequest{Action: "Place order"})
	}()
	<-notifier.deliveries

	id := g.OutstandingApprovals()[0]
	assert.True(t, g.HandleReply(ctx, "approve "+id+" no"))
	wg.Wait()
	assert.False(t, outcome.Approved)
}

func TestHandleReplyIgnoresChatter(t *testing.T) {
	g := newTestGateway(t, shopDriver(t), nil, nil)
	ctx := context.Background()

	assert.False(t, g.HandleReply(ctx, "thanks, looks good"))
	assert.False(t, g.HandleReply(ctx, "approve deadbeef yes"), "unknown id resolves nothing")
}

func TestFillCredentials(t *testing.T) {
	d := shopDriver(t)
	resolver := &stubResolver{secrets: map[string]string{
		"op://Private/Shop/username": "alice@example.test",
		"op://Private/Shop/password": "hunter2",
	}}
	g := newTestGateway(t, d, resolver, nil)
	ctx := context.Background()

	_, err := g.Dispatch(ctx, navigate("https://shop.test/checkout"))
	require.NoError(t, err)

	res := g.FillCredentials(ctx, "Shop", nil, "default")
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Filled)
	assert.Equal(t, 2, res.Fields)

	typed, ok := d.TypedInto("e5")
	require.True(t, ok)
	assert.Equal(t, "alice@example.test", typed)
}

// TestFillCredentialsErrorCarriesNoSecret: a failure after partial
// resolution reports field names and references only.
func TestFillCredentialsErrorCarriesNoSecret(t *testing.T) {
	d := shopDriver(t)
	resolver := &stubResolver{secrets: map[string]string{
		"op://Private/Shop/username": "alice@example.test",
	}}
	g := newTestGateway(t, d, resolver, nil)
	ctx := context.Background()

	_, err := g.Dispatch(ctx, navigate("https://shop.test/checkout"))
	require.NoError(t, err)

	res := g.FillCredentials(ctx, "Shop", nil, "default")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.NotContains(t, res.Error, "alice@example.test")
}

func TestFillTOTPWithoutSecretIsSoftFalse(t *testing.T) {
	g := newTestGateway(t, shopDriver(t), &stubResolver{}, nil)

	res := g.FillTOTP(context.Background(), "Shop", "", "default")
	assert.True(t, res.Success)
	assert.False(t, res.Filled)
	assert.Empty(t, res.Error)
}

func TestDispatchRejectsUnsupportedKinds(t *testing.T) {
	g := newTestGateway(t, shopDriver(t), nil, nil)

	_, err := g.Dispatch(context.Background(), schemas.BrowserAction{Kind: schemas.ActionSnapshot})
	assert.Error(t, err)

	_, err = g.Dispatch(context.Background(), schemas.BrowserAction{Kind: schemas.ActionAct})
	assert.Error(t, err, "act without parameters")
}
