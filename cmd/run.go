// File: cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cliffbreak/actiongate/api/schemas"
	"github.com/cliffbreak/actiongate/internal/browser"
	"github.com/cliffbreak/actiongate/internal/gateway"
	"github.com/cliffbreak/actiongate/internal/journal"
	"github.com/cliffbreak/actiongate/internal/notify"
	"github.com/cliffbreak/actiongate/internal/observability"
	"github.com/cliffbreak/actiongate/internal/vault"
)

// runCmd drives the gateway against the in-memory fake driver: approval
// requests print to the terminal and replies are read from stdin. It
// exercises the whole block/approve/retry loop without a browser, vault,
// or messaging transport, which makes it the quickest way to check a
// configuration.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a local smoke session against a simulated browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSmoke(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSmoke(ctx context.Context) error {
	logger := observability.GetLogger().Named("smoke")

	driver := browser.NewFakeDriver()
	domain := "shop.test"
	if domains := appConfig.Gateway.SensitiveDomains; len(domains) > 0 {
		domain = domains[0]
	}
	checkoutURL := fmt.Sprintf("https://%s/checkout", domain)
	driver.AddPage(browser.FakePage{
		URL: checkoutURL,
		Nodes: []schemas.SnapshotNode{
			{Ref: "e1", Role: "textbox", Name: "Email address"},
			{Ref: "e2", Role: "textbox", Name: "Password"},
			{Ref: "e9", Role: "button", Name: "Place your order"},
		},
	})

	var jnl *journal.Journal
	if path := appConfig.Journal.Path; path != "" {
		var err error
		if jnl, err = journal.Open(path); err != nil {
			return err
		}
	}

	notifier := notify.NewRateLimited(
		notify.NewConsole(os.Stdout),
		appConfig.Notify.RateLimit,
		appConfig.Notify.Burst,
	)

	gw := gateway.New(appConfig, driver, vault.NewCLIClient(appConfig.Vault), notifier, jnl)
	defer gw.Close()

	// Feed terminal lines into the reply handler, the same way an inbound
	// channel command would arrive.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if gw.HandleReply(ctx, scanner.Text()) {
				continue
			}
			fmt.Println(`(not an approval reply; use "approve <id> yes|no")`)
		}
	}()

	if _, err := gw.Dispatch(ctx, schemas.BrowserAction{Kind: schemas.ActionNavigate, URL: checkoutURL}); err != nil {
		return err
	}

	click := schemas.BrowserAction{
		Kind: schemas.ActionAct,
		Act:  &schemas.ActParams{Kind: schemas.ActClick, Ref: "e9", Text: "Place your order"},
	}
	res, err := gw.Dispatch(ctx, click)
	if err != nil {
		return err
	}
	if res.OK {
		logger.Warn("Expected the guard to block the checkout click; is the gateway enabled?")
		return nil
	}
	logger.Info("Guard blocked the action", zap.String("refusal", res.Error))

	outcome := gw.ConfirmAction(ctx, schemas.ApprovalRequest{
		Action:  fmt.Sprintf("Place order on %s", domain),
		Details: "Smoke-run purchase simulation",
	})
	if outcome.Error != "" {
		return fmt.Errorf("approval failed: %s", outcome.Error)
	}
	if !outcome.Approved {
		logger.Info("Denied or timed out; leaving the order unplaced", zap.String("id", outcome.ApprovalID))
		return nil
	}

	click.Confirmed = true
	if _, err := gw.Dispatch(ctx, click); err != nil {
		return err
	}
	logger.Info("Approved and dispatched", zap.String("id", outcome.ApprovalID))
	return nil
}
