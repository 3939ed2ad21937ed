package gateway

import (
	"os"
	"testing"

	"go.uber.org/goleak"

	"github.com/cliffbreak/actiongate/internal/config"
	"github.com/cliffbreak/actiongate/internal/observability"
)

func TestMain(m *testing.M) {
	cfg := config.NewDefaultConfig()
	cfg.Logger.LogFile = ""
	observability.InitializeLogger(cfg.Logger)

	exitCode := m.Run()

	observability.Sync()
	observability.ResetForTest()

	if exitCode == 0 {
		if err := goleak.Find(); err != nil {
			os.Stderr.WriteString("goroutine leak detected: " + err.Error() + "\n")
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
