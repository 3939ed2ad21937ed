package vault

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/cliffbreak/actiongate/internal/config"
	"github.com/cliffbreak/actiongate/internal/observability"
	"go.uber.org/zap"
)

// SecretResolver resolves one secret reference to its string value.
// Implementations must treat the returned value as radioactive: it goes to
// the caller and nowhere else — not to logs, not to error messages.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref Reference) (string, error)
}

// CLIClient resolves secrets by shelling out to the vault's CLI
// ("op read"). Authentication is a service account token taken from the
// environment; the token itself is never read by this process, only checked
// for presence.
type CLIClient struct {
	logger   *zap.Logger
	binary   string
	tokenEnv string
}

var _ SecretResolver = (*CLIClient)(nil)

// NewCLIClient builds a resolver from the vault configuration.
func NewCLIClient(cfg config.VaultConfig) *CLIClient {
	binary := cfg.Binary
	if binary == "" {
		binary = "op"
	}
	tokenEnv := cfg.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "OP_SERVICE_ACCOUNT_TOKEN"
	}
	return &CLIClient{
		logger:   observability.GetLogger().Named("vault"),
		binary:   binary,
		tokenEnv: tokenEnv,
	}
}

// ResolveSecret reads one field. Missing credential configuration is an
// AuthError; a CLI failure that names the field as missing maps to
// SecretNotFoundError. The resolved value is returned and not logged.
func (c *CLIClient) ResolveSecret(ctx context.Context, ref Reference) (string, error) {
	if os.Getenv(c.tokenEnv) == "" {
		return "", &AuthError{TokenEnv: c.tokenEnv}
	}

	c.logger.Debug("Resolving secret reference", zap.String("ref", ref.String()))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, "read", ref.String())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.ToLower(stderr.String())
		if strings.Contains(msg, "isn't a field") ||
			strings.Contains(msg, "not found") ||
			strings.Contains(msg, "no such field") {
			return "", &SecretNotFoundError{Ref: ref}
		}
		if strings.Contains(msg, "authentication") || strings.Contains(msg, "signed in") {
			return "", &AuthError{TokenEnv: c.tokenEnv}
		}
		// Deliberately drop stderr from the wrapped error: CLI output is
		// not guaranteed to be free of secret material.
		return "", &SecretNotFoundError{Ref: ref}
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
