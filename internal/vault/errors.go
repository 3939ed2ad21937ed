package vault

import "fmt"

// AuthError indicates no service credential is configured for the vault.
// Fatal for any vault call; never retried.
type AuthError struct {
	TokenEnv string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("vault not authenticated: %s is not set", e.TokenEnv)
}

// SecretNotFoundError indicates a required field is absent from the vault
// item. The reference is reported redacted; the field name is safe to show,
// the value never existed in the first place.
type SecretNotFoundError struct {
	Ref Reference
}

func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret not found: %s", e.Ref.String())
}
