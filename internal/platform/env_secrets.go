package platform

import (
	"context"
	"os"
)

// EnvSecretStore reads secrets from the process environment. Secrets arrive
// there through config.LoadEnv (AWS Secrets Manager plus .env files), so the
// same names work in containers and local development.
type EnvSecretStore struct{}

// GetSecret returns the named environment variable, reporting absence for
// unset or empty values.
func (EnvSecretStore) GetSecret(_ context.Context, name string) (string, bool, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}
