package iga

import (
	"context"
	"log"
	"net/url"
	"strings"
)

// Secret names read from the platform secret store
const (
	SecretBaseURL           = "PING_IGA_BASE_URL"
	SecretClientID          = "PING_IGA_CLIENT_ID"
	SecretClientSecret      = "PING_IGA_CLIENT_SECRET"
	SecretTokenURL          = "PING_IGA_TOKEN_URL"
	SecretSearchPath        = "PING_IGA_SEARCH_PATH"
	SecretRequestPath       = "PING_IGA_REQUEST_PATH"
	SecretRequestStatusPath = "PING_IGA_REQUEST_STATUS_PATH"
)

// Default endpoint paths applied when the override secrets are absent
const (
	defaultTokenPath   = "/as/token"
	defaultSearchPath  = "/v1/catalog-items"
	defaultRequestPath = "/v1/requests"
)

// ConnectionConfig holds the resolved IGA connection settings. A nil config
// means the bridge runs in demo mode: static catalog, synthesized request
// ids, no status sync.
type ConnectionConfig struct {
	BaseURL           string
	TokenURL          string
	SearchPath        string
	RequestPath       string
	RequestStatusPath string
	ClientID          string
	ClientSecret      string
}

// resolveConfig reads the IGA secrets and returns nil when the integration is
// not configured. Only a successful resolution is cached by the caller;
// absence is re-checked on the next call so newly provisioned secrets are
// picked up without a restart.
func (c *Client) resolveConfig(ctx context.Context) *ConnectionConfig {
	c.mu.Lock()
	cached := c.config
	c.mu.Unlock()
	if cached != nil {
		return cached
	}

	baseURL, err := c.readSecret(ctx, SecretBaseURL)
	if err != nil {
		return nil
	}
	clientID, err := c.readSecret(ctx, SecretClientID)
	if err != nil {
		return nil
	}
	clientSecret, err := c.readSecret(ctx, SecretClientSecret)
	if err != nil {
		return nil
	}
	if baseURL == "" || clientID == "" || clientSecret == "" {
		log.Printf("Warning: missing Ping IGA secrets; falling back to demo mode")
		return nil
	}

	cfg := &ConnectionConfig{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	cfg.TokenURL, _ = c.readSecret(ctx, SecretTokenURL)
	cfg.SearchPath, _ = c.readSecret(ctx, SecretSearchPath)
	cfg.RequestPath, _ = c.readSecret(ctx, SecretRequestPath)
	cfg.RequestStatusPath, _ = c.readSecret(ctx, SecretRequestStatusPath)

	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
	return cfg
}

func (c *Client) readSecret(ctx context.Context, name string) (string, error) {
	value, ok, err := c.secrets.GetSecret(ctx, name)
	if err != nil {
		log.Printf("Error: unable to read secret %s: %v", name, err)
		return "", err
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

// endpointURL resolves a path override against the base URL. Absolute
// overrides are used as-is, matching how the secret values are provisioned.
func endpointURL(baseURL, override, fallback string) string {
	path := override
	if path == "" {
		path = fallback
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	joined, err := url.JoinPath(baseURL, path)
	if err != nil {
		return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	return joined
}
