package iga

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// expiryMargin is how far ahead of expiry a cached token stops being reused.
const expiryMargin = 30 * time.Second

// defaultTokenLifetime applies when the token response omits expires_in.
const defaultTokenLifetime = 300 * time.Second

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// getToken returns a ready-to-use Authorization header value, refreshing via
// the client-credentials grant when the cached token is within expiryMargin
// of expiring. The refresh runs under the client mutex so concurrent
// invocations converge on a single exchange.
func (c *Client) getToken(ctx context.Context, cfg *ConnectionConfig) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != nil && c.token.expiresAt.After(now.Add(expiryMargin)) {
		return c.token.value, nil
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = endpointURL(cfg.BaseURL, "", defaultTokenPath)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{StatusCode: resp.StatusCode}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   any    `json:"expires_in"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return "", err
	}

	tokenType := body.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	lifetime := defaultTokenLifetime
	if seconds, ok := body.ExpiresIn.(float64); ok {
		lifetime = time.Duration(seconds * float64(time.Second))
	}

	c.token = &cachedToken{
		value:     strings.TrimSpace(tokenType + " " + body.AccessToken),
		expiresAt: c.now().Add(lifetime),
	}
	return c.token.value, nil
}
