package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/providentiaww/iga-slack-bridge/internal/cache"
)

// emailTTL bounds how long a resolved profile email is reused.
const emailTTL = 10 * time.Minute

// GatewayDirectory resolves user profiles through the platform gateway's
// internal API. Lookups are cached briefly so repeated form interactions
// don't hammer the gateway.
type GatewayDirectory struct {
	baseURL    string
	token      string
	httpClient *http.Client
	emails     *cache.TTLCache[string]
}

// NewDirectoryFromEnv returns a gateway-backed directory when
// PLATFORM_GATEWAY_URL is set, otherwise a no-op directory that reports no
// email. Submissions still work without one; the requester email is simply
// omitted from the IGA payload.
func NewDirectoryFromEnv() UserDirectory {
	baseURL := os.Getenv("PLATFORM_GATEWAY_URL")
	if baseURL == "" {
		return noopDirectory{}
	}
	return &GatewayDirectory{
		baseURL: baseURL,
		token:   os.Getenv("PLATFORM_GATEWAY_TOKEN"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		emails: cache.New[string](),
	}
}

// UserEmail fetches the user's profile email from the gateway.
func (d *GatewayDirectory) UserEmail(ctx context.Context, userID string) (string, error) {
	if email, ok := d.emails.Get(userID); ok {
		return email, nil
	}

	profileURL := fmt.Sprintf("%s/v1/users/%s", d.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return "", err
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to fetch user %s: %s", userID, string(body))
	}

	var profile struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", err
	}
	d.emails.Set(userID, profile.Email, emailTTL)
	return profile.Email, nil
}

type noopDirectory struct{}

func (noopDirectory) UserEmail(context.Context, string) (string, error) {
	return "", nil
}
