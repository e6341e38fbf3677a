package iga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/providentiaww/iga-slack-bridge/internal/models"
	"github.com/providentiaww/iga-slack-bridge/internal/platform"
)

// Shared HTTP client with connection pooling
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client talks to the Ping IGA catalog and request APIs. It owns the
// process-wide connection config and bearer token caches, so one instance is
// created at startup and shared across invocations.
type Client struct {
	secrets    platform.SecretStore
	httpClient *http.Client
	now        func() time.Time

	mu     sync.Mutex
	config *ConnectionConfig
	token  *cachedToken
}

// NewClient creates an IGA client reading connection secrets from the given
// store.
func NewClient(secrets platform.SecretStore) *Client {
	return NewClientWithTimeout(secrets, 0)
}

// NewClientWithTimeout creates a client with a dedicated request timeout,
// reusing the shared pooled transport. A zero timeout uses the shared
// client.
func NewClientWithTimeout(secrets platform.SecretStore, timeout time.Duration) *Client {
	client := sharedHTTPClient
	if timeout > 0 && timeout != sharedHTTPClient.Timeout {
		client = &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPClient.Transport,
		}
	}
	return &Client{
		secrets:    secrets,
		httpClient: client,
		now:        time.Now,
	}
}

// SearchCatalog queries the catalog by free-text term. It never fails: when
// the integration is unconfigured, the remote call errors, or the response
// shape is unrecognizable, the built-in catalog filtered by the same term is
// returned instead.
func (c *Client) SearchCatalog(ctx context.Context, query string) []models.CatalogItem {
	cfg := c.resolveConfig(ctx)
	if cfg == nil {
		return filterFallback(query)
	}

	token, err := c.getToken(ctx, cfg)
	if err != nil {
		log.Printf("Error: IGA token exchange failed during search: %v", err)
		return filterFallback(query)
	}

	searchURL := endpointURL(cfg.BaseURL, cfg.SearchPath, defaultSearchPath)
	if query != "" {
		params := url.Values{"search": {query}}
		searchURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return filterFallback(query)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error: IGA search error: %v", err)
		return filterFallback(query)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("Error: IGA search failed: HTTP %d: %s", resp.StatusCode, string(body))
		return filterFallback(query)
	}

	var body struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("Error: IGA search response unreadable: %v", err)
		return filterFallback(query)
	}
	if body.Items == nil {
		return filterFallback(query)
	}

	items := make([]models.CatalogItem, 0, len(body.Items))
	for _, raw := range body.Items {
		item := models.CatalogItem{
			ID:          stringField(raw, "id", "itemId"),
			Label:       stringField(raw, "displayName", "name", "label"),
			Description: stringField(raw, "description"),
			Type:        stringField(raw, "type"),
		}
		if item.ID == "" || item.Label == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// CreateRequest submits a new access request. Unconfigured mode synthesizes a
// demo request id and a pending status instead of failing; against a
// configured backend a non-success response surfaces as SubmissionError.
func (c *Client) CreateRequest(ctx context.Context, payload models.CreateRequestPayload) (models.CreateRequestResponse, error) {
	cfg := c.resolveConfig(ctx)
	if cfg == nil {
		return models.CreateRequestResponse{
			RequestID: "demo-" + uuid.NewString(),
			Status:    models.StatusPending,
		}, nil
	}

	token, err := c.getToken(ctx, cfg)
	if err != nil {
		return models.CreateRequestResponse{}, err
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return models.CreateRequestResponse{}, err
	}

	requestURL := endpointURL(cfg.BaseURL, cfg.RequestPath, defaultRequestPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(jsonPayload))
	if err != nil {
		return models.CreateRequestResponse{}, err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.CreateRequestResponse{}, fmt.Errorf("unable to submit request to IGA: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("Error: IGA create request failed: HTTP %d: %s", resp.StatusCode, string(body))
		return models.CreateRequestResponse{}, &SubmissionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.CreateRequestResponse{}, err
	}

	requestID := stringField(body, "id", "requestId")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	status := stringField(body, "status", "state")
	if status == "" {
		status = models.StatusPending
	}
	return models.CreateRequestResponse{RequestID: requestID, Status: status}, nil
}

// GetRequestStatus fetches the authoritative status for a request. It
// reports ok=false when the integration is unconfigured or the lookup fails;
// failures never propagate.
func (c *Client) GetRequestStatus(ctx context.Context, requestID string) (string, bool) {
	cfg := c.resolveConfig(ctx)
	if cfg == nil {
		return "", false
	}

	token, err := c.getToken(ctx, cfg)
	if err != nil {
		log.Printf("Error: IGA token exchange failed during status fetch: %v", err)
		return "", false
	}

	statusPath := cfg.RequestStatusPath
	if statusPath == "" {
		statusPath = defaultRequestPath + "/" + url.PathEscape(requestID)
	}
	statusURL := endpointURL(cfg.BaseURL, statusPath, "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error: IGA status error for %s: %v", requestID, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("Error: IGA status fetch failed for %s: HTTP %d: %s", requestID, resp.StatusCode, string(body))
		return "", false
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("Error: IGA status response unreadable for %s: %v", requestID, err)
		return "", false
	}

	status := stringField(body, "status", "state")
	if status == "" {
		return "", false
	}
	return status, true
}

// stringField returns the first string-typed value among the given keys.
func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key].(string); ok {
			return value
		}
	}
	return ""
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode IGA response: %w", err)
	}
	return nil
}

// filterFallback returns the built-in catalog filtered by a case-insensitive
// substring match on label or description. An empty query returns the whole
// set. The result is deterministic for a given query.
func filterFallback(query string) []models.CatalogItem {
	items := fallbackItems()
	if query == "" {
		return items
	}
	lower := strings.ToLower(query)
	filtered := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Label), lower) ||
			strings.Contains(strings.ToLower(item.Description), lower) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
