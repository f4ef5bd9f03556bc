package propspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"propsync/internal/logger"
)

// Client wraps the provider HTTP API with bearer authentication. On a 401 the
// cached token is dropped and the request retried exactly once; any other
// error status is surfaced unchanged.
type Client struct {
	baseURL    string
	tokens     *TokenManager
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(baseURL string, tokens *TokenManager, logger *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, query url.Values) ([]byte, error) {
	data, status, err := c.do(ctx, method, path, body, query)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		// Single retry with a fresh token. A second 401 propagates as an
		// auth failure rather than looping.
		c.logger.Debug("Provider returned 401 for %s %s, refreshing token", method, path)
		c.tokens.Invalidate()
		data, status, err = c.do(ctx, method, path, body, query)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: request still unauthorized after token refresh", ErrAuth)
		}
	}

	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case status < 200 || status > 299:
		return nil, fmt.Errorf("API request failed: %d - %s", status, string(data))
	}

	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, query url.Values) ([]byte, int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, err
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return data, resp.StatusCode, nil
}

// SearchListings fetches one page of active listings.
func (c *Client) SearchListings(ctx context.Context, page, perPage int) (*ListingsResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	data, err := c.request(ctx, "GET", "listings", nil, q)
	if err != nil {
		return nil, err
	}

	var listingsResp ListingsResponse
	if err := json.Unmarshal(data, &listingsResp); err != nil {
		return nil, fmt.Errorf("failed to decode listings response: %w", err)
	}

	return &listingsResp, nil
}

// GetListing fetches a single listing by provider id or reference.
func (c *Client) GetListing(ctx context.Context, identifier string) (*Listing, error) {
	data, err := c.request(ctx, "GET", fmt.Sprintf("listings/%s", url.PathEscape(identifier)), nil, nil)
	if err != nil {
		return nil, err
	}

	var listingResp struct {
		Listing Listing `json:"listing"`
	}
	if err := json.Unmarshal(data, &listingResp); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}

	return &listingResp.Listing, nil
}

// SearchLocations queries the provider's location table. There is no
// get-by-id endpoint, so targeted lookups filter the search by id.
func (c *Client) SearchLocations(ctx context.Context, filter LocationFilter) ([]Location, error) {
	q := url.Values{}
	if filter.ID != 0 {
		q.Set("id", strconv.FormatInt(filter.ID, 10))
	}
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.ParentID != 0 {
		q.Set("parent_id", strconv.FormatInt(filter.ParentID, 10))
	}
	if filter.PerPage != 0 {
		q.Set("per_page", strconv.Itoa(filter.PerPage))
	}

	data, err := c.request(ctx, "GET", "locations", nil, q)
	if err != nil {
		return nil, err
	}

	var locResp locationsResponse
	if err := json.Unmarshal(data, &locResp); err != nil {
		return nil, fmt.Errorf("failed to decode locations response: %w", err)
	}

	return locResp.Locations, nil
}

// GetWebhookSubscription reports the current webhook registration at the
// provider, or ErrNotFound when none exists.
func (c *Client) GetWebhookSubscription(ctx context.Context) (*WebhookSubscription, error) {
	data, err := c.request(ctx, "GET", "webhooks", nil, nil)
	if err != nil {
		return nil, err
	}

	var sub WebhookSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode webhook subscription: %w", err)
	}

	return &sub, nil
}

// RegisterWebhook registers (or replaces) the webhook subscription.
func (c *Client) RegisterWebhook(ctx context.Context, eventID, callbackURL, secret string) (*WebhookSubscription, error) {
	payload := map[string]string{
		"event_id": eventID,
		"url":      callbackURL,
		"secret":   secret,
	}

	data, err := c.request(ctx, "POST", "webhooks", payload, nil)
	if err != nil {
		return nil, err
	}

	var sub WebhookSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode webhook subscription: %w", err)
	}

	return &sub, nil
}
