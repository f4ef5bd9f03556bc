package propspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"propsync/internal/logger"
)

// tokenSafetyMargin is subtracted from the reported expiry so a token is
// refreshed before it can go stale mid-request.
const tokenSafetyMargin = 60 * time.Second

type accessToken struct {
	value     string
	expiresAt time.Time
}

// TokenManager owns the provider access token. The cached token is swapped as
// a whole under the mutex so callers never observe a partial token.
type TokenManager struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *logger.Logger

	now func() time.Time

	mu    sync.Mutex
	token *accessToken
}

func NewTokenManager(baseURL, apiKey, apiSecret string, logger *logger.Logger) *TokenManager {
	return &TokenManager{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a valid bearer token, exchanging credentials only when the
// cached token is missing or inside the expiry safety margin.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != nil && m.now().Before(m.token.expiresAt.Add(-tokenSafetyMargin)) {
		return m.token.value, nil
	}

	token, err := m.exchange(ctx)
	if err != nil {
		return "", err
	}

	m.token = token
	return token.value, nil
}

// Invalidate drops the cached token, forcing the next caller to re-acquire.
// Called by the client when the provider answers 401.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
}

func (m *TokenManager) exchange(ctx context.Context) (*accessToken, error) {
	payload, err := json.Marshal(map[string]string{
		"api_key":    m.apiKey,
		"api_secret": m.apiSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	url := fmt.Sprintf("%s/auth/token", m.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: token exchange returned %d - %s", ErrAuth, resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode token response: %v", ErrAuth, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token exchange returned empty token", ErrAuth)
	}

	m.logger.Debug("Acquired provider token, expires in %ds", tokenResp.ExpiresIn)

	return &accessToken{
		value:     tokenResp.AccessToken,
		expiresAt: m.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}, nil
}
