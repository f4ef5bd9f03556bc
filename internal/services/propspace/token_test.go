package propspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"propsync/internal/logger"
)

func newTestLogger() *logger.Logger { return logger.New("error") }

func newTokenServer(t *testing.T, exchanges *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token" {
			http.NotFound(w, r)
			return
		}
		n := atomic.AddInt64(exchanges, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": fmt.Sprintf("token-%d", n),
			"expires_in":   3600,
		})
	}))
}

func TestTokenManagerCachesToken(t *testing.T) {
	var exchanges int64
	ts := newTokenServer(t, &exchanges)
	defer ts.Close()

	m := NewTokenManager(ts.URL, "key", "secret", newTestLogger())

	first, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", first)

	second, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt64(&exchanges))
}

func TestTokenManagerRefreshBoundary(t *testing.T) {
	var exchanges int64
	ts := newTokenServer(t, &exchanges)
	defer ts.Close()

	now := time.Now()

	m := NewTokenManager(ts.URL, "key", "secret", newTestLogger())
	m.now = func() time.Time { return now }

	// 120s out is beyond the 60s safety margin: no refresh.
	m.token = &accessToken{value: "fresh", expiresAt: now.Add(120 * time.Second)}
	token, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
	require.EqualValues(t, 0, atomic.LoadInt64(&exchanges))

	// 30s out is inside the margin: must refresh.
	m.token = &accessToken{value: "stale", expiresAt: now.Add(30 * time.Second)}
	token, err = m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
	require.EqualValues(t, 1, atomic.LoadInt64(&exchanges))
}

func TestTokenManagerInvalidateForcesExchange(t *testing.T) {
	var exchanges int64
	ts := newTokenServer(t, &exchanges)
	defer ts.Close()

	m := NewTokenManager(ts.URL, "key", "secret", newTestLogger())

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	m.Invalidate()

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-2", token)
	require.EqualValues(t, 2, atomic.LoadInt64(&exchanges))
}

func TestTokenManagerExchangeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	m := NewTokenManager(ts.URL, "bad-key", "bad-secret", newTestLogger())

	_, err := m.Token(context.Background())
	require.ErrorIs(t, err, ErrAuth)
}
