package propspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// providerStub serves the token endpoint plus listing/location routes with
// scriptable auth behavior.
type providerStub struct {
	exchanges   int64
	listingHits int64
	// rejectTokens lists bearer tokens the listing routes answer 401 to.
	rejectTokens map[string]bool
}

func (s *providerStub) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			n := atomic.AddInt64(&s.exchanges, 1)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": fmt.Sprintf("token-%d", n),
				"expires_in":   3600,
			})
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if s.rejectTokens[token] {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/listings":
			atomic.AddInt64(&s.listingHits, 1)
			json.NewEncoder(w).Encode(ListingsResponse{
				Listings: []Listing{{ID: 1, Reference: "PS-1"}},
				Total:    1,
			})
		case strings.HasPrefix(r.URL.Path, "/listings/"):
			http.NotFound(w, r)
		case r.URL.Path == "/locations":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"locations": []Location{{ID: 42, Name: "Dubai Marina"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestClient(baseURL string) *Client {
	tokens := NewTokenManager(baseURL, "key", "secret", newTestLogger())
	return NewClient(baseURL, tokens, newTestLogger())
}

func TestClientAttachesBearerToken(t *testing.T) {
	stub := &providerStub{rejectTokens: map[string]bool{}}
	ts := stub.server()
	defer ts.Close()

	c := newTestClient(ts.URL)

	resp, err := c.SearchListings(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, resp.Listings, 1)
	require.EqualValues(t, 1, atomic.LoadInt64(&stub.exchanges))
}

func TestClientRetriesOnceOn401(t *testing.T) {
	// The first issued token is rejected; the refreshed one is accepted.
	stub := &providerStub{rejectTokens: map[string]bool{"token-1": true}}
	ts := stub.server()
	defer ts.Close()

	c := newTestClient(ts.URL)

	resp, err := c.SearchListings(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Equal(t, "PS-1", resp.Listings[0].Reference)
	require.EqualValues(t, 2, atomic.LoadInt64(&stub.exchanges))
	require.EqualValues(t, 1, atomic.LoadInt64(&stub.listingHits))
}

func TestClientPropagatesPersistent401(t *testing.T) {
	stub := &providerStub{rejectTokens: map[string]bool{"token-1": true, "token-2": true}}
	ts := stub.server()
	defer ts.Close()

	c := newTestClient(ts.URL)

	_, err := c.SearchListings(context.Background(), 1, 50)
	require.ErrorIs(t, err, ErrAuth)
	// One refresh, no retry loop.
	require.EqualValues(t, 2, atomic.LoadInt64(&stub.exchanges))
}

func TestClientNotFound(t *testing.T) {
	stub := &providerStub{rejectTokens: map[string]bool{}}
	ts := stub.server()
	defer ts.Close()

	c := newTestClient(ts.URL)

	_, err := c.GetListing(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "t", "expires_in": 3600})
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	_, err := c.SearchListings(context.Background(), 1, 50)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAuth)
	require.Contains(t, err.Error(), "500")
}
