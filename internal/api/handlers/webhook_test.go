package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"propsync/internal/logger"
	"propsync/internal/models"
	"propsync/internal/services/propspace"
	"propsync/internal/sync"
)

type memRepo struct {
	rows map[string]*models.Property
}

func (r *memRepo) FindByExternalKey(ctx context.Context, refID, reference string) (*models.Property, error) {
	for _, row := range r.rows {
		if row.ExternalRefID == refID || row.ExternalReference == reference {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Create(ctx context.Context, property *models.Property) error {
	for _, row := range r.rows {
		if row.ExternalRefID == property.ExternalRefID || row.ExternalReference == property.ExternalReference {
			return sync.ErrDuplicateKey
		}
	}
	property.ID = "p-1"
	r.rows[property.ID] = property
	return nil
}

func (r *memRepo) Update(ctx context.Context, property *models.Property) error {
	r.rows[property.ID] = property
	return nil
}

func (r *memRepo) MarkUnavailable(ctx context.Context, id string) error {
	if row, ok := r.rows[id]; ok {
		row.Status = models.StatusUnavailable
	}
	return nil
}

type noListings struct{}

func (noListings) SearchListings(ctx context.Context, page, perPage int) (*propspace.ListingsResponse, error) {
	return &propspace.ListingsResponse{}, nil
}

func (noListings) GetListing(ctx context.Context, identifier string) (*propspace.Listing, error) {
	return nil, propspace.ErrNotFound
}

type noLocations struct{}

func (noLocations) SearchLocations(ctx context.Context, filter propspace.LocationFilter) ([]propspace.Location, error) {
	return nil, nil
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookRouter(t *testing.T, secret string) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("error")
	repo := &memRepo{rows: map[string]*models.Property{}}
	locations := propspace.NewLocationCache(noLocations{}, log)
	transformer := propspace.NewTransformer(locations)
	orchestrator := sync.NewOrchestrator(noListings{}, transformer, locations, repo, nil, nil, log, 50)
	verifier := propspace.NewWebhookVerifier(secret, false, log)

	router := gin.New()
	router.POST("/webhook", NewWebhookHandler(verifier, orchestrator, log).Handle)
	return router, repo
}

func webhookBody(t *testing.T, eventType string) []byte {
	t.Helper()
	title := "Listing"
	event := propspace.WebhookEvent{EventType: eventType}
	event.Data.Listing = propspace.Listing{
		ID:        5,
		Reference: "PS-5",
		Title:     propspace.LocalizedText{EN: &title},
		Price:     propspace.PriceBlock{Type: "sale", Amounts: map[string]float64{"sale": 250000}},
		State:     propspace.ListingState{Stage: "live"},
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func TestWebhookProcessesSignedEvent(t *testing.T) {
	router, repo := newWebhookRouter(t, "secret")
	body := webhookBody(t, "listing.created")

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature", signBody("secret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, repo.rows, 1)
}

func TestWebhookBadSignatureStillReturns200(t *testing.T) {
	router, repo := newWebhookRouter(t, "secret")
	body := webhookBody(t, "listing.created")

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature", "bogus")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Verification failure is logged, not rejected: the event just is not
	// applied.
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, repo.rows, 0)
}

func TestWebhookUnknownEventTypeIgnored(t *testing.T) {
	router, repo := newWebhookRouter(t, "secret")
	body := webhookBody(t, "agent.assigned")

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature", signBody("secret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.rows, 0)
}
