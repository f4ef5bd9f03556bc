package handlers

import (
	"errors"
	"net/http"

	"propsync/internal/logger"
	"propsync/internal/services/propspace"
	"propsync/internal/sync"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the admin-triggered sync operations.
type SyncHandler struct {
	orchestrator *sync.Orchestrator
	client       *propspace.Client
	logger       *logger.Logger
}

func NewSyncHandler(orchestrator *sync.Orchestrator, client *propspace.Client, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		client:       client,
		logger:       logger,
	}
}

// SyncAll runs a full bulk sync against the provider.
func (h *SyncHandler) SyncAll(c *gin.Context) {
	report, err := h.orchestrator.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Bulk sync failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, propspace.ErrAuth) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "Bulk sync failed", "report": report})
		return
	}

	c.JSON(http.StatusOK, report)
}

// SyncOne pulls one listing by provider id or reference.
func (h *SyncHandler) SyncOne(c *gin.Context) {
	identifier := c.Param("identifier")

	property, err := h.orchestrator.SyncOne(c.Request.Context(), identifier)
	if err != nil {
		if errors.Is(err, propspace.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found at provider"})
			return
		}
		h.logger.Error("Failed to sync listing %s: %v", identifier, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync listing"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// WebhookStatus reports the webhook subscription held at the provider.
func (h *SyncHandler) WebhookStatus(c *gin.Context) {
	sub, err := h.client.GetWebhookSubscription(c.Request.Context())
	if err != nil {
		if errors.Is(err, propspace.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"registered": false})
			return
		}
		h.logger.Error("Failed to fetch webhook subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch webhook subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"registered": true, "subscription": sub})
}

// RegisterWebhook registers this service's webhook endpoint at the provider.
func (h *SyncHandler) RegisterWebhook(c *gin.Context) {
	var request struct {
		EventID string `json:"event_id" binding:"required"`
		URL     string `json:"url" binding:"required"`
		Secret  string `json:"secret" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.client.RegisterWebhook(c.Request.Context(), request.EventID, request.URL, request.Secret)
	if err != nil {
		h.logger.Error("Failed to register webhook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register webhook"})
		return
	}

	c.JSON(http.StatusOK, sub)
}
