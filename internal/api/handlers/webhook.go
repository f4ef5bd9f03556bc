package handlers

import (
	"encoding/json"
	"net/http"

	"propsync/internal/logger"
	"propsync/internal/services/propspace"
	"propsync/internal/sync"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives push events from the provider. The endpoint always
// answers 200: failing a delivery only makes the provider redeliver, and a
// local logic bug should not turn into a retry storm. Failures are logged
// instead.
type WebhookHandler struct {
	verifier     *propspace.WebhookVerifier
	orchestrator *sync.Orchestrator
	logger       *logger.Logger
}

func NewWebhookHandler(verifier *propspace.WebhookVerifier, orchestrator *sync.Orchestrator, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:     verifier,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.logger.Error("Failed to read webhook payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	signature := c.GetHeader("X-Signature")
	if !h.verifier.Verify(payload, signature) {
		h.logger.Error("Webhook signature verification failed")
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	var event propspace.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("Failed to parse webhook payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if err := h.orchestrator.HandleEvent(c.Request.Context(), &event); err != nil {
		h.logger.Error("Failed to process %s webhook: %v", event.EventType, err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
