package handler

import (
	"errors"
	"io"
	"net/http"

	"scamcheck/internal/conversation"
	"scamcheck/internal/models"
	"scamcheck/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests.
type Handler struct {
	turns  *service.TurnService
	log    *conversation.Log
	logger *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(turns *service.TurnService, log *conversation.Log, logger *zap.Logger) *Handler {
	return &Handler{
		turns:  turns,
		log:    log,
		logger: logger,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/identities", h.IssueIdentity)

		api.POST("/conversations/:identity/messages", h.SubmitMessage)
		api.GET("/conversations/:identity/messages", h.GetMessages)
		api.GET("/conversations/:identity/stream", h.StreamMessages)
		api.GET("/conversations/:identity/state", h.GetTurnState)
	}

	r.GET("/health", h.HealthCheck)
}

// IssueIdentity creates a fresh anonymous identity.
func (h *Handler) IssueIdentity(c *gin.Context) {
	identity := models.Identity{ID: uuid.NewString()}

	h.logger.Info("Identity issued", zap.String("identity_id", identity.ID))

	c.JSON(http.StatusCreated, identity)
}

// SubmitMessage runs one full turn for the identity and returns the final
// analysis record. Classification failures are not HTTP errors; they come
// back as an ERROR-level classification on the record.
func (h *Handler) SubmitMessage(c *gin.Context) {
	identity := models.Identity{ID: c.Param("identity")}

	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	final, err := h.turns.Submit(c.Request.Context(), identity, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrTurnInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "a previous message is still being analyzed"})
			return
		}
		h.logger.Error("Turn failed", zap.String("identity_id", identity.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record message"})
		return
	}

	c.JSON(http.StatusOK, final)
}

// GetMessages returns the identity's conversation, time-ordered.
func (h *Handler) GetMessages(c *gin.Context) {
	identityID := c.Param("identity")

	records, err := h.log.Snapshot(c.Request.Context(), identityID)
	if err != nil {
		h.logger.Error("Failed to load conversation", zap.String("identity_id", identityID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	conversation.SortByTime(records)

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   len(records),
	})
}

// StreamMessages delivers the live conversation over SSE: the current
// snapshot first, then a full re-sorted snapshot after every append.
func (h *Handler) StreamMessages(c *gin.Context) {
	identityID := c.Param("identity")

	snapshots, cancel, err := h.log.Subscribe(c.Request.Context(), identityID)
	if err != nil {
		h.logger.Error("Failed to subscribe", zap.String("identity_id", identityID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return false
			}
			conversation.SortByTime(snapshot)
			c.SSEvent("conversation", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetTurnState reports where the identity's current submission is in its
// lifecycle.
func (h *Handler) GetTurnState(c *gin.Context) {
	identityID := c.Param("identity")

	c.JSON(http.StatusOK, gin.H{
		"identity_id": identityID,
		"state":       h.turns.State(identityID),
	})
}

// HealthCheck returns service health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scamcheck",
	})
}
