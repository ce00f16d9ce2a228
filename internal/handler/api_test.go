package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"scamcheck/internal/conversation"
	"scamcheck/internal/models"
	"scamcheck/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu      sync.Mutex
	records map[string][]models.Record
}

func (s *memStore) Insert(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.IdentityID] = append(s.records[rec.IdentityID], *rec)
	return nil
}

func (s *memStore) ListByIdentity(_ context.Context, identityID string) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Record, len(s.records[identityID]))
	copy(out, s.records[identityID])
	return out, nil
}

type stubClassifier struct {
	verdict models.Classification
}

func (c *stubClassifier) Classify(context.Context, string) models.Classification {
	return c.verdict
}

func newTestRouter(verdict models.Classification) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	log := conversation.NewLog(&memStore{records: make(map[string][]models.Record)}, logger)
	turns := service.NewTurnService(log, &stubClassifier{verdict: verdict}, logger)
	router := gin.New()
	NewHandler(turns, log, logger).RegisterRoutes(router)
	return router
}

func scamVerdict() models.Classification {
	return models.Classification{
		Level:             models.LevelHighlyLikelyScam,
		ConfidencePercent: 88,
		IsScam:            true,
		Explanation:       "Classic lottery scam pattern.",
	}
}

func TestIssueIdentity(t *testing.T) {
	router := newTestRouter(scamVerdict())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/identities", nil))

	require.Equal(t, http.StatusCreated, w.Code)

	var identity models.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &identity))
	assert.NotEmpty(t, identity.ID)
}

func TestSubmitMessageReturnsFinalRecord(t *testing.T) {
	router := newTestRouter(scamVerdict())

	body := strings.NewReader(`{"text":"Congratulations! You won a lottery, click here to claim."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/user-1/messages", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var final models.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	assert.Equal(t, models.SenderAI, final.Sender)
	require.NotNil(t, final.Classification)
	assert.Equal(t, models.LevelHighlyLikelyScam, final.Classification.Level)
	assert.Equal(t, 88, final.Classification.ConfidencePercent)
}

func TestSubmitMessageRejectsMissingText(t *testing.T) {
	router := newTestRouter(scamVerdict())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/user-1/messages", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesReturnsOrderedConversation(t *testing.T) {
	router := newTestRouter(scamVerdict())

	submit := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/user-1/messages",
		strings.NewReader(`{"text":"hello"}`))
	submit.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), submit)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/user-1/messages", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Records []models.Record `json:"records"`
		Total   int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, models.SenderUser, resp.Records[0].Sender)
	assert.Equal(t, models.SenderAI, resp.Records[1].Sender)
	require.NotNil(t, resp.Records[2].Classification)
}

func TestGetTurnStateIdleByDefault(t *testing.T) {
	router := newTestRouter(scamVerdict())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/user-1/state", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(service.StateIdle))
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(scamVerdict())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
