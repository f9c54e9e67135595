package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger/internal/mocks"
	"messenger/internal/telemetry"
)

func TestDebugAuditTestEchoesIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	publisher := &mocks.PublisherMock{}
	publisher.On("Publish", mock.Anything, "audit.test", mock.Anything, mock.Anything).Return(nil)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.test", "messenger", "test")

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", 7) })
	RegisterDebugRoutes(r, emitter, true)

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status    string `json:"status"`
		RequestID string `json:"requestId"`
		UserID    int    `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "req-123", resp.RequestID)
	assert.Equal(t, 7, resp.UserID)
	publisher.AssertExpectations(t)
}

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	RegisterDebugRoutes(r, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
