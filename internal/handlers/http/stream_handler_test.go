package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
	"newspulse/internal/core/services"
	"newspulse/internal/infrastructure/middleware"
	"newspulse/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testIdentity stands in for the JWT middleware: it stores a fixed user
// id the way AuthMiddleware does after verification.
func testIdentity(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

func newStreamRouter(t *testing.T, userID string) (*gin.Engine, ports.StreamRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := services.NewStreamRegistry(memory.NewMemoryStreamRepository(), zaptest.NewLogger(t).Sugar())
	handler := NewStreamHandler(registry)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zaptest.NewLogger(t).Sugar()))
	router.Use(testIdentity(userID))
	router.POST("/streams", handler.CreateStream)
	router.POST("/streams/:id/end", handler.EndStream)
	router.GET("/streams", handler.ListStreams)
	router.GET("/streams/:id", handler.GetStream)
	router.POST("/streams/:id/join", handler.JoinStream)
	router.POST("/streams/:id/leave", handler.LeaveStream)
	router.POST("/streams/:id/comments", handler.AddComment)
	router.POST("/streams/:id/reactions", handler.AddReaction)
	return router, registry
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func testCtx() context.Context {
	return context.Background()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateStream(t *testing.T) {
	router, _ := newStreamRouter(t, "alice")

	w := doJSON(t, router, http.MethodPost, "/streams", map[string]interface{}{
		"contentId": "news-7",
		"title":     "Live coverage",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	stream := decodeBody(t, w)["stream"].(map[string]interface{})
	assert.Equal(t, "news-7", stream["id"])
	assert.Equal(t, "active", stream["status"])
	assert.Equal(t, float64(1), stream["broadcasterCount"])
}

func TestCreateStream_Unauthenticated(t *testing.T) {
	router, _ := newStreamRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/streams", map[string]interface{}{
		"contentId": "news-7",
		"title":     "Live coverage",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndStream(t *testing.T) {
	router, registry := newStreamRouter(t, "alice")

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "news-7", UserID: "alice", Title: "t",
	})

	w := doJSON(t, router, http.MethodPost, "/streams/news-7/end", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Already ended
	w = doJSON(t, router, http.MethodPost, "/streams/news-7/end", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndStream_NotBroadcaster(t *testing.T) {
	router, registry := newStreamRouter(t, "mallory")

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "news-7", UserID: "alice", Title: "t",
	})

	w := doJSON(t, router, http.MethodPost, "/streams/news-7/end", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStream(t *testing.T) {
	router, registry := newStreamRouter(t, "alice")

	w := doJSON(t, router, http.MethodGet, "/streams/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "news-7", UserID: "alice", Title: "t",
	})

	w = doJSON(t, router, http.MethodGet, "/streams/news-7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stream := decodeBody(t, w)["stream"].(map[string]interface{})
	assert.Equal(t, "news-7", stream["id"])
}

func TestListStreams_LocationFilter(t *testing.T) {
	router, registry := newStreamRouter(t, "alice")

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "berlin", UserID: "alice", Title: "t",
		Metadata: map[string]interface{}{"latitude": 52.52, "longitude": 13.405},
	})
	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "hamburg", UserID: "bob", Title: "t",
		Metadata: map[string]interface{}{"latitude": 53.55, "longitude": 9.993},
	})

	w := doJSON(t, router, http.MethodGet, "/streams", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["streams"], 2)

	w = doJSON(t, router, http.MethodGet, "/streams?lat=52.5&lng=13.4&radius_km=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	streams := decodeBody(t, w)["streams"].([]interface{})
	require.Len(t, streams, 1)
	assert.Equal(t, "berlin", streams[0].(map[string]interface{})["id"])

	// Default radius applies when radius_km is omitted
	w = doJSON(t, router, http.MethodGet, "/streams?lat=52.5&lng=13.4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["streams"], 1)
}

func TestJoinAndLeaveStream(t *testing.T) {
	router, registry := newStreamRouter(t, "alice")

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "news-7", UserID: "alice", Title: "t",
	})

	w := doJSON(t, router, http.MethodPost, "/streams/news-7/join", map[string]interface{}{"viewerId": "v1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["viewerCount"])

	w = doJSON(t, router, http.MethodPost, "/streams/news-7/leave", map[string]interface{}{"viewerId": "v1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["viewerCount"])

	w = doJSON(t, router, http.MethodPost, "/streams/missing/join", map[string]interface{}{"viewerId": "v1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/streams/news-7/join", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddCommentAndReactionEndpoints(t *testing.T) {
	router, registry := newStreamRouter(t, "alice")

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "news-7", UserID: "alice", Title: "t",
	})

	w := doJSON(t, router, http.MethodPost, "/streams/news-7/comments", map[string]interface{}{
		"userId":   "bob",
		"username": "Bob",
		"text":     "great stream",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	assert.Equal(t, "great stream", comment["text"])
	assert.NotEmpty(t, comment["id"])

	w = doJSON(t, router, http.MethodPost, "/streams/news-7/reactions", map[string]interface{}{
		"userId": "bob",
		"type":   "fire",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	reaction := decodeBody(t, w)["reaction"].(map[string]interface{})
	assert.Equal(t, "fire", reaction["type"])

	w = doJSON(t, router, http.MethodPost, "/streams/missing/comments", map[string]interface{}{"text": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/streams/news-7/comments", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBindFailureWritesSingleErrorBody(t *testing.T) {
	router, registry := newStreamRouter(t, "alice")

	registry.CreateStream(testCtx(), domain.CreateStreamParams{
		ContentID: "news-7", UserID: "alice", Title: "t",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/streams/news-7/join", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unmarshal rejects trailing data, so this fails if the handler and
	// the error middleware each wrote a body.
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body["error"])
	assert.NotEmpty(t, body["message"])
}
