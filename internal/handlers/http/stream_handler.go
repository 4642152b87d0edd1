package http

import (
	"net/http"
	"strconv"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
	"newspulse/internal/infrastructure/middleware"
	"newspulse/pkg/errors"
	"newspulse/pkg/tracing"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	registry ports.StreamRegistry
}

func NewStreamHandler(registry ports.StreamRegistry) *StreamHandler {
	return &StreamHandler{registry: registry}
}

func (h *StreamHandler) CreateStream(c *gin.Context) {
	var req struct {
		ContentID   string                 `json:"contentId" binding:"required"`
		Title       string                 `json:"title" binding:"required,min=1,max=200"`
		Metadata    map[string]interface{} `json:"metadata"`
		IsAnonymous bool                   `json:"isAnonymous"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	tracing.AddSpanAttributes(c.Request.Context(),
		tracing.StreamIDKey.String(req.ContentID),
		tracing.UserIDKey.String(middleware.UserID(c)),
	)

	stream := h.registry.CreateStream(c.Request.Context(), domain.CreateStreamParams{
		ContentID:   domain.ContentID(req.ContentID),
		UserID:      middleware.UserID(c),
		Title:       req.Title,
		Metadata:    req.Metadata,
		IsAnonymous: req.IsAnonymous,
	})
	if stream == nil {
		c.Error(errors.NewInvalidInputError("contentId, title and an authenticated broadcaster are required"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stream": stream})
}

// EndStream translates the registry's false sentinel to 404: either the
// stream does not exist or the caller is not one of its broadcasters.
func (h *StreamHandler) EndStream(c *gin.Context) {
	if !h.registry.EndStream(c.Request.Context(), c.Param("id"), middleware.UserID(c)) {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	stream := h.registry.PublicStream(c.Request.Context(), c.Param("id"))
	if stream == nil {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": stream})
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	filter := parseLocationFilter(c)
	streams := h.registry.ActiveStreams(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{"streams": streams})
}

func (h *StreamHandler) JoinStream(c *gin.Context) {
	var req struct {
		ViewerID string `json:"viewerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	id := c.Param("id")
	if !h.registry.AddViewer(c.Request.Context(), id, req.ViewerID) {
		c.Error(errors.NewNotFoundError("active stream"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "joined",
		"viewerCount": h.registry.ViewerCount(c.Request.Context(), id),
	})
}

func (h *StreamHandler) LeaveStream(c *gin.Context) {
	var req struct {
		ViewerID string `json:"viewerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	id := c.Param("id")
	if !h.registry.RemoveViewer(c.Request.Context(), id, req.ViewerID) {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "left",
		"viewerCount": h.registry.ViewerCount(c.Request.Context(), id),
	})
}

func (h *StreamHandler) AddComment(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Text     string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	comment := h.registry.AddComment(c.Request.Context(), c.Param("id"), ports.CommentInput{
		UserID:   req.UserID,
		Username: req.Username,
		Text:     req.Text,
	})
	if comment == nil {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *StreamHandler) AddReaction(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Type     string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	reaction := h.registry.AddReaction(c.Request.Context(), c.Param("id"), ports.ReactionInput{
		UserID:   req.UserID,
		Username: req.Username,
		Type:     req.Type,
	})
	if reaction == nil {
		c.Error(errors.NewNotFoundError("stream"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reaction": reaction})
}

func parseLocationFilter(c *gin.Context) *domain.LocationFilter {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if latStr == "" || lngStr == "" {
		return nil
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		return nil
	}

	radius := 50.0
	if radiusStr := c.Query("radius_km"); radiusStr != "" {
		if parsed, err := strconv.ParseFloat(radiusStr, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	return &domain.LocationFilter{Latitude: lat, Longitude: lng, RadiusKm: radius}
}
