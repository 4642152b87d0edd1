package http

import (
	"net/http"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
	"newspulse/internal/infrastructure/monitoring"
	"newspulse/pkg/errors"
	"newspulse/pkg/tracing"

	"github.com/gin-gonic/gin"
)

type TrendingHandler struct {
	tracker   ports.ActivityTracker
	ranker    ports.TrendRanker
	regions   ports.RegionIndex
	collector *monitoring.PrometheusCollector
}

func NewTrendingHandler(
	tracker ports.ActivityTracker,
	ranker ports.TrendRanker,
	regions ports.RegionIndex,
	collector *monitoring.PrometheusCollector,
) *TrendingHandler {
	return &TrendingHandler{
		tracker:   tracker,
		ranker:    ranker,
		regions:   regions,
		collector: collector,
	}
}

// TrackActivity is called by the persistence layer after like/comment/
// view mutations. The tracker itself never errors; only a missing
// content id produces a 400.
func (h *TrendingHandler) TrackActivity(c *gin.Context) {
	var req struct {
		ContentID string `json:"contentId" binding:"required"`
		Type      string `json:"type" binding:"required"`
		UserID    string `json:"userId"`
		Location  struct {
			RegionName string `json:"regionName"`
		} `json:"location"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	tracing.AddSpanAttributes(c.Request.Context(),
		tracing.ContentIDKey.String(req.ContentID),
		tracing.ActivityKey.String(req.Type),
		tracing.RegionKey.String(req.Location.RegionName),
	)

	snapshot := h.tracker.Track(domain.ContentID(req.ContentID), req.Type, domain.TrackOptions{
		ActorID: req.UserID,
		Region:  req.Location.RegionName,
	})
	if snapshot == nil {
		c.Error(errors.NewInvalidInputError("contentId is required"))
		return
	}

	if h.collector != nil {
		h.collector.RecordActivity(domain.ParseActivityType(req.Type))
	}

	c.JSON(http.StatusOK, gin.H{"activity": snapshot})
}

func (h *TrendingHandler) GetTrending(c *gin.Context) {
	var req struct {
		Timeframe string `form:"timeframe"`
		Region    string `form:"region"`
		Limit     int    `form:"limit"`
	}

	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	trending := h.ranker.TrendingNews(ports.TrendQuery{
		Timeframe: req.Timeframe,
		Region:    req.Region,
		Limit:     req.Limit,
	})

	c.JSON(http.StatusOK, gin.H{
		"timeframe": string(domain.ParseTimeframe(req.Timeframe)),
		"trending":  trending,
	})
}

func (h *TrendingHandler) GetActiveRegions(c *gin.Context) {
	var req struct {
		Limit               int `form:"limit"`
		ActiveWithinMinutes int `form:"active_within_minutes"`
	}

	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	regions := h.regions.ActiveRegions(ports.RegionQuery{
		Limit:        req.Limit,
		ActiveWithin: time.Duration(req.ActiveWithinMinutes) * time.Minute,
	})

	c.JSON(http.StatusOK, gin.H{"regions": regions})
}
