package ports

import (
	"github.com/gin-gonic/gin"
)

type TrendingHandler interface {
	TrackActivity(c *gin.Context)
	GetTrending(c *gin.Context)
	GetActiveRegions(c *gin.Context)
}

type StreamHandler interface {
	CreateStream(c *gin.Context)
	EndStream(c *gin.Context)
	GetStream(c *gin.Context)
	ListStreams(c *gin.Context)
	JoinStream(c *gin.Context)
	LeaveStream(c *gin.Context)
	AddComment(c *gin.Context)
	AddReaction(c *gin.Context)
}
