package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/healthcheck", s.Healthcheck)
}

// Healthcheck reports process liveness plus database reachability. The
// metering provider is deliberately not probed here: its availability is a
// per-query concern, not a reason to restart this service.
func (s *Server) Healthcheck(c *gin.Context) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"reason": "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
