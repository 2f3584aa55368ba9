package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAccountUsage returns the reconciled usage records for an account. The
// usage service is best-effort: metering or attribution failures come back
// as an empty array, never an error status.
func (s *Server) GetAccountUsage(c *gin.Context) {
	accountID, err := parseSnowflakeID(c.Param("account_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	startDate, err := parseOptionalTime(c.Query("start_time"), false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	endDate, err := parseOptionalTime(c.Query("end_time"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	records := s.usagesvc.GetUsageForAccount(c.Request.Context(), accountID, startDate, endDate)
	c.JSON(http.StatusOK, records)
}

// GetSubscriptionUsage returns the reconciled usage records for a single
// subscription, scoped to its tagged meter.
func (s *Server) GetSubscriptionUsage(c *gin.Context) {
	subscriptionID, err := parseSnowflakeID(c.Param("subscription_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	startDate, err := parseOptionalTime(c.Query("start_time"), false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	endDate, err := parseOptionalTime(c.Query("end_time"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	records := s.usagesvc.GetUsageForSubscription(c.Request.Context(), subscriptionID, startDate, endDate)
	c.JSON(http.StatusOK, records)
}
