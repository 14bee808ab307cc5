package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adlytics/experiment-service/internal/dto"
)

// requireAPIKey guards the results endpoint. Assignment, exposure, and
// event tracking stay open; aggregates do not.
func (h *Handler) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")

		if h.config.ResultsAPIKey == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(h.config.ResultsAPIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: "a valid X-API-Key header is required",
			})
			return
		}

		c.Next()
	}
}
