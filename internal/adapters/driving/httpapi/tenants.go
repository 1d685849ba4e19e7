package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type checkSlugQuery struct {
	Slug string `form:"slug" binding:"required"`
}

func (s *Server) handleCheckSlug(c *gin.Context) {
	if s.ports.Tenants == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Error: "tenant service is not configured"})
		return
	}

	var q checkSlugQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "slug is required"})
		return
	}

	available, err := s.ports.Tenants.CheckSlug(c.Request.Context(), q.Slug)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAvailable": available})
}
