package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

func Search(ss *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := ss.Search(c.Request.Context(), c.Query("q"), queryInt(c, "page", 1), queryInt(c, "limit", services.DefaultPageSize))
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"events":     models.EventViews(res.Events),
			"filters":    res.Filters,
			"pagination": res.Pagination,
		})
	}
}

// DescribeEvent drafts an event description from its title.
func DescribeEvent(ss *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body services.DescribeInput
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		description, err := ss.Describe(c.Request.Context(), body)
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"description": description})
	}
}
