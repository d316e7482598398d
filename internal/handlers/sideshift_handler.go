package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

func SideShiftQuote(es *services.ExchangeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body services.QuoteInput
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		quote, err := es.Quote(c.Request.Context(), body, c.ClientIP())
		if err != nil {
			respondError(c, "Quote", err)
			return
		}
		c.JSON(http.StatusOK, quote)
	}
}

func SideShiftCreateShift(es *services.ExchangeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body services.ShiftInput
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		shift, err := es.CreateShift(c.Request.Context(), body, c.ClientIP())
		if err != nil {
			respondError(c, "Shift", err)
			return
		}
		c.JSON(http.StatusOK, shift)
	}
}

func SideShiftStatus(es *services.ExchangeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shift, err := es.ShiftStatus(c.Request.Context(), c.Query("id"))
		if err != nil {
			respondError(c, "Shift", err)
			return
		}
		c.JSON(http.StatusOK, shift)
	}
}

func SideShiftCoins(es *services.ExchangeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		coins, err := es.Coins(c.Request.Context(), c.Query("supported") == "true")
		if err != nil {
			respondError(c, "Coin", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"coins": coins})
	}
}

func SideShiftPermissions(es *services.ExchangeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, err := es.Permissions(c.Request.Context(), c.ClientIP())
		if err != nil {
			respondError(c, "Permission", err)
			return
		}
		c.JSON(http.StatusOK, perms)
	}
}
