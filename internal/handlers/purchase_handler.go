package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/middleware"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

func StartPurchase(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body services.StartPurchaseInput
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		purchase, err := ps.Start(c.Request.Context(), middleware.Wallet(c), body, c.ClientIP())
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"purchase": purchase})
	}
}

func GetPurchase(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		purchase, err := ps.Get(c.Request.Context(), c.Param("id"), middleware.Wallet(c))
		if err != nil {
			respondError(c, "Purchase", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchase": purchase})
	}
}

func AbandonPurchase(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		purchase, err := ps.Abandon(c.Request.Context(), c.Param("id"), middleware.Wallet(c))
		if err != nil {
			respondError(c, "Purchase", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchase": purchase})
	}
}
