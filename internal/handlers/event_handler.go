package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

func ListEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, page, err := es.ListEvents(c.Request.Context(), services.EventListParams{
			Search:   c.Query("search"),
			Category: c.Query("category"),
			Status:   c.Query("status"),
			Creator:  c.Query("creator"),
			Page:     queryInt(c, "page", 1),
			Limit:    queryInt(c, "limit", services.DefaultPageSize),
		})
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"events":     models.EventViews(events),
			"pagination": page,
		})
	}
}

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event models.Event
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		created, err := es.CreateEvent(c.Request.Context(), &event)
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"event": created.View()})
	}
}

func GetEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := es.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": event.View()})
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update models.EventUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		event, err := es.UpdateEvent(c.Request.Context(), c.Param("id"), &update)
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": event.View()})
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := es.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
	}
}

func VerifyPin(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Pin string `json:"pin"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		valid, err := es.VerifyPin(c.Request.Context(), c.Param("id"), body.Pin)
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		if !valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid PIN", "valid": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}

// ConfirmPurchase records a ticket bought and minted by the client.
func ConfirmPurchase(ts *services.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body services.PurchaseConfirmation
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		receipt, err := ts.ConfirmPurchase(c.Request.Context(), c.Param("id"), body)
		if err != nil {
			respondError(c, "Event", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"message":      "Ticket purchased successfully",
			"ticketNumber": receipt.TicketNumber,
			"tokenId":      receipt.TokenID,
			"shiftId":      receipt.ShiftID,
		})
	}
}
