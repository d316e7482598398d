package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/services"
)

// GetUser returns the profile for ?address=, or only its tickets with ?type=tickets.
func GetUser(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Query("address")

		if c.Query("type") == "tickets" {
			tickets, err := us.GetTickets(c.Request.Context(), address)
			if err != nil {
				respondError(c, "User", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"tickets": tickets})
			return
		}

		profile, err := us.GetProfile(c.Request.Context(), address)
		if err != nil {
			respondError(c, "User", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": profile})
	}
}
