package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

// Nonce hands out a sign-in challenge for a wallet address.
func Nonce(as *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Address string `json:"address"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		challenge, err := as.Nonce(body.Address)
		if err != nil {
			respondError(c, "Wallet", err)
			return
		}
		c.JSON(http.StatusOK, challenge)
	}
}

// VerifySignature exchanges a signed challenge for a session token.
func VerifySignature(as *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Challenge string `json:"challenge"`
			Signature string `json:"signature"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		token, err := as.Verify(c.Request.Context(), body.Challenge, body.Signature)
		if err != nil {
			respondError(c, "Wallet", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
