package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/helpers"
)

const WalletKey = "wallet"

// Authenticator resolves a session token to a wallet address.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// WalletAuth requires a bearer session token and stores the wallet in the context.
func WalletAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, err := auth.Authenticate(helpers.BearerToken(c.GetHeader("Authorization")))
		if err != nil || wallet == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no wallet"})
			return
		}
		c.Set(WalletKey, wallet)
		c.Next()
	}
}

// Wallet returns the authenticated wallet, or "" outside WalletAuth.
func Wallet(c *gin.Context) string {
	return c.GetString(WalletKey)
}
