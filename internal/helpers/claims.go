package helpers

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	KindChallenge = "challenge"
	KindSession   = "session"
)

// WalletClaims identify a wallet; Subject holds the lowercased address.
type WalletClaims struct {
	Kind    string `json:"kind"`
	Nonce   string `json:"nonce,omitempty"`
	Message string `json:"message,omitempty"`
	jwt.RegisteredClaims
}

func (wc *WalletClaims) Wallet() string {
	return wc.Subject
}

func (wc *WalletClaims) IsSession() bool {
	return wc.Kind == KindSession
}

func (wc *WalletClaims) IsOwner(address string) bool {
	return wc.Subject != "" && wc.Subject == NormalizeAddress(address)
}

func (wc *WalletClaims) HasNonce(nonce string) bool {
	return wc.Nonce != "" && strings.EqualFold(wc.Nonce, nonce)
}
