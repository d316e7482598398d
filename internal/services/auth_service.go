package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventnest/internal/chain"
	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models"
)

const challengeTTL = 5 * time.Minute

var ErrBadSignature = errors.New("signature does not match address")

type AuthService struct {
	secret     string
	sessionTTL time.Duration
	usersRepo  models.UserRepo
	now        func() time.Time
}

func NewAuthService(secret string, sessionTTL time.Duration, usersRepo models.UserRepo) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		secret:     secret,
		sessionTTL: sessionTTL,
		usersRepo:  usersRepo,
		now:        time.Now,
	}
}

type Challenge struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	Challenge string `json:"challenge"`
}

func signInMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to EventNest\nAddress: %s\nNonce: %s", address, nonce)
}

// Nonce issues a signed challenge the wallet must sign to get a session.
func (as *AuthService) Nonce(address string) (*Challenge, error) {
	address = helpers.NormalizeAddress(address)
	if !chain.IsAddress(address) {
		return nil, &ValidationError{Message: "A valid wallet address is required"}
	}

	nonce := uuid.NewString()
	message := signInMessage(address, nonce)
	token, err := helpers.IssueToken(as.secret, address, helpers.KindChallenge, challengeTTL, as.now(), func(c *helpers.WalletClaims) {
		c.Nonce = nonce
		c.Message = message
	})
	if err != nil {
		return nil, err
	}
	return &Challenge{Nonce: nonce, Message: message, Challenge: token}, nil
}

// Verify checks the signed challenge and returns a session token.
func (as *AuthService) Verify(ctx context.Context, challenge, signature string) (string, error) {
	if verr := missingFields(
		[2]string{"challenge", challenge},
		[2]string{"signature", signature},
	); verr != nil {
		return "", verr
	}

	claims, err := helpers.ValidateToken(challenge, as.secret, helpers.KindChallenge)
	if err != nil {
		return "", err
	}
	if claims.Message != signInMessage(claims.Wallet(), claims.Nonce) {
		return "", helpers.ErrInvalidToken
	}

	signer, err := chain.RecoverAddress(claims.Message, signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if signer != claims.Wallet() {
		return "", ErrBadSignature
	}

	if _, err := as.usersRepo.UpsertUser(ctx, signer); err != nil {
		return "", fmt.Errorf("error loading user: %w", err)
	}
	return helpers.IssueToken(as.secret, signer, helpers.KindSession, as.sessionTTL, as.now(), nil)
}

// Authenticate returns the wallet of a valid session token.
func (as *AuthService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrNoWallet
	}
	claims, err := helpers.ValidateToken(token, as.secret, helpers.KindSession)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWallet, err)
	}
	return claims.Wallet(), nil
}
