package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestWalletSignIn(t *testing.T) {
	store := memstore.New()
	svc := NewAuthService("test-secret", 0, store)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	ch, err := svc.Nonce(address)
	require.NoError(t, err)
	assert.Contains(t, ch.Message, ch.Nonce)
	assert.Contains(t, ch.Message, strings.ToLower(address))

	sig, err := crypto.Sign(accounts.TextHash([]byte(ch.Message)), key)
	require.NoError(t, err)
	sig[64] += 27

	token, err := svc.Verify(context.Background(), ch.Challenge, hexutil.Encode(sig))
	require.NoError(t, err)

	wallet, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(address), wallet)
	assert.Equal(t, 1, store.Users())

	// a challenge is not a session
	_, err = svc.Authenticate(ch.Challenge)
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestVerifyRejectsOtherSigner(t *testing.T) {
	svc := NewAuthService("test-secret", 0, memstore.New())

	victim, _ := sign(t, "unused")
	ch, err := svc.Nonce(victim)
	require.NoError(t, err)

	_, sig := sign(t, ch.Message)
	_, err = svc.Verify(context.Background(), ch.Challenge, sig)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsForeignChallenge(t *testing.T) {
	svc := NewAuthService("test-secret", 0, memstore.New())
	other := NewAuthService("other-secret", 0, memstore.New())

	addr, _ := sign(t, "unused")
	ch, err := other.Nonce(addr)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), ch.Challenge, "0x00")
	assert.ErrorIs(t, err, helpers.ErrInvalidToken)
}

func TestNonceRequiresAddress(t *testing.T) {
	svc := NewAuthService("test-secret", 0, memstore.New())
	_, err := svc.Nonce("not-an-address")

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
