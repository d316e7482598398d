package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeAddress("  0xAbCdEf "))
	assert.Equal(t, NormalizeAddress("0xABC"), NormalizeAddress("0xabc"))
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := IssueToken("secret", "0xABC", KindSession, time.Hour, now, nil)
	require.NoError(t, err)

	claims, err := ValidateToken(tok, "secret", KindSession)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", claims.Wallet())
	assert.True(t, claims.IsSession())
	assert.True(t, claims.IsOwner("0xAbC"))

	_, err = ValidateToken(tok, "other", KindSession)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken(tok, "secret", KindChallenge)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	tok, err := IssueToken("secret", "0xabc", KindChallenge, time.Minute, time.Now().Add(-time.Hour), func(c *WalletClaims) {
		c.Nonce = "n1"
	})
	require.NoError(t, err)

	_, err = ValidateToken(tok, "secret", KindChallenge)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc"))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}
