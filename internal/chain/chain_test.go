package chain

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractAddr = "0x1111111111111111111111111111111111111111"

func TestRecoverAddressWalletSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	msg := "Sign in to EventNest\nNonce: abc"
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	require.NoError(t, err)
	sig[64] += 27

	got, err := RecoverAddress(msg, hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := RecoverAddress("different message", hexutil.Encode(sig))
	require.NoError(t, err)
	assert.NotEqual(t, want, other)
}

func TestRecoverAddressRejectsGarbage(t *testing.T) {
	_, err := RecoverAddress("m", "0x1234")
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = RecoverAddress("m", "not-hex")
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestToWei(t *testing.T) {
	assert.Equal(t, "5000000000000000000", ToWei(decimal.NewFromInt(5)).String())
	assert.Equal(t, "1500000000000000", ToWei(decimal.RequireFromString("0.0015")).String())
	assert.True(t, FromWei(big.NewInt(2_500_000_000_000_000)).Equal(decimal.RequireFromString("0.0025")))
}

func TestTokenIDFromReceipt(t *testing.T) {
	tc, err := NewTicketContract(nil, contractAddr, 80002, "")
	require.NoError(t, err)
	assert.False(t, tc.CanMint())

	transfer := tc.abi.Events["Transfer"].ID
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	receipt := &types.Receipt{Logs: []*types.Log{
		// same signature from another contract is ignored
		{
			Address: common.HexToAddress("0x3333333333333333333333333333333333333333"),
			Topics:  []common.Hash{transfer, {}, common.BytesToHash(to.Bytes()), common.BigToHash(big.NewInt(99))},
		},
		{
			Address: common.HexToAddress(contractAddr),
			Topics:  []common.Hash{transfer, {}, common.BytesToHash(to.Bytes()), common.BigToHash(big.NewInt(42))},
		},
	}}

	id, ok := tc.TokenIDFromReceipt(receipt)
	require.True(t, ok)
	assert.Equal(t, "42", id)

	_, ok = tc.TokenIDFromReceipt(&types.Receipt{})
	assert.False(t, ok)
}

func TestNewTicketContractValidatesInput(t *testing.T) {
	_, err := NewTicketContract(nil, "nope", 1, "")
	assert.Error(t, err)

	_, err = NewTicketContract(nil, contractAddr, 1, "zz")
	assert.Error(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tc, err := NewTicketContract(nil, contractAddr, 1, hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.True(t, tc.CanMint())
}

func TestEventNumber(t *testing.T) {
	var id [12]byte
	id[11] = 7
	assert.Equal(t, int64(7), EventNumber(id).Int64())
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "EventTicket.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"contractName":"EventTicket","abi":[{"type":"constructor","inputs":[]}],"bytecode":"0x6080"}`), 0o600))
	art, err := LoadArtifact(good)
	require.NoError(t, err)
	assert.Equal(t, "0x6080", art.Bytecode)
	assert.Equal(t, `[{"type":"constructor","inputs":[]}]`, art.ABI)

	nested := filepath.Join(dir, "nested.json")
	require.NoError(t, os.WriteFile(nested, []byte(`{"abi":[],"bytecode":{"object":"0x60"}}`), 0o600))
	art, err = LoadArtifact(nested)
	require.NoError(t, err)
	assert.Equal(t, "0x60", art.Bytecode)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"abi":[]}`), 0o600))
	_, err = LoadArtifact(bad)
	assert.Error(t, err)
}
