package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrReverted      = errors.New("transaction reverted")
	ErrNoSigner      = errors.New("no minter key configured")
	ErrNoTransferLog = errors.New("receipt has no ticket transfer log")
	// ErrNotMined means the transaction was broadcast but no receipt was seen.
	ErrNotMined = errors.New("transaction not mined")
)

// Backend is what an ethclient.Client provides.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type TicketContract struct {
	backend  Backend
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

type MintResult struct {
	TxHash  string
	TokenID string
}

type EventInfo struct {
	Name        string
	Price       *big.Int
	MaxTickets  *big.Int
	TicketsSold *big.Int
	IsActive    bool
}

func NewTicketContract(backend Backend, address string, chainID int64, privateKeyHex string) (*TicketContract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	parsed, err := abi.JSON(strings.NewReader(TicketABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticket ABI: %w", err)
	}

	addr := common.HexToAddress(address)
	tc := &TicketContract{
		backend:  backend,
		address:  addr,
		abi:      parsed,
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
		chainID:  big.NewInt(chainID),
	}

	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid minter key: %w", err)
		}
		tc.key = key
	}
	return tc, nil
}

func (tc *TicketContract) Address() string {
	return tc.address.Hex()
}

func (tc *TicketContract) CanMint() bool {
	return tc.key != nil
}

// MintTicket sends mintTicket and waits for it to be mined. Once the
// transaction is broadcast the result carries its hash, even with an error.
func (tc *TicketContract) MintTicket(ctx context.Context, to string, eventNumber *big.Int, tokenURI string, value *big.Int) (*MintResult, error) {
	if tc.key == nil {
		return nil, ErrNoSigner
	}
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid recipient %q", to)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(tc.key, tc.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := tc.contract.Transact(opts, "mintTicket", common.HexToAddress(to), eventNumber, tokenURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReverted, err)
	}

	res := &MintResult{TxHash: tx.Hash().Hex()}
	receipt, err := bind.WaitMined(ctx, tc.backend, tx)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %v", ErrNotMined, res.TxHash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return res, fmt.Errorf("mint %s: %w", res.TxHash, ErrReverted)
	}

	if id, ok := tc.TokenIDFromReceipt(receipt); ok {
		res.TokenID = id
	}
	return res, nil
}

// TokenIDFromReceipt reads the token id from the contract's Transfer log.
func (tc *TicketContract) TokenIDFromReceipt(receipt *types.Receipt) (string, bool) {
	transfer := tc.abi.Events["Transfer"].ID
	for _, l := range receipt.Logs {
		if l.Address != tc.address || len(l.Topics) != 4 || l.Topics[0] != transfer {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[3].Bytes()).String(), true
	}
	return "", false
}

func (tc *TicketContract) TokenIDFromTx(ctx context.Context, txHash string) (string, error) {
	receipt, err := tc.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return "", fmt.Errorf("failed to fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("tx %s: %w", txHash, ErrReverted)
	}
	id, ok := tc.TokenIDFromReceipt(receipt)
	if !ok {
		return "", ErrNoTransferLog
	}
	return id, nil
}

func (tc *TicketContract) EventInfo(ctx context.Context, eventNumber *big.Int) (*EventInfo, error) {
	var out []interface{}
	if err := tc.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getEventInfo", eventNumber); err != nil {
		return nil, fmt.Errorf("getEventInfo: %w", err)
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("getEventInfo: unexpected %d outputs", len(out))
	}

	info := &EventInfo{}
	var ok [5]bool
	info.Name, ok[0] = out[0].(string)
	info.Price, ok[1] = out[1].(*big.Int)
	info.MaxTickets, ok[2] = out[2].(*big.Int)
	info.TicketsSold, ok[3] = out[3].(*big.Int)
	info.IsActive, ok[4] = out[4].(bool)
	for i, v := range ok {
		if !v {
			return nil, fmt.Errorf("getEventInfo: output %d has unexpected type %T", i, out[i])
		}
	}
	return info, nil
}

func (tc *TicketContract) Owner(ctx context.Context) (string, error) {
	var out []interface{}
	if err := tc.contract.Call(&bind.CallOpts{Context: ctx}, &out, "owner"); err != nil {
		return "", fmt.Errorf("owner: %w", err)
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("owner: unexpected type %T", out[0])
	}
	return addr.Hex(), nil
}

// EventNumber maps a 12-byte record id onto the contract's uint256 event id.
func EventNumber(id [12]byte) *big.Int {
	return new(big.Int).SetBytes(id[:])
}
