package services

import (
	"context"
	"io"
	"math/big"

	"github.com/joshua-takyi/eventnest/internal/chain"
	"github.com/joshua-takyi/eventnest/internal/external"
)

// Exchange is the part of the SideShift client the services use.
type Exchange interface {
	GetQuote(ctx context.Context, req external.QuoteRequest, userIP string) (*external.Quote, error)
	CreateFixedShift(ctx context.Context, quoteID, settleAddress, refundAddress, userIP string) (*external.Shift, error)
	CreateVariableShift(ctx context.Context, req external.VariableShiftRequest, userIP string) (*external.Shift, error)
	GetShift(ctx context.Context, id string) (*external.Shift, error)
	CancelOrder(ctx context.Context, id string) error
	Coins(ctx context.Context) ([]external.Coin, error)
	Permissions(ctx context.Context, userIP string) (*external.Permissions, error)
}

type Pinner interface {
	PinFile(ctx context.Context, name string, r io.Reader) (*external.PinResult, error)
	PinJSON(ctx context.Context, name string, content any) (*external.PinResult, error)
	GatewayURL(cid string) string
}

type Minter interface {
	CanMint() bool
	MintTicket(ctx context.Context, to string, eventNumber *big.Int, tokenURI string, value *big.Int) (*chain.MintResult, error)
}

// TokenResolver finds the minted token id of a transaction.
type TokenResolver interface {
	TokenIDFromTx(ctx context.Context, txHash string) (string, error)
}

type Describer interface {
	GenerateDescription(ctx context.Context, title, category, location string) string
}

var (
	_ Exchange      = (*external.SideShiftClient)(nil)
	_ Pinner        = (*external.PinataClient)(nil)
	_ Minter        = (*chain.TicketContract)(nil)
	_ TokenResolver = (*chain.TicketContract)(nil)
	_ Describer     = (*external.GeminiClient)(nil)
)
