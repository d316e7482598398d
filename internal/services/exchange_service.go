package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/joshua-takyi/eventnest/internal/monitoring"
	"github.com/shopspring/decimal"
)

// ExchangeService exposes the exchange to clients that drive the payment themselves.
type ExchangeService struct {
	exchange Exchange
	cfg      PaymentConfig
}

func NewExchangeService(exchange Exchange, cfg PaymentConfig) *ExchangeService {
	if cfg.SettleCoin == "" {
		cfg.SettleCoin = "MATIC"
	}
	if cfg.SettleNetwork == "" {
		cfg.SettleNetwork = "polygon"
	}
	return &ExchangeService{exchange: exchange, cfg: cfg}
}

type QuoteInput struct {
	DepositCoin    string           `json:"depositCoin"`
	DepositNetwork string           `json:"depositNetwork"`
	SettleCoin     string           `json:"settleCoin"`
	SettleNetwork  string           `json:"settleNetwork"`
	SettleAmount   *decimal.Decimal `json:"settleAmount"`
	DepositAmount  *decimal.Decimal `json:"depositAmount"`
}

type ShiftInput struct {
	QuoteID        string `json:"quoteId"`
	DepositCoin    string `json:"depositCoin"`
	DepositNetwork string `json:"depositNetwork"`
	SettleCoin     string `json:"settleCoin"`
	SettleNetwork  string `json:"settleNetwork"`
	SettleAddress  string `json:"settleAddress"`
	RefundAddress  string `json:"refundAddress"`
}

// gatewayError keeps upstream rejections visible to the caller.
func gatewayError(kind error, err error) error {
	var apiErr *external.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", kind, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func (es *ExchangeService) Quote(ctx context.Context, in QuoteInput, userIP string) (*external.Quote, error) {
	if verr := missingFields([2]string{"depositCoin", in.DepositCoin}); verr != nil {
		return nil, verr
	}
	if in.SettleAmount == nil && in.DepositAmount == nil {
		return nil, &ValidationError{Message: "settleAmount or depositAmount is required"}
	}

	req := external.QuoteRequest{
		DepositCoin:    strings.ToUpper(in.DepositCoin),
		DepositNetwork: in.DepositNetwork,
		SettleCoin:     es.cfg.SettleCoin,
		SettleNetwork:  es.cfg.SettleNetwork,
		SettleAmount:   in.SettleAmount,
		DepositAmount:  in.DepositAmount,
	}
	if in.SettleCoin != "" {
		req.SettleCoin = strings.ToUpper(in.SettleCoin)
		req.SettleNetwork = in.SettleNetwork
	}

	quote, err := es.exchange.GetQuote(ctx, req, userIP)
	monitoring.RecordGatewayCall("sideshift", "quote", err)
	if err != nil {
		return nil, gatewayError(ErrQuoteFailed, err)
	}
	return quote, nil
}

// CreateShift opens a fixed shift for a quote id, otherwise a variable one.
func (es *ExchangeService) CreateShift(ctx context.Context, in ShiftInput, userIP string) (*external.Shift, error) {
	var (
		shift *external.Shift
		err   error
	)
	if in.QuoteID != "" {
		if verr := missingFields([2]string{"settleAddress", in.SettleAddress}); verr != nil {
			return nil, verr
		}
		shift, err = es.exchange.CreateFixedShift(ctx, in.QuoteID, in.SettleAddress, in.RefundAddress, userIP)
	} else {
		if verr := missingFields(
			[2]string{"depositCoin", in.DepositCoin},
			[2]string{"depositNetwork", in.DepositNetwork},
			[2]string{"settleAddress", in.SettleAddress},
		); verr != nil {
			return nil, verr
		}
		req := external.VariableShiftRequest{
			DepositCoin:    strings.ToUpper(in.DepositCoin),
			DepositNetwork: in.DepositNetwork,
			SettleCoin:     es.cfg.SettleCoin,
			SettleNetwork:  es.cfg.SettleNetwork,
			SettleAddress:  in.SettleAddress,
			RefundAddress:  in.RefundAddress,
		}
		if in.SettleCoin != "" {
			req.SettleCoin = strings.ToUpper(in.SettleCoin)
			req.SettleNetwork = in.SettleNetwork
		}
		shift, err = es.exchange.CreateVariableShift(ctx, req, userIP)
	}
	monitoring.RecordGatewayCall("sideshift", "shift", err)
	if err != nil {
		return nil, gatewayError(ErrShiftFailed, err)
	}
	return shift, nil
}

func (es *ExchangeService) ShiftStatus(ctx context.Context, id string) (*external.Shift, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Message: "Shift ID required"}
	}
	shift, err := es.exchange.GetShift(ctx, id)
	monitoring.RecordGatewayCall("sideshift", "status", err)
	if err != nil {
		return nil, gatewayError(ErrShiftFailed, err)
	}
	return shift, nil
}

// Coins lists exchange coins, or the curated checkout list when supportedOnly is set.
func (es *ExchangeService) Coins(ctx context.Context, supportedOnly bool) (any, error) {
	if supportedOnly {
		return external.SupportedDepositCoins, nil
	}
	coins, err := es.exchange.Coins(ctx)
	monitoring.RecordGatewayCall("sideshift", "coins", err)
	if err != nil {
		return nil, gatewayError(ErrExchange, err)
	}
	return coins, nil
}

func (es *ExchangeService) Permissions(ctx context.Context, userIP string) (*external.Permissions, error) {
	perms, err := es.exchange.Permissions(ctx, userIP)
	monitoring.RecordGatewayCall("sideshift", "permissions", err)
	if err != nil {
		return nil, gatewayError(ErrExchange, err)
	}
	return perms, nil
}
