package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuoteDefaultsSettleSide(t *testing.T) {
	ex := &mockExchange{}
	svc := NewExchangeService(ex, PaymentConfig{SettleCoin: "USDC", SettleNetwork: "polygon"})
	amount := decimal.NewFromInt(10)

	ex.On("GetQuote", mock.Anything, mock.MatchedBy(func(r external.QuoteRequest) bool {
		return r.DepositCoin == "ETH" && r.SettleCoin == "USDC" && r.SettleNetwork == "polygon"
	}), "1.2.3.4").Return(&external.Quote{ID: "q"}, nil).Once()

	q, err := svc.Quote(context.Background(), QuoteInput{DepositCoin: "eth", DepositNetwork: "ethereum", SettleAmount: &amount}, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "q", q.ID)
	ex.AssertExpectations(t)
}

func TestQuoteValidation(t *testing.T) {
	svc := NewExchangeService(&mockExchange{}, PaymentConfig{})

	_, err := svc.Quote(context.Background(), QuoteInput{DepositCoin: "BTC"}, "")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestQuoteSurfacesUpstreamMessage(t *testing.T) {
	ex := &mockExchange{}
	svc := NewExchangeService(ex, PaymentConfig{})
	amount := decimal.NewFromInt(1)
	ex.On("GetQuote", mock.Anything, mock.Anything, "").
		Return(nil, &external.APIError{Gateway: "sideshift", StatusCode: 400, Message: "Amount too low"}).Once()

	_, err := svc.Quote(context.Background(), QuoteInput{DepositCoin: "BTC", DepositAmount: &amount}, "")
	assert.ErrorIs(t, err, ErrQuoteFailed)
	assert.Contains(t, err.Error(), "Amount too low")
}

func TestCreateShiftFixedOrVariable(t *testing.T) {
	ex := &mockExchange{}
	svc := NewExchangeService(ex, PaymentConfig{})

	ex.On("CreateFixedShift", mock.Anything, "q-1", "0xsettle", "", "").Return(&external.Shift{ID: "fixed"}, nil).Once()
	ex.On("CreateVariableShift", mock.Anything, mock.MatchedBy(func(r external.VariableShiftRequest) bool {
		return r.DepositCoin == "BTC" && r.SettleCoin == "MATIC" && r.SettleAddress == "0xsettle"
	}), "").Return(&external.Shift{ID: "variable"}, nil).Once()

	s, err := svc.CreateShift(context.Background(), ShiftInput{QuoteID: "q-1", SettleAddress: "0xsettle"}, "")
	require.NoError(t, err)
	assert.Equal(t, "fixed", s.ID)

	s, err = svc.CreateShift(context.Background(), ShiftInput{DepositCoin: "btc", DepositNetwork: "bitcoin", SettleAddress: "0xsettle"}, "")
	require.NoError(t, err)
	assert.Equal(t, "variable", s.ID)

	_, err = svc.CreateShift(context.Background(), ShiftInput{DepositCoin: "btc"}, "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"depositNetwork", "settleAddress"}, verr.Fields)

	ex.AssertExpectations(t)
}

func TestShiftStatusRequiresID(t *testing.T) {
	svc := NewExchangeService(&mockExchange{}, PaymentConfig{})
	_, err := svc.ShiftStatus(context.Background(), "")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Shift ID required", verr.Error())
}

func TestSupportedCoins(t *testing.T) {
	svc := NewExchangeService(&mockExchange{}, PaymentConfig{})
	coins, err := svc.Coins(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, coins, len(external.SupportedDepositCoins))
}

func TestCoinsAndPermissionsFailures(t *testing.T) {
	ex := &mockExchange{}
	svc := NewExchangeService(ex, PaymentConfig{})
	ex.On("Coins", mock.Anything).Return(nil, errBoom).Once()
	ex.On("Permissions", mock.Anything, "1.2.3.4").Return(nil, errBoom).Once()

	_, err := svc.Coins(context.Background(), false)
	assert.ErrorIs(t, err, ErrExchange)
	assert.NotErrorIs(t, err, ErrQuoteFailed)
	assert.Equal(t, "exchange request failed: boom", err.Error())

	_, err = svc.Permissions(context.Background(), "1.2.3.4")
	assert.ErrorIs(t, err, ErrExchange)
	ex.AssertExpectations(t)
}
