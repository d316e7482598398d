package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type SideShiftClient struct {
	baseURL     string
	secret      string
	affiliateID string
	httpClient  *http.Client
}

type SideShiftConfig struct {
	BaseURL     string
	Secret      string
	AffiliateID string
	Timeout     time.Duration
}

type QuoteRequest struct {
	DepositCoin    string           `json:"depositCoin"`
	DepositNetwork string           `json:"depositNetwork,omitempty"`
	SettleCoin     string           `json:"settleCoin"`
	SettleNetwork  string           `json:"settleNetwork,omitempty"`
	DepositAmount  *decimal.Decimal `json:"depositAmount,omitempty"`
	SettleAmount   *decimal.Decimal `json:"settleAmount,omitempty"`
	AffiliateID    string           `json:"affiliateId,omitempty"`
}

type Quote struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"createdAt"`
	DepositCoin    string          `json:"depositCoin"`
	DepositNetwork string          `json:"depositNetwork"`
	SettleCoin     string          `json:"settleCoin"`
	SettleNetwork  string          `json:"settleNetwork"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	DepositAmount  decimal.Decimal `json:"depositAmount"`
	SettleAmount   decimal.Decimal `json:"settleAmount"`
	Rate           decimal.Decimal `json:"rate"`
	AffiliateID    string          `json:"affiliateId,omitempty"`
}

type VariableShiftRequest struct {
	DepositCoin    string `json:"depositCoin"`
	DepositNetwork string `json:"depositNetwork,omitempty"`
	SettleCoin     string `json:"settleCoin"`
	SettleNetwork  string `json:"settleNetwork,omitempty"`
	SettleAddress  string `json:"settleAddress"`
	RefundAddress  string `json:"refundAddress,omitempty"`
	AffiliateID    string `json:"affiliateId,omitempty"`
}

type fixedShiftRequest struct {
	QuoteID       string `json:"quoteId"`
	SettleAddress string `json:"settleAddress"`
	RefundAddress string `json:"refundAddress,omitempty"`
	AffiliateID   string `json:"affiliateId,omitempty"`
}

// Shift status values reported by the exchange.
const (
	ShiftWaiting    = "waiting"
	ShiftPending    = "pending"
	ShiftProcessing = "processing"
	ShiftReview     = "review"
	ShiftSettling   = "settling"
	ShiftSettled    = "settled"
	ShiftRefund     = "refund"
	ShiftRefunding  = "refunding"
	ShiftRefunded   = "refunded"
	ShiftExpired    = "expired"
)

type Shift struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"createdAt"`
	Type           string          `json:"type"`
	QuoteID        string          `json:"quoteId,omitempty"`
	DepositCoin    string          `json:"depositCoin"`
	DepositNetwork string          `json:"depositNetwork"`
	SettleCoin     string          `json:"settleCoin"`
	SettleNetwork  string          `json:"settleNetwork"`
	DepositAddress string          `json:"depositAddress"`
	DepositMemo    string          `json:"depositMemo,omitempty"`
	SettleAddress  string          `json:"settleAddress"`
	RefundAddress  string          `json:"refundAddress,omitempty"`
	DepositMin     decimal.Decimal `json:"depositMin"`
	DepositMax     decimal.Decimal `json:"depositMax"`
	DepositAmount  decimal.Decimal `json:"depositAmount"`
	SettleAmount   decimal.Decimal `json:"settleAmount"`
	Rate           decimal.Decimal `json:"rate"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	Status         string          `json:"status"`
	SettleHash     string          `json:"settleHash,omitempty"`
}

type CoinNetwork struct {
	Coin    string `json:"coin"`
	Network string `json:"network"`
	Name    string `json:"name,omitempty"`
}

type Coin struct {
	Coin      string   `json:"coin"`
	Name      string   `json:"name"`
	Networks  []string `json:"networks"`
	HasMemo   bool     `json:"hasMemo"`
	FixedOnly any      `json:"fixedOnly"`
}

type Permissions struct {
	CreateShift bool `json:"createShift"`
}

// SupportedDepositCoins is the curated list offered at checkout.
var SupportedDepositCoins = []CoinNetwork{
	{Coin: "BTC", Network: "bitcoin", Name: "Bitcoin"},
	{Coin: "ETH", Network: "ethereum", Name: "Ethereum"},
	{Coin: "SOL", Network: "solana", Name: "Solana"},
	{Coin: "USDT", Network: "ethereum", Name: "Tether (ERC-20)"},
	{Coin: "USDC", Network: "ethereum", Name: "USD Coin (ERC-20)"},
	{Coin: "MATIC", Network: "polygon", Name: "Polygon"},
	{Coin: "BNB", Network: "bsc", Name: "BNB"},
	{Coin: "AVAX", Network: "avalanche", Name: "Avalanche"},
	{Coin: "LTC", Network: "litecoin", Name: "Litecoin"},
	{Coin: "DOGE", Network: "dogecoin", Name: "Dogecoin"},
	{Coin: "XRP", Network: "ripple", Name: "XRP"},
	{Coin: "ADA", Network: "cardano", Name: "Cardano"},
	{Coin: "DOT", Network: "polkadot", Name: "Polkadot"},
	{Coin: "TRX", Network: "tron", Name: "TRON"},
	{Coin: "LINK", Network: "ethereum", Name: "Chainlink"},
	{Coin: "UNI", Network: "ethereum", Name: "Uniswap"},
}

// APIError is a non-2xx answer from an upstream gateway.
type APIError struct {
	Gateway    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Gateway, e.StatusCode, e.Message)
}

func NewSideShiftClient(cfg SideShiftConfig) *SideShiftClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &SideShiftClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secret:      cfg.Secret,
		affiliateID: cfg.AffiliateID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (sc *SideShiftClient) do(ctx context.Context, method, path, userIP string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, sc.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sc.secret != "" {
		req.Header.Set("x-sideshift-secret", sc.secret)
	}
	if userIP != "" {
		req.Header.Set("x-user-ip", userIP)
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &APIError{Gateway: "sideshift", StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (sc *SideShiftClient) GetQuote(ctx context.Context, req QuoteRequest, userIP string) (*Quote, error) {
	if req.DepositAmount == nil && req.SettleAmount == nil {
		return nil, fmt.Errorf("either depositAmount or settleAmount is required")
	}
	req.AffiliateID = sc.affiliateID

	var quote Quote
	if err := sc.do(ctx, http.MethodPost, "/quotes", userIP, req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (sc *SideShiftClient) CreateFixedShift(ctx context.Context, quoteID, settleAddress, refundAddress, userIP string) (*Shift, error) {
	body := fixedShiftRequest{
		QuoteID:       quoteID,
		SettleAddress: settleAddress,
		RefundAddress: refundAddress,
		AffiliateID:   sc.affiliateID,
	}

	var shift Shift
	if err := sc.do(ctx, http.MethodPost, "/shifts/fixed", userIP, body, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

func (sc *SideShiftClient) CreateVariableShift(ctx context.Context, req VariableShiftRequest, userIP string) (*Shift, error) {
	req.AffiliateID = sc.affiliateID

	var shift Shift
	if err := sc.do(ctx, http.MethodPost, "/shifts/variable", userIP, req, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

func (sc *SideShiftClient) GetShift(ctx context.Context, id string) (*Shift, error) {
	var shift Shift
	if err := sc.do(ctx, http.MethodGet, "/shifts/"+url.PathEscape(id), "", nil, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

// CancelOrder voids a shift that has not received a deposit.
func (sc *SideShiftClient) CancelOrder(ctx context.Context, id string) error {
	return sc.do(ctx, http.MethodPost, "/cancel-order", "", map[string]string{"orderId": id}, nil)
}

func (sc *SideShiftClient) Coins(ctx context.Context) ([]Coin, error) {
	var coins []Coin
	if err := sc.do(ctx, http.MethodGet, "/coins", "", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (sc *SideShiftClient) Permissions(ctx context.Context, userIP string) (*Permissions, error) {
	var perms Permissions
	if err := sc.do(ctx, http.MethodGet, "/permissions", userIP, nil, &perms); err != nil {
		return nil, err
	}
	return &perms, nil
}
