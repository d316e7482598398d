package external

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSideShift(t *testing.T, handler http.HandlerFunc) *SideShiftClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSideShiftClient(SideShiftConfig{BaseURL: srv.URL + "/", Secret: "s3cret", AffiliateID: "aff1"})
}

func TestGetQuote(t *testing.T) {
	client := newSideShift(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quotes", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("x-sideshift-secret"))
		assert.Equal(t, "203.0.113.9", r.Header.Get("x-user-ip"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BTC", body["depositCoin"])
		assert.Equal(t, "MATIC", body["settleCoin"])
		assert.Equal(t, "5", body["settleAmount"])
		assert.Equal(t, "aff1", body["affiliateId"])
		assert.NotContains(t, body, "depositAmount")

		_, _ = io.WriteString(w, `{"id":"q-1","depositCoin":"BTC","depositNetwork":"bitcoin","settleCoin":"MATIC","settleNetwork":"polygon",
			"expiresAt":"2030-01-01T00:15:00.000Z","depositAmount":"0.00012","settleAmount":"5","rate":"41666.66"}`)
	})

	amount := decimal.NewFromInt(5)
	quote, err := client.GetQuote(context.Background(), QuoteRequest{
		DepositCoin: "BTC", DepositNetwork: "bitcoin",
		SettleCoin: "MATIC", SettleNetwork: "polygon",
		SettleAmount: &amount,
	}, "203.0.113.9")
	require.NoError(t, err)

	assert.Equal(t, "q-1", quote.ID)
	assert.True(t, quote.DepositAmount.Equal(decimal.RequireFromString("0.00012")))
	assert.Equal(t, 2030, quote.ExpiresAt.Year())
}

func TestGetQuoteRequiresAmount(t *testing.T) {
	client := NewSideShiftClient(SideShiftConfig{BaseURL: "http://unused"})
	_, err := client.GetQuote(context.Background(), QuoteRequest{DepositCoin: "BTC", SettleCoin: "ETH"}, "")
	assert.Error(t, err)
}

func TestSideShiftErrorBody(t *testing.T) {
	client := newSideShift(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Amount too low"}}`)
	})

	_, err := client.CreateFixedShift(context.Background(), "q-1", "0xabc", "", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Amount too low", apiErr.Message)
}

func TestCreateFixedShiftAndStatus(t *testing.T) {
	client := newSideShift(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shifts/fixed":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "q-1", body["quoteId"])
			assert.Equal(t, "0xsettle", body["settleAddress"])
			assert.Equal(t, "0xrefund", body["refundAddress"])
			_, _ = io.WriteString(w, `{"id":"sh-1","type":"fixed","depositAddress":"bc1qdeposit","depositAmount":"0.00012","status":"waiting"}`)
		case "/shifts/sh-1":
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = io.WriteString(w, `{"id":"sh-1","status":"settled","settleHash":"0xhash"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	shift, err := client.CreateFixedShift(context.Background(), "q-1", "0xsettle", "0xrefund", "")
	require.NoError(t, err)
	assert.Equal(t, "bc1qdeposit", shift.DepositAddress)
	assert.Equal(t, ShiftWaiting, shift.Status)

	status, err := client.GetShift(context.Background(), "sh-1")
	require.NoError(t, err)
	assert.Equal(t, ShiftSettled, status.Status)
	assert.Equal(t, "0xhash", status.SettleHash)
}

func TestCancelOrder(t *testing.T) {
	var got map[string]string
	client := newSideShift(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cancel-order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.CancelOrder(context.Background(), "sh-9"))
	assert.Equal(t, "sh-9", got["orderId"])
}

func TestCoinsAndPermissions(t *testing.T) {
	client := newSideShift(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins":
			_, _ = io.WriteString(w, `[{"coin":"BTC","name":"Bitcoin","networks":["bitcoin"],"hasMemo":false,"fixedOnly":false}]`)
		case "/permissions":
			_, _ = io.WriteString(w, `{"createShift":true}`)
		}
	})

	coins, err := client.Coins(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, []string{"bitcoin"}, coins[0].Networks)

	perms, err := client.Permissions(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, perms.CreateShift)
}
