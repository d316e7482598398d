package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/eventnest/internal/chain"
	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/models/memstore"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	buyer   = "0x9f8e7d6c5b4a39281706f5e4d3c2b1a098765432"
	creator = "0x1234567890abcdef1234567890abcdef12345678"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEvent(total int, price float64) *models.Event {
	return &models.Event{
		Title:          "Go Meetup",
		Description:    "Talks about Go",
		Date:           time.Now().Add(72 * time.Hour).UTC(),
		Location:       "Bangalore",
		Category:       "tech",
		TicketPrice:    price,
		TotalTickets:   total,
		CreatorAddress: creator,
		Status:         models.EventStatusPublished,
	}
}

func seedEvent(t *testing.T, store *memstore.Store, total int, price float64) *models.Event {
	t.Helper()
	e, err := store.CreateEvent(context.Background(), newEvent(total, price))
	require.NoError(t, err)
	return e
}

type mockExchange struct {
	mock.Mock
}

func (m *mockExchange) GetQuote(ctx context.Context, req external.QuoteRequest, userIP string) (*external.Quote, error) {
	args := m.Called(ctx, req, userIP)
	q, _ := args.Get(0).(*external.Quote)
	return q, args.Error(1)
}

func (m *mockExchange) CreateFixedShift(ctx context.Context, quoteID, settleAddress, refundAddress, userIP string) (*external.Shift, error) {
	args := m.Called(ctx, quoteID, settleAddress, refundAddress, userIP)
	s, _ := args.Get(0).(*external.Shift)
	return s, args.Error(1)
}

func (m *mockExchange) CreateVariableShift(ctx context.Context, req external.VariableShiftRequest, userIP string) (*external.Shift, error) {
	args := m.Called(ctx, req, userIP)
	s, _ := args.Get(0).(*external.Shift)
	return s, args.Error(1)
}

func (m *mockExchange) GetShift(ctx context.Context, id string) (*external.Shift, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*external.Shift)
	return s, args.Error(1)
}

func (m *mockExchange) CancelOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockExchange) Coins(ctx context.Context) ([]external.Coin, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]external.Coin)
	return c, args.Error(1)
}

func (m *mockExchange) Permissions(ctx context.Context, userIP string) (*external.Permissions, error) {
	args := m.Called(ctx, userIP)
	p, _ := args.Get(0).(*external.Permissions)
	return p, args.Error(1)
}

type fakePinner struct {
	mu    sync.Mutex
	err   error
	names []string
}

func (f *fakePinner) PinFile(_ context.Context, name string, r io.Reader) (*external.PinResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	return &external.PinResult{IpfsHash: "QmFile"}, nil
}

func (f *fakePinner) PinJSON(_ context.Context, name string, _ any) (*external.PinResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	return &external.PinResult{IpfsHash: "QmMeta"}, nil
}

func (f *fakePinner) GatewayURL(cid string) string {
	return "https://gateway.test/ipfs/" + cid
}

type fakeMinter struct {
	result *chain.MintResult
	err    error
	calls  int
	uri    string
	value  *big.Int
	ctxErr error
}

func (f *fakeMinter) CanMint() bool { return true }

func (f *fakeMinter) MintTicket(ctx context.Context, _ string, _ *big.Int, tokenURI string, value *big.Int) (*chain.MintResult, error) {
	f.calls++
	f.uri = tokenURI
	f.value = value
	f.ctxErr = ctx.Err()
	return f.result, f.err
}

type fakeResolver struct {
	id  string
	err error
}

func (f *fakeResolver) TokenIDFromTx(context.Context, string) (string, error) {
	return f.id, f.err
}

var errBoom = errors.New("boom")
