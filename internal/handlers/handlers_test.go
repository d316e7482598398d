package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/models/memstore"
	"github.com/joshua-takyi/eventnest/internal/search"
	"github.com/joshua-takyi/eventnest/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0x9f8e7d6c5b4a39281706f5e4d3c2b1a098765432"

func init() {
	gin.SetMode(gin.TestMode)
}

type testPinner struct{}

func (testPinner) PinFile(_ context.Context, _ string, r io.Reader) (*external.PinResult, error) {
	_, _ = io.Copy(io.Discard, r)
	return &external.PinResult{IpfsHash: "QmFile"}, nil
}

func (testPinner) PinJSON(context.Context, string, any) (*external.PinResult, error) {
	return &external.PinResult{IpfsHash: "QmMeta"}, nil
}

func (testPinner) GatewayURL(cid string) string { return "https://gateway.test/ipfs/" + cid }

type testDescriber struct{}

func (testDescriber) GenerateDescription(_ context.Context, title, _, _ string) string {
	return "About " + title
}

func newRouter(store *memstore.Store) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := services.NewEventService(store, store, logger)
	tickets := services.NewTicketService(store, store, store, nil, logger)
	searches := services.NewSearchService(search.NewHeuristicParser(time.Now), store, testDescriber{}, logger)
	users := services.NewUserService(store, store)
	uploads := services.NewUploadService(testPinner{})

	r := gin.New()
	r.GET("/events", ListEvents(events))
	r.POST("/events", CreateEvent(events))
	r.GET("/events/:id", GetEvent(events))
	r.PUT("/events/:id", UpdateEvent(events))
	r.DELETE("/events/:id", DeleteEvent(events))
	r.POST("/events/:id/purchase", ConfirmPurchase(tickets))
	r.POST("/events/:id/verify-pin", VerifyPin(events))
	r.GET("/search", Search(searches))
	r.POST("/ai/describe", DescribeEvent(searches))
	r.GET("/user", GetUser(users))
	r.POST("/upload", UploadFile(uploads))
	r.PUT("/upload", UploadMetadata(uploads))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func eventBody() map[string]any {
	return map[string]any{
		"title":          "Go Meetup",
		"description":    "Talks about Go",
		"date":           time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"location":       "Bangalore",
		"category":       "tech",
		"ticketPrice":    2,
		"totalTickets":   2,
		"creatorAddress": "0x1234567890ABCDEF1234567890ABCDEF12345678",
		"status":         "published",
		"privatePin":     "1234",
	}
}

func createEvent(t *testing.T, r http.Handler, body map[string]any) string {
	t.Helper()
	w, out := do(t, r, http.MethodPost, "/events", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	event := out["event"].(map[string]any)
	return event["_id"].(string)
}

func TestCreateEventMissingFields(t *testing.T) {
	store := memstore.New()
	r := newRouter(store)

	w, out := do(t, r, http.MethodPost, "/events", map[string]any{"title": "Half an event"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["error"], "description")
	assert.Contains(t, out["error"], "creatorAddress")
	assert.Equal(t, 0, store.Events())
}

func TestEventLifecycle(t *testing.T) {
	r := newRouter(memstore.New())
	id := createEvent(t, r, eventBody())

	w, out := do(t, r, http.MethodGet, "/events/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	event := out["event"].(map[string]any)
	assert.Equal(t, float64(2), event["availableTickets"])
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", event["creator"])
	assert.NotContains(t, event, "privatePin")

	w, out = do(t, r, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["events"], 1)
	assert.Equal(t, float64(1), out["pagination"].(map[string]any)["total"])

	w, out = do(t, r, http.MethodPut, "/events/"+id, map[string]any{"title": "Go Meetup #2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Go Meetup #2", out["event"].(map[string]any)["title"])

	w, out = do(t, r, http.MethodDelete, "/events/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Event deleted successfully", out["message"])

	w, _ = do(t, r, http.MethodGet, "/events/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = do(t, r, http.MethodGet, "/events/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid Event ID", out["error"])
}

func TestPurchaseUntilSoldOut(t *testing.T) {
	r := newRouter(memstore.New())
	id := createEvent(t, r, eventBody())

	for i := 1; i <= 2; i++ {
		w, out := do(t, r, http.MethodPost, "/events/"+id+"/purchase", map[string]any{
			"walletAddress":   wallet,
			"transactionHash": fmt.Sprintf("0xtx%d", i),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, out["success"])
		assert.Equal(t, float64(i), out["ticketNumber"])
		assert.Equal(t, fmt.Sprintf("%s-%d", id, i), out["tokenId"])
	}

	w, out := do(t, r, http.MethodPost, "/events/"+id+"/purchase", map[string]any{
		"walletAddress":   wallet,
		"transactionHash": "0xtx3",
		"tokenId":         "77",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Event is sold out", out["error"])

	_, out = do(t, r, http.MethodGet, "/events/"+id, nil)
	event := out["event"].(map[string]any)
	assert.Equal(t, float64(2), event["soldTickets"])
	assert.Equal(t, float64(0), event["availableTickets"])

	w, out = do(t, r, http.MethodGet, "/user?address="+wallet+"&type=tickets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["tickets"], 2)
}

func TestPurchaseMissingFields(t *testing.T) {
	r := newRouter(memstore.New())
	id := createEvent(t, r, eventBody())

	w, out := do(t, r, http.MethodPost, "/events/"+id+"/purchase", map[string]any{"transactionHash": "0x1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["error"], "walletAddress")
}

func TestVerifyPin(t *testing.T) {
	r := newRouter(memstore.New())
	body := eventBody()
	body["isPrivate"] = true
	id := createEvent(t, r, body)

	w, out := do(t, r, http.MethodPost, "/events/"+id+"/verify-pin", map[string]any{"pin": "1234"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["valid"])

	w, out = do(t, r, http.MethodPost, "/events/"+id+"/verify-pin", map[string]any{"pin": "4321"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, out["valid"])
	assert.Equal(t, "Invalid PIN", out["error"])

	public := createEvent(t, r, eventBody())
	w, out = do(t, r, http.MethodPost, "/events/"+public+"/verify-pin", map[string]any{"pin": ""})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["valid"])
}

func TestSearch(t *testing.T) {
	r := newRouter(memstore.New())
	createEvent(t, r, eventBody())

	w, out := do(t, r, http.MethodGet, "/search?q=tech+events+in+Bangalore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["events"], 1)

	filters := out["filters"].(map[string]any)
	assert.Equal(t, "tech", filters["category"])
	assert.Equal(t, "Bangalore", filters["location"])

	w, _ = do(t, r, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDescribe(t *testing.T) {
	r := newRouter(memstore.New())

	w, out := do(t, r, http.MethodPost, "/ai/describe", map[string]any{"title": "GopherCon"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "About GopherCon", out["description"])
}

func TestGetUserRequiresAddress(t *testing.T) {
	r := newRouter(memstore.New())

	w, out := do(t, r, http.MethodGet, "/user", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Address is required", out["error"])

	w, out = do(t, r, http.MethodGet, "/user?address=0xABC", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xabc", out["user"].(map[string]any)["walletAddress"])
}

func TestUploadFile(t *testing.T) {
	r := newRouter(memstore.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "poster.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"cid":"QmFile","ipfsUrl":"https://gateway.test/ipfs/QmFile"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/upload", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadMetadata(t *testing.T) {
	r := newRouter(memstore.New())

	w, out := do(t, r, http.MethodPut, "/upload", map[string]any{"metadata": map[string]any{"name": "Ticket"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ipfs://QmMeta", out["url"])

	w, _ = do(t, r, http.MethodPut, "/upload", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&services.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{models.ErrInvalidID, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrSoldOut, http.StatusBadRequest},
		{models.ErrConflict, http.StatusConflict},
		{services.ErrNotAbandonable, http.StatusConflict},
		{services.ErrNoWallet, http.StatusUnauthorized},
		{services.ErrNotOwner, http.StatusForbidden},
		{services.ErrQuoteExpired, http.StatusGone},
		{services.ErrQuoteFailed, http.StatusBadGateway},
		{services.ErrShiftFailed, http.StatusBadGateway},
		{services.ErrExchange, http.StatusBadGateway},
		{services.ErrMintReverted, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, "Event", tc.err)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
