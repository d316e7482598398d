package external

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "poster.png", header.Filename)
		assert.Equal(t, "image-bytes", string(data))
		assert.JSONEq(t, `{"name":"poster.png"}`, r.FormValue("pinataMetadata"))

		_, _ = io.WriteString(w, `{"IpfsHash":"QmFile","PinSize":11,"Timestamp":"2025-01-01T00:00:00Z"}`)
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{BaseURL: srv.URL, JWT: "jwt-token", GatewayURL: "https://gateway.pinata.cloud/ipfs/"})
	res, err := client.PinFile(context.Background(), "poster.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "QmFile", res.IpfsHash)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmFile", client.GatewayURL(res.IpfsHash))
}

func TestPinJSONWithKeyPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		var body struct {
			PinataContent  map[string]any    `json:"pinataContent"`
			PinataMetadata map[string]string `json:"pinataMetadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ticket #1", body.PinataContent["name"])
		assert.Equal(t, "ticket-1.json", body.PinataMetadata["name"])

		_, _ = io.WriteString(w, `{"IpfsHash":"QmJSON"}`)
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{BaseURL: srv.URL, APIKey: "key", SecretKey: "secret"})
	res, err := client.PinJSON(context.Background(), "ticket-1.json", map[string]any{"name": "Ticket #1"})
	require.NoError(t, err)
	assert.Equal(t, "QmJSON", res.IpfsHash)
}

func TestPinataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"reason":"INVALID_CREDENTIALS","details":"Invalid API key"}}`)
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{BaseURL: srv.URL})
	_, err := client.PinJSON(context.Background(), "x", map[string]string{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "pinata", apiErr.Gateway)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}
