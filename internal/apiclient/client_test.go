package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSONSendsQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "examples", r.URL.Query().Get("path"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"value": 7}`))
	}))
	defer srv.Close()

	client := New(" "+srv.URL+"/ ", time.Second, nil)
	var out struct {
		Value int `json:"value"`
	}
	err := client.DoJSON(context.Background(), "probe", http.MethodPost, "/api/probe",
		map[string]string{"path": "examples"}, map[string]any{"a": 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Value)
}

func TestDoJSONStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "File not found"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second, nil).DoJSON(context.Background(), "read", http.MethodGet, "/api/file/x.py", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "read: http 404: File not found", err.Error())
}

func TestDoJSONBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL, time.Second, nil).DoJSON(context.Background(), "probe", http.MethodGet, "/", nil, nil, &out)
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Zero(t, transport.Status)
}

func TestDecodeRemoteError(t *testing.T) {
	assert.EqualError(t, DecodeRemoteError([]byte(`{"detail": "Folder already exists"}`)), "Folder already exists")
	assert.EqualError(t, DecodeRemoteError([]byte(`{"message": "nope"}`)), "nope")
	assert.EqualError(t, DecodeRemoteError([]byte(`plain text`)), "plain text")
	assert.EqualError(t, DecodeRemoteError(nil), "empty response")
	// Validation errors carry a list in detail; fall back to the raw body.
	assert.EqualError(t, DecodeRemoteError([]byte(`{"detail": [{"msg": "x"}]}`)), `{"detail": [{"msg": "x"}]}`)
}

func TestStatusHelpers(t *testing.T) {
	assert.Zero(t, StatusOf(nil))
	assert.False(t, IsApplication(&TransportError{Op: "x"}))
	assert.True(t, IsApplication(&ApplicationError{Op: "x", Message: "m"}))
}
