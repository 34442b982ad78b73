package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "menza-admin/internal/common/errors"
	"menza-admin/internal/common/logger"
)

func TestNewClient_RejectsRelativeBase(t *testing.T) {
	for _, base := range []string{"", "/v1", "localhost:3001/x", "::bad"} {
		_, err := NewClient(Options{BaseURL: base})
		assert.Error(t, err, base)
	}
}

func TestClient_URL(t *testing.T) {
	tests := []struct {
		base  string
		path  string
		query url.Values
		want  string
	}{
		{"http://localhost:3001", "/v1/food", nil, "http://localhost:3001/v1/food"},
		{"http://localhost:3001/", "/v1/food/12", nil, "http://localhost:3001/v1/food/12"},
		{"https://api.example/canteen", "/v1/menu", url.Values{"week": {"5"}}, "https://api.example/canteen/v1/menu?week=5"},
		{"http://localhost:3001", "/v1/menu?week=5", nil, "http://localhost:3001/v1/menu?week=5"},
		{"http://localhost:3001", "/v1/order?year=2024&week=1", url.Values{"day": {"3"}}, "http://localhost:3001/v1/order?day=3&week=1&year=2024"},
		{"http://localhost:3001", "/v1/menu?week=5&year=2020", url.Values{"week": {"6"}}, "http://localhost:3001/v1/menu?week=6&year=2020"},
	}

	for _, tt := range tests {
		c, err := NewClient(Options{BaseURL: tt.base})
		require.NoError(t, err)
		got, err := c.URL(tt.path, tt.query)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestClient_URL_InvalidQuery(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "http://localhost:3001"})
	require.NoError(t, err)

	_, err = c.URL("/v1/menu?week=%zz", nil)
	assert.Error(t, err)
}

func TestClient_Do_SendsDefaultHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer server.Close()

	c, err := NewClient(Options{
		BaseURL: server.URL,
		Timeout: time.Second,
		Headers: map[string]string{HeaderClientType: "desktop", "Accept": "application/json"},
		Logger:  logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{
		Operation:   "probe",
		Method:      http.MethodPost,
		Path:        "/v1/probe",
		Body:        strings.NewReader("{}"),
		ContentType: "application/json",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, "short and stout", string(resp.Body))
	assert.Equal(t, "desktop", got.Get(HeaderClientType))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))

	_, parseErr := uuid.Parse(got.Get(HeaderRequestID))
	assert.NoError(t, parseErr)
	assert.Equal(t, got.Get(HeaderRequestID), resp.RequestID)
}

func TestClient_Do_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	c, err := NewClient(Options{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Operation: "probe", Method: http.MethodGet, Path: "/v1/food"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.False(t, apperrors.IsHTTPStatus(err))
}

func TestClient_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c, err := NewClient(Options{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Operation: "slow", Method: http.MethodGet, Path: "/v1/food"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}
