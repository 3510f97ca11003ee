package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusBadGateway, ErrServerError},
		{"not found", http.StatusNotFound, ErrUnexpectedStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := New("test", srv.Client())
			var out map[string]any
			err := c.GetJSON(context.Background(), srv.URL, &out)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClientGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	c := New("test", srv.Client())
	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "ok", out.Value)
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := New("test", srv.Client())
	var out map[string]any
	err := c.GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestClientPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"echo":true}`))
	}))
	defer srv.Close()

	c := New("test", srv.Client())
	var out struct {
		Echo bool `json:"echo"`
	}
	require.NoError(t, c.PostJSON(context.Background(), srv.URL, map[string]int{"a": 1}, &out))
	assert.True(t, out.Echo)
}

func TestClientWithoutHTTPClient(t *testing.T) {
	c := New("test", nil)
	_, err := c.Do(context.Background(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	})
	assert.ErrorIs(t, err, ErrNoHTTPClient)
}

func TestClientTripsAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("test", srv.Client())
	var out map[string]any
	for i := 0; i < 6; i++ {
		require.ErrorIs(t, c.GetJSON(context.Background(), srv.URL, &out), ErrServerError)
	}

	err := c.GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 6, hits)
}

func TestClientFailureRatioNeedsMinimumRequests(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("test", srv.Client(), WithReadyToTrip(FailureRatio(10, 0.5)))
	var out map[string]any
	for i := 0; i < 10; i++ {
		require.ErrorIs(t, c.GetJSON(context.Background(), srv.URL, &out), ErrServerError)
	}

	err := c.GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 10, hits)
}

func TestFailureRatio(t *testing.T) {
	trip := FailureRatio(4, 0.5)

	assert.False(t, trip(gobreaker.Counts{Requests: 3, TotalFailures: 3}))
	assert.False(t, trip(gobreaker.Counts{Requests: 4, TotalFailures: 1}))
	assert.True(t, trip(gobreaker.Counts{Requests: 4, TotalFailures: 2}))
}
