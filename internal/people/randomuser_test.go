package people

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/people-weather/internal/upstream"
)

func TestRandomUserFetchBatch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"results": [` + sampleUser + `], "info": {"results": 1}}`))
	}))
	defer srv.Close()

	src := NewRandomUserSource(upstream.New("randomuser", srv.Client()), srv.URL, "us", zerolog.Nop())
	users, err := src.FetchBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, UserID("302-43-4557"), users[0].Key())
	assert.Equal(t, "nat=us&results=5", gotQuery)
}

func TestRandomUserProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewRandomUserSource(upstream.New("randomuser", srv.Client()), srv.URL, "", zerolog.Nop())
	_, err := src.FetchBatch(context.Background(), 3)
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestRandomUserErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Uh oh, something has gone wrong."}`))
	}))
	defer srv.Close()

	src := NewRandomUserSource(upstream.New("randomuser", srv.Client()), srv.URL, "", zerolog.Nop())
	_, err := src.FetchBatch(context.Background(), 3)
	assert.ErrorIs(t, err, ErrProviderFailure)
}
