package feeder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBlockReturnsErrBlockNotFoundOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(srv.URL, srv.URL)
	require.NoError(t, err)

	_, err = client.GetBlock(context.Background(), 999)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestGetBlockReturnsTransientErrorOn503(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := New(srv.URL, srv.URL)
	require.NoError(t, err)

	_, err = client.GetBlock(context.Background(), 1)
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
}
