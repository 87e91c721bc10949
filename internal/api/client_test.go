package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orionsagar/catalog-console/internal/api"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

func newClient(t *testing.T, server *httptest.Server, token string) *api.Client {
	t.Helper()
	client, err := api.NewClient(server.URL+"/api", staticToken(token), 5*time.Second, nil)
	require.NoError(t, err)
	return client
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newClient(t, server, "tok-123")
	var out []struct{}
	require.NoError(t, client.Get(context.Background(), "/products", &out))
	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestNoTokenProceedsUnauthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newClient(t, server, "")
	require.NoError(t, client.Post(context.Background(), "/auth/login", map[string]string{"email": "a"}, nil))
	require.Empty(t, gotAuth)
}

func TestErrorCarriesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"name is required"}`))
	}))
	defer server.Close()

	client := newClient(t, server, "tok")
	err := client.Post(context.Background(), "/products", map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "name is required", apiErr.Message)
	require.True(t, api.IsStatus(err, http.StatusBadRequest))
	require.False(t, api.IsStatus(err, http.StatusUnauthorized))
}

func TestErrorWithoutMessageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newClient(t, server, "tok")
	err := client.Get(context.Background(), "/products", nil)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Empty(t, apiErr.Message)
}

func TestContextCancellationDropsRequest(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newClient(t, server, "tok")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := client.Get(ctx, "/products", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeleteSendsNoBody(t *testing.T) {
	var gotMethod string
	var gotLen int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotLen = r.ContentLength
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newClient(t, server, "tok")
	require.NoError(t, client.Delete(context.Background(), "/products/p1"))
	require.Equal(t, http.MethodDelete, gotMethod)
	require.LessOrEqual(t, gotLen, int64(0))
}
