package catalogclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/electroshop/pkg/errors"
	"github.com/utafrali/electroshop/pkg/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", httpclient.NewWithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestClient_ListProducts(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"id":"p1","name":"Phone","price":799}],"total":10,"page":2,"limit":4,"totalPages":3}`))
	})

	page, err := c.ListProducts(context.Background(), Query{Search: " phone ", Category: "mobile", Page: 2, Limit: 4})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/products", gotPath)
	assert.Equal(t, "category=mobile&limit=4&page=2&search=phone", gotQuery)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Phone", page.Products[0].Name)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, 3, page.TotalPages)
}

func TestClient_ListProducts_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to fetch products"}`))
	})

	page, err := c.ListProducts(context.Background(), Query{})
	require.Error(t, err)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	var re *httpclient.ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "failed to fetch products", re.Message)
}

func TestClient_ListProducts_BadBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.ListProducts(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestClient_ListProducts_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL, httpclient.NewWithHTTPClient(srv.Client()))
	require.NoError(t, err)
	srv.Close()

	_, err = c.ListProducts(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestClient_EmptyProductsNeverNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"page":1,"limit":12,"totalPages":0}`))
	})

	page, err := c.ListProducts(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/api", httpclient.New(httpclient.DefaultConfig()))
	assert.Error(t, err)
}

func TestQuery_ValuesOmitsDefaults(t *testing.T) {
	assert.Empty(t, Query{Search: "  "}.Values())
}
