// Package catalogclient consumes the product listing HTTP API.
package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/pkg/httpclient"
)

// ErrFetchFailed marks a listing that could not be obtained. It is never
// reported as an empty page.
var ErrFetchFailed = errors.New("failed to fetch products")

const serviceName = "catalog"

// Query selects one page of the listing. Zero values are omitted so the
// server applies its defaults.
type Query struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Values encodes q as URL query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		v.Set("category", c)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Page is one page of the listing as returned by the server.
type Page struct {
	Products   []domain.ProductSummary `json:"products"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"totalPages"`
}

// Client fetches listing pages. It performs a single attempt per call; the
// Doer decides timeouts and circuit breaking.
type Client struct {
	endpoint *url.URL
	doer     httpclient.Doer
}

// New creates a client for the storefront at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, doer httpclient.Doer) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog base url %q must be absolute", baseURL)
	}
	return &Client{endpoint: u.JoinPath("api", "v1", "products"), doer: doer}, nil
}

// ListProducts fetches the page selected by q. Transport failures, non-2xx
// responses and undecodable bodies all wrap ErrFetchFailed.
func (c *Client) ListProducts(ctx context.Context, q Query) (*Page, error) {
	u := *c.endpoint
	u.RawQuery = q.Values().Encode()

	resp, err := httpclient.Get(ctx, c.doer, u.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, httpclient.ParseResponseError(resp, serviceName))
	}
	defer func() { _ = resp.Body.Close() }()

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %w", ErrFetchFailed, err)
	}
	if page.Products == nil {
		page.Products = []domain.ProductSummary{}
	}
	return &page, nil
}
