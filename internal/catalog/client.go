package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	ErrNotFound    = errors.New("catalog product not found")
	ErrBadStatus   = errors.New("catalog bad status")
	ErrUnavailable = errors.New("catalog unavailable")
)

// Client reads products from the catalog service. Calls go through a
// circuit breaker when one is set; a missing product does not count as a
// failure.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Breaker *gobreaker.CircuitBreaker[Product]
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

// BreakerSuccess reports which client errors leave the breaker untouched.
func BreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound)
}

func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	if c.Breaker == nil {
		return c.getProduct(ctx, id)
	}

	p, err := c.Breaker.Execute(func() (Product, error) {
		return c.getProduct(ctx, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return p, err
}

func (c *Client) getProduct(ctx context.Context, id string) (Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/products/"+url.PathEscape(id), nil)
	if err != nil {
		return Product{}, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Product{}, ErrNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Product{}, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Product{}, fmt.Errorf("%w: decode: %v", ErrBadStatus, err)
	}
	return p, nil
}
