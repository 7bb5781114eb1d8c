package order

import (
	"bytes"
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
	ErrRejected     = errors.New("order rejected")
	ErrUnauthorized = errors.New("order unauthorized")
	ErrUnavailable  = errors.New("order service unavailable")
	ErrBadStatus    = errors.New("order service bad status")
)

// RemoteError carries the order service's error body. It unwraps to one of
// the sentinel errors above.
type RemoteError struct {
	Kind    error
	Status  int
	Message string
	Details any
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%v: status=%d %s", e.Kind, e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// Client submits orders on behalf of a shopper, forwarding their bearer
// token.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Breaker *gobreaker.CircuitBreaker[Order]
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// BreakerSuccess keeps rejected orders and bad tokens from tripping the
// breaker.
func BreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrRejected) || errors.Is(err, ErrUnauthorized)
}

func (c *Client) Submit(ctx context.Context, token string, items []ItemReq) (Order, error) {
	if c.Breaker == nil {
		return c.submit(ctx, token, items)
	}

	o, err := c.Breaker.Execute(func() (Order, error) {
		return c.submit(ctx, token, items)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Order{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return o, err
}

func (c *Client) submit(ctx context.Context, token string, items []ItemReq) (Order, error) {
	body, err := json.Marshal(createReq{Items: items})
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		var o Order
		if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
			return Order{}, fmt.Errorf("%w: decode: %v", ErrBadStatus, err)
		}
		return o, nil
	}

	return Order{}, remoteError(resp)
}

func remoteError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Details any    `json:"details"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	e := &RemoteError{Status: resp.StatusCode, Message: body.Error, Details: body.Details}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		e.Kind = ErrRejected
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		e.Kind = ErrUnauthorized
	case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		e.Kind = ErrUnavailable
	default:
		e.Kind = ErrBadStatus
	}
	return e
}
