// Package client talks to the PcWeb catalog over HTTP and keeps the local
// state a storefront page needs to filter parts and price a build.
package client

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

	"github.com/shopspring/decimal"
)

type Part struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

type Build struct {
	Total decimal.Decimal `json:"total"`
	Parts []Part          `json:"parts"`
}

var (
	ErrBadRequest  = errors.New("catalog rejected request")
	ErrBadStatus   = errors.New("catalog bad status")
	ErrUnavailable = errors.New("catalog unavailable")
)

type Client struct {
	BaseURL string
	Client  *http.Client
}

// New returns a client for a catalog served at baseURL, e.g.
// "http://localhost:5261/api".
func New(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) StoreParts(ctx context.Context) ([]Part, error) {
	var out []Part
	if err := c.do(ctx, http.MethodGet, "/store/parts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Search(ctx context.Context, q string) ([]Part, error) {
	var out []Part
	if err := c.do(ctx, http.MethodGet, "/store/search?q="+url.QueryEscape(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/store/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CalculateBuild(ctx context.Context, ids []int) (Build, error) {
	if ids == nil {
		ids = []int{}
	}

	var out Build
	err := c.do(ctx, http.MethodPost, "/store/build/calculate", map[string]any{"partIds": ids}, &out)
	if err != nil {
		return Build{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%w: %s", ErrBadRequest, e.Error)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
