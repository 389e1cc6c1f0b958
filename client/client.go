// Package client is a Go consumer of the storefront API. It keeps a local
// cart cache that is invalidated on every mutation so the next read always
// refetches the server's view of the cart.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 10 * time.Second

// Item is a catalog entry as served by the API.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

// CartLine is one cart entry joined with its item.
type CartLine struct {
	ID        uuid.UUID       `json:"id"`
	Item      Item            `json:"item"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Cart is the server's cart payload.
type Cart struct {
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	TotalQty int             `json:"total_qty"`
}

// ItemPage is one page of catalog results.
type ItemPage struct {
	Items []Item `json:"items"`
	Meta  struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// ListItemsOptions narrows a catalog listing request.
type ListItemsOptions struct {
	Query    string
	Category string
	Sort     string
	Page     int
	Limit    int
}

// APIError is a decoded error envelope from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the storefront API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithToken sets the bearer token sent on authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New builds an API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken swaps the bearer token, for example after login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var session struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return err
	}
	c.token = session.Token
	return nil
}

// ListItems fetches a catalog page.
func (c *Client) ListItems(ctx context.Context, opts ListItemsOptions) (*ItemPage, error) {
	query := url.Values{}
	if opts.Query != "" {
		query.Set("q", opts.Query)
	}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Page > 0 {
		query.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	path := "/api/v1/items"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page ItemPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetItem fetches a single catalog item.
func (c *Client) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodGet, "/api/v1/items/"+itemID.String(), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetCart fetches the caller's cart.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart merges qty into the cart and returns the merged line.
func (c *Client) AddToCart(ctx context.Context, itemID uuid.UUID, qty int) (*CartLine, error) {
	var line CartLine
	err := c.do(ctx, http.MethodPost, "/api/v1/cart/add", map[string]any{
		"itemId": itemID.String(),
		"qty":    qty,
	}, &line)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateCartItem replaces a line's quantity and returns the updated line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID uuid.UUID, qty int) (*CartLine, error) {
	var line CartLine
	err := c.do(ctx, http.MethodPut, "/api/v1/cart/update", map[string]any{
		"itemId": itemID.String(),
		"qty":    qty,
	}, &line)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// RemoveFromCart deletes a line. The API answers 404 when the item was never
// in the cart, surfaced here as an *APIError.
func (c *Client) RemoveFromCart(ctx context.Context, itemID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/v1/cart/remove", map[string]any{
		"itemId": itemID.String(),
	}, nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cart/clear", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, payload)
	}

	if dest == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func decodeAPIError(status int, payload []byte) error {
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{StatusCode: status, Code: "UNKNOWN", Message: strings.TrimSpace(string(payload))}
	}
	return &APIError{
		StatusCode: status,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
		Details:    envelope.Error.Details,
	}
}
