package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisplayTaxRate is the flat rate applied to cart totals for display.
var DisplayTaxRate = decimal.NewFromFloat(0.10)

type cartAPI interface {
	GetCart(ctx context.Context) (*Cart, error)
	AddToCart(ctx context.Context, itemID uuid.UUID, qty int) (*CartLine, error)
	UpdateCartItem(ctx context.Context, itemID uuid.UUID, qty int) (*CartLine, error)
	RemoveFromCart(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context) error
}

// CartCache keeps a local copy of the server cart. Every mutation drops the
// cached copy, so the next read refetches and the cache never drifts from
// the backend.
type CartCache struct {
	mu    sync.Mutex
	api   cartAPI
	cart  *Cart
	valid bool
}

// NewCartCache wraps an API client with a cart cache.
func NewCartCache(api cartAPI) *CartCache {
	return &CartCache{api: api}
}

// Invalidate forces the next read to refetch from the API.
func (c *CartCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.cart = nil
}

// Cart returns the cached cart, fetching it when the cache is cold.
func (c *CartCache) Cart(ctx context.Context) (*Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cartLocked(ctx)
}

// Items returns the cached cart lines.
func (c *CartCache) Items(ctx context.Context) ([]CartLine, error) {
	cart, err := c.Cart(ctx)
	if err != nil {
		return nil, err
	}
	return cart.Lines, nil
}

// Count returns the total quantity across all cached lines.
func (c *CartCache) Count(ctx context.Context) (int, error) {
	cart, err := c.Cart(ctx)
	if err != nil {
		return 0, err
	}
	return cart.TotalQty, nil
}

// Subtotal returns the cached pre-tax total.
func (c *CartCache) Subtotal(ctx context.Context) (decimal.Decimal, error) {
	cart, err := c.Cart(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Subtotal, nil
}

// Tax returns the display tax for the cached subtotal, rounded to cents.
func (c *CartCache) Tax(ctx context.Context) (decimal.Decimal, error) {
	subtotal, err := c.Subtotal(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return subtotal.Mul(DisplayTaxRate).Round(2), nil
}

// Total returns subtotal plus display tax, rounded to cents.
func (c *CartCache) Total(ctx context.Context) (decimal.Decimal, error) {
	subtotal, err := c.Subtotal(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return subtotal.Add(subtotal.Mul(DisplayTaxRate)).Round(2), nil
}

// Add merges qty into the cart and drops the cached copy.
func (c *CartCache) Add(ctx context.Context, itemID uuid.UUID, qty int) (*CartLine, error) {
	return c.mutateLine(func() (*CartLine, error) {
		return c.api.AddToCart(ctx, itemID, qty)
	})
}

// Update replaces a line quantity and drops the cached copy.
func (c *CartCache) Update(ctx context.Context, itemID uuid.UUID, qty int) (*CartLine, error) {
	return c.mutateLine(func() (*CartLine, error) {
		return c.api.UpdateCartItem(ctx, itemID, qty)
	})
}

// Remove deletes a line and drops the cached copy.
func (c *CartCache) Remove(ctx context.Context, itemID uuid.UUID) error {
	return c.mutate(func() error {
		return c.api.RemoveFromCart(ctx, itemID)
	})
}

// Clear empties the cart and drops the cached copy.
func (c *CartCache) Clear(ctx context.Context) error {
	return c.mutate(func() error {
		return c.api.ClearCart(ctx)
	})
}

func (c *CartCache) cartLocked(ctx context.Context) (*Cart, error) {
	if c.valid && c.cart != nil {
		return c.cart, nil
	}
	cart, err := c.api.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	c.cart = cart
	c.valid = true
	return cart, nil
}

// mutateLine invalidates the cache before the call; whether the mutation
// succeeds or not, the next read refetches.
func (c *CartCache) mutateLine(call func() (*CartLine, error)) (*CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.cart = nil

	return call()
}

func (c *CartCache) mutate(call func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.cart = nil

	return call()
}
