package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nmorales-dev/storefront-backend/internal/catalog"
	"github.com/nmorales-dev/storefront-backend/pkg/db"
	"github.com/nmorales-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nmorales-dev/storefront-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartLines := `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty > 0),
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, item_id)
);`
	require.NoError(t, conn.Exec(items).Error)
	require.NoError(t, conn.Exec(cartLines).Error)

	return conn
}

type cartTestSetup struct {
	svc  Service
	conn *gorm.DB
}

func newCartTestSetup(t *testing.T) *cartTestSetup {
	t.Helper()
	conn := setupCartTestDB(t)
	svc, err := NewService(ServiceParams{
		CartRepo:    NewRepository(conn),
		CatalogRepo: catalog.NewRepository(conn),
		DB:          db.NewFromGorm(conn),
	})
	require.NoError(t, err)
	return &cartTestSetup{svc: svc, conn: conn}
}

func (s *cartTestSetup) createItem(t *testing.T, name string, price string, stock int) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:       uuid.New(),
		Name:     name,
		Category: "test",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, s.conn.Create(item).Error)
	return item
}

func TestAddToCartCreatesLine(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	line, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Qty)
	assert.Equal(t, item.ID, line.Item.ID)
	assert.True(t, line.LineTotal.Equal(decimal.RequireFromString("28.00")))

	cart, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("28.00")))
	assert.Equal(t, 2, cart.TotalQty)
}

func TestAddToCartMergesQuantities(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 2)
	require.NoError(t, err)

	line, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Qty)
	assert.Equal(t, item.ID, line.Item.ID)

	var count int64
	require.NoError(t, setup.conn.Model(&models.CartLine{}).
		Where("user_id = ? AND item_id = ?", userID, item.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddToCartPostMergeStockCheck(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 8)
	require.NoError(t, err)

	_, err = setup.svc.AddToCart(context.Background(), userID, item.ID, 3)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// a rejected add must not change the cart
	cart, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 8, cart.Lines[0].Qty)

	// topping up to exactly the stock is allowed
	line, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, line.Qty)
}

func TestAddToCartFullThenOneMoreFails(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	line, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, line.Qty)

	_, err = setup.svc.AddToCart(context.Background(), userID, item.ID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	cart, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 10, cart.Lines[0].Qty)
}

func TestAddToCartRejectsOversizedFirstAdd(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 4)

	_, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 5)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
}

func TestAddToCartUnknownItem(t *testing.T) {
	setup := newCartTestSetup(t)

	_, err := setup.svc.AddToCart(context.Background(), uuid.New(), uuid.New(), 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddToCartInactiveItem(t *testing.T) {
	setup := newCartTestSetup(t)
	item := setup.createItem(t, "Retired", "5.00", 10)
	require.NoError(t, setup.conn.Model(item).UpdateColumn("is_active", false).Error)

	_, err := setup.svc.AddToCart(context.Background(), uuid.New(), item.ID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddToCartRejectsNonPositiveQty(t *testing.T) {
	setup := newCartTestSetup(t)
	item := setup.createItem(t, "Mug", "14.00", 10)

	for _, qty := range []int{0, -1} {
		_, err := setup.svc.AddToCart(context.Background(), uuid.New(), item.ID, qty)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestUpdateCartItemReplacesQty(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 5)
	require.NoError(t, err)

	line, err := setup.svc.UpdateCartItem(context.Background(), userID, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Qty)
	assert.Equal(t, item.ID, line.Item.ID)

	cart, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Qty)
}

func TestUpdateCartItemStockCheck(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 5)
	require.NoError(t, err)

	_, err = setup.svc.UpdateCartItem(context.Background(), userID, item.ID, 11)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// replacing with exactly the stock is allowed
	line, err := setup.svc.UpdateCartItem(context.Background(), userID, item.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, line.Qty)
}

func TestUpdateCartItemMissingLine(t *testing.T) {
	setup := newCartTestSetup(t)
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.UpdateCartItem(context.Background(), uuid.New(), item.ID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRemoveFromCartDeletesLine(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.AddToCart(context.Background(), userID, item.ID, 2)
	require.NoError(t, err)

	require.NoError(t, setup.svc.RemoveFromCart(context.Background(), userID, item.ID))

	cart, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestRemoveFromCartMissingLine(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	// never added
	err := setup.svc.RemoveFromCart(context.Background(), userID, item.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// removing twice fails the second time
	_, err = setup.svc.AddToCart(context.Background(), userID, item.ID, 2)
	require.NoError(t, err)
	require.NoError(t, setup.svc.RemoveFromCart(context.Background(), userID, item.ID))

	err = setup.svc.RemoveFromCart(context.Background(), userID, item.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestClearCartIsIdempotent(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	first := setup.createItem(t, "Mug", "14.00", 10)
	second := setup.createItem(t, "Lamp", "32.75", 5)

	_, err := setup.svc.AddToCart(context.Background(), userID, first.ID, 2)
	require.NoError(t, err)
	_, err = setup.svc.AddToCart(context.Background(), userID, second.ID, 1)
	require.NoError(t, err)

	require.NoError(t, setup.svc.ClearCart(context.Background(), userID))

	cart, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Subtotal.IsZero())

	require.NoError(t, setup.svc.ClearCart(context.Background(), userID))
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	setup := newCartTestSetup(t)
	alice := uuid.New()
	bob := uuid.New()
	item := setup.createItem(t, "Mug", "14.00", 10)

	_, err := setup.svc.AddToCart(context.Background(), alice, item.ID, 3)
	require.NoError(t, err)

	cart, err := setup.svc.GetCart(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	require.NoError(t, setup.svc.ClearCart(context.Background(), bob))

	cart, err = setup.svc.GetCart(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Qty)
}

func TestGetCartComputesTotals(t *testing.T) {
	setup := newCartTestSetup(t)
	userID := uuid.New()
	mug := setup.createItem(t, "Mug", "14.00", 10)
	lamp := setup.createItem(t, "Lamp", "32.75", 5)

	_, err := setup.svc.AddToCart(context.Background(), userID, mug.ID, 2)
	require.NoError(t, err)
	_, err = setup.svc.AddToCart(context.Background(), userID, lamp.ID, 1)
	require.NoError(t, err)

	dto, err := setup.svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, dto.Lines, 2)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("60.75")))
	assert.Equal(t, 3, dto.TotalQty)
}
