package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmorales-dev/storefront-backend/internal/catalog"
	"github.com/nmorales-dev/storefront-backend/pkg/db"
	"github.com/nmorales-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nmorales-dev/storefront-backend/pkg/errors"
)

// Service exposes the cart operations. Add and update return the affected
// line joined with its item; reads return the full cart with totals.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddToCart(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartLineDTO, error)
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartLineDTO, error)
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo    *Repository
	CatalogRepo *catalog.Repository
	DB          *db.Client
}

type service struct {
	cartRepo    *Repository
	catalogRepo *catalog.Repository
	dbClient    *db.Client
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		cartRepo:    params.CartRepo,
		catalogRepo: params.CatalogRepo,
		dbClient:    params.DB,
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	return NewCartDTO(lines), nil
}

// AddToCart merges qty into the user's existing line for the item. The stock
// check applies to the post-merge total, so repeated adds cannot exceed the
// item's stock even though each request is individually small.
func (s *service) AddToCart(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartLineDTO, error) {
	if err := validateLineInput(userID, itemID, qty); err != nil {
		return nil, err
	}

	var dto *CartLineDTO
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		item, err := s.loadActiveItem(ctx, tx, itemID)
		if err != nil {
			return err
		}

		existing := 0
		line, err := s.cartRepo.WithTx(tx).GetLine(ctx, userID, itemID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		if line != nil {
			existing = line.Qty
		}

		if existing+qty > item.Stock {
			return insufficientStock(item, existing, qty)
		}

		if err := s.cartRepo.WithTx(tx).AddQty(ctx, userID, itemID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
		}

		merged, err := s.cartRepo.WithTx(tx).GetLine(ctx, userID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load merged cart line")
		}
		merged.Item = item
		mergedDTO := NewCartLineDTO(merged)
		dto = &mergedDTO
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// UpdateCartItem replaces the line's quantity outright.
func (s *service) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartLineDTO, error) {
	if err := validateLineInput(userID, itemID, qty); err != nil {
		return nil, err
	}

	var dto *CartLineDTO
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.cartRepo.WithTx(tx).GetLine(ctx, userID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}

		item, err := s.loadActiveItem(ctx, tx, itemID)
		if err != nil {
			return err
		}

		if qty > item.Stock {
			return insufficientStock(item, existing.Qty, qty)
		}

		updated, err := s.cartRepo.WithTx(tx).ReplaceQty(ctx, userID, itemID, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace cart line qty")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}

		existing.Item = item
		existing.Qty = qty
		line := NewCartLineDTO(existing)
		dto = &line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// RemoveFromCart drops the line. Removing an item that was never added is an
// error, not a no-op.
func (s *service) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	deleted, err := s.cartRepo.DeleteLine(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return nil
}

// ClearCart empties the cart. Clearing an already empty cart succeeds.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) loadActiveItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.catalogRepo.WithTx(tx).FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	if !item.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func insufficientStock(item *models.Item, existing, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough items in stock").
		WithDetails(map[string]any{
			"item_id":   item.ID,
			"stock":     item.Stock,
			"in_cart":   existing,
			"requested": requested,
		})
}

func validateLineInput(userID, itemID uuid.UUID, qty int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	return nil
}
