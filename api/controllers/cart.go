package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nmorales-dev/storefront-backend/api/middleware"
	"github.com/nmorales-dev/storefront-backend/api/responses"
	"github.com/nmorales-dev/storefront-backend/api/validators"
	cartsvc "github.com/nmorales-dev/storefront-backend/internal/cart"
	pkgerrors "github.com/nmorales-dev/storefront-backend/pkg/errors"
	"github.com/nmorales-dev/storefront-backend/pkg/logger"
)

type cartLineRequest struct {
	ItemID string `json:"itemId" validate:"required,uuid"`
	Qty    int    `json:"qty" validate:"required,min=1"`
}

type cartRemoveRequest struct {
	ItemID string `json:"itemId" validate:"required,uuid"`
}

// CartFetch returns the caller's cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r, svc, logg, w)
		if err != nil {
			return
		}

		cart, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartAdd merges a quantity into the caller's cart line for an item.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r, svc, logg, w)
		if err != nil {
			return
		}

		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddToCart(r.Context(), userID, itemID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, line)
	}
}

// CartUpdate replaces the quantity on an existing cart line.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r, svc, logg, w)
		if err != nil {
			return
		}

		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateCartItem(r.Context(), userID, itemID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, line)
	}
}

// CartRemove deletes a cart line. A 404 comes back when the item was never
// in the cart.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r, svc, logg, w)
		if err != nil {
			return
		}

		var payload cartRemoveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveFromCart(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "item removed from cart"})
	}
}

// CartClear empties the caller's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r, svc, logg, w)
		if err != nil {
			return
		}

		if err := svc.ClearCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "cart cleared"})
	}
}

func requireUser(r *http.Request, svc cartsvc.Service, logg *logger.Logger, w http.ResponseWriter) (uuid.UUID, error) {
	if svc == nil {
		err := pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, err
	}
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		err := pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, err
	}
	return userID, nil
}

func parseItemID(raw string) (uuid.UUID, error) {
	itemID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}
