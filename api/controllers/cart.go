package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/JohnnyHuang0515/ecommerce-backend/api/responses"
	"github.com/JohnnyHuang0515/ecommerce-backend/api/validators"
	internalcart "github.com/JohnnyHuang0515/ecommerce-backend/internal/cart"
	pkgerrors "github.com/JohnnyHuang0515/ecommerce-backend/pkg/errors"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
)

// cartConverter is the slice of the cart service checkout needs.
type cartConverter interface {
	ConvertActiveCart(ctx context.Context, userID uuid.UUID) error
}

type cartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type syncCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"dive"`
}

// SyncCart replaces the authenticated user's cart, clamped to live stock.
func SyncCart(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req syncCartRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]internalcart.SyncItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			productID, parseErr := uuid.Parse(item.ProductID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product id"))
				return
			}
			items = append(items, internalcart.SyncItemInput{
				ProductID: productID,
				Quantity:  item.Quantity,
			})
		}

		view, err := svc.SyncCart(r.Context(), internalcart.SyncCartInput{
			UserID: userID,
			Items:  items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// GetCart returns the authenticated user's active cart.
func GetCart(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
