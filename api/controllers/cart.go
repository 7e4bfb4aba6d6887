package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/api/validators"
	"github.com/neumaticos/tirestore/internal/cart"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
)

type cartItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
}

func newCartResponse(state cart.State) cartResponse {
	items := make([]cartItemResponse, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, cartItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		})
	}
	return cartResponse{Items: items, ItemCount: state.ItemCount, Total: state.Total}
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity,omitempty" validate:"omitempty,min=1"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// cartOwner keys a cart by the authenticated user id.
func cartOwner(r *http.Request) (string, error) {
	userID, err := requestUserID(r)
	if err != nil {
		return "", err
	}
	return userID.String(), nil
}

func cartItemParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "productId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	return id, nil
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// CartAddItem adds a catalog product to the cart. Quantity defaults to 1.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty := 1
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		state, err := svc.Add(r.Context(), owner, req.ProductID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// CartUpdateItem sets a line's quantity. Zero or less removes the line.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := cartItemParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.UpdateQuantity(r.Context(), owner, itemID, *req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(state))
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := cartItemParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Remove(r.Context(), owner, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(state))
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(state))
	}
}
