package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/neumaticos/tirestore/api/responses"
	"github.com/neumaticos/tirestore/api/validators"
	"github.com/neumaticos/tirestore/internal/catalog"
	"github.com/neumaticos/tirestore/pkg/enums"
	"github.com/neumaticos/tirestore/pkg/logger"
)

type createProductRequest struct {
	Name        string                `json:"name" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=4000"`
	Price       decimal.Decimal       `json:"price"`
	Image       string                `json:"image" validate:"omitempty,max=500"`
	Stock       int                   `json:"stock" validate:"min=0"`
	Category    enums.ProductCategory `json:"category" validate:"required"`
	Brand       string                `json:"brand" validate:"max=100"`
	OnSale      bool                  `json:"on_sale"`
}

type updateProductRequest struct {
	Name        *string                `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string                `json:"description,omitempty" validate:"omitempty,max=4000"`
	Price       *decimal.Decimal       `json:"price,omitempty"`
	Image       *string                `json:"image,omitempty" validate:"omitempty,max=500"`
	Stock       *int                   `json:"stock,omitempty" validate:"omitempty,min=0"`
	Category    *enums.ProductCategory `json:"category,omitempty"`
	Brand       *string                `json:"brand,omitempty" validate:"omitempty,max=100"`
	OnSale      *bool                  `json:"on_sale,omitempty"`
}

func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), catalog.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Image:       req.Image,
			Stock:       req.Stock,
			Category:    req.Category,
			Brand:       req.Brand,
			OnSale:      req.OnSale,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, catalog.UpdateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Image:       req.Image,
			Stock:       req.Stock,
			Category:    req.Category,
			Brand:       req.Brand,
			OnSale:      req.OnSale,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
