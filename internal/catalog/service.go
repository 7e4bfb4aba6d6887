package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
)

// Service exposes catalog reads for shoppers and writes for administrators.
type Service interface {
	FetchAll(ctx context.Context) ([]models.Product, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FetchByCategory(ctx context.Context, category enums.ProductCategory) ([]models.Product, error)
	FetchOnSale(ctx context.Context) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Stock       int
	Category    enums.ProductCategory
	Brand       string
	OnSale      bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Stock       *int
	Category    *enums.ProductCategory
	Brand       *string
	OnSale      *bool
}

type service struct {
	repo *Repository
}

// NewService builds the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) FetchAll(ctx context.Context) ([]models.Product, error) {
	return s.List(ctx, ListFilter{})
}

func (s *service) FetchByCategory(ctx context.Context, category enums.ProductCategory) ([]models.Product, error) {
	if !category.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", category)
	}
	return s.List(ctx, ListFilter{Category: &category})
}

func (s *service) FetchOnSale(ctx context.Context) ([]models.Product, error) {
	return s.List(ctx, ListFilter{OnSale: true})
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) FetchByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Image:       strings.TrimSpace(input.Image),
		Stock:       input.Stock,
		Category:    input.Category,
		Brand:       strings.TrimSpace(input.Brand),
		OnSale:      input.OnSale,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdateToProduct(product, input)
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Price.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	case p.Stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	case !p.Category.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", p.Category)
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Image != nil {
		product.Image = strings.TrimSpace(*input.Image)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.OnSale != nil {
		product.OnSale = *input.OnSale
	}
}
