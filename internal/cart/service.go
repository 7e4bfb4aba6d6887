package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/neumaticos/tirestore/pkg/db/models"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
)

type productLookup interface {
	FetchByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type storeOpener interface {
	Open(ctx context.Context, owner string) (*Store, error)
}

// Service exposes the shopper cart to controllers and checkout.
type Service interface {
	Get(ctx context.Context, owner string) (State, error)
	Add(ctx context.Context, owner string, productID uuid.UUID, qty int) (State, error)
	Remove(ctx context.Context, owner, productID string) (State, error)
	UpdateQuantity(ctx context.Context, owner, productID string, qty int) (State, error)
	Clear(ctx context.Context, owner string) (State, error)
	ClearOrdered(ctx context.Context, owner string, ordered State) (State, error)
}

type service struct {
	carts    storeOpener
	products productLookup
}

// NewService builds a cart service over the registry and the catalog.
func NewService(carts storeOpener, products productLookup) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{carts: carts, products: products}, nil
}

func (s *service) Get(ctx context.Context, owner string) (State, error) {
	store, err := s.open(ctx, owner)
	if err != nil {
		return State{}, err
	}
	return store.State(), nil
}

// Add snapshots the catalog's current name, price and image into the cart.
// Stock is not checked here.
func (s *service) Add(ctx context.Context, owner string, productID uuid.UUID, qty int) (State, error) {
	if productID == uuid.Nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return State{}, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at least 1, got %d", qty)
	}
	product, err := s.products.FetchByID(ctx, productID)
	if err != nil {
		return State{}, err
	}
	store, err := s.open(ctx, owner)
	if err != nil {
		return State{}, err
	}
	return store.AddItem(ctx, Product{
		ID:        product.ID.String(),
		Name:      product.Name,
		UnitPrice: product.Price,
		Image:     product.Image,
	}, qty)
}

func (s *service) Remove(ctx context.Context, owner, productID string) (State, error) {
	store, err := s.open(ctx, owner)
	if err != nil {
		return State{}, err
	}
	return store.RemoveItem(ctx, productID), nil
}

func (s *service) UpdateQuantity(ctx context.Context, owner, productID string, qty int) (State, error) {
	store, err := s.open(ctx, owner)
	if err != nil {
		return State{}, err
	}
	return store.UpdateQuantity(ctx, productID, qty), nil
}

func (s *service) Clear(ctx context.Context, owner string) (State, error) {
	store, err := s.open(ctx, owner)
	if err != nil {
		return State{}, err
	}
	return store.Clear(ctx), nil
}

func (s *service) ClearOrdered(ctx context.Context, owner string, ordered State) (State, error) {
	store, err := s.open(ctx, owner)
	if err != nil {
		return State{}, err
	}
	return store.ClearOrdered(ctx, ordered), nil
}

func (s *service) open(ctx context.Context, owner string) (*Store, error) {
	store, err := s.carts.Open(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return store, nil
}
