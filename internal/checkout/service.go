package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neumaticos/tirestore/internal/cart"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
)

type cartAccess interface {
	Get(ctx context.Context, owner string) (cart.State, error)
	ClearOrdered(ctx context.Context, owner string, ordered cart.State) (cart.State, error)
}

type orderSubmitter interface {
	Submit(ctx context.Context, draft orders.Draft) (uuid.UUID, error)
}

// Service turns the shopper's cart into an order.
type Service interface {
	Execute(ctx context.Context, identity Identity, input Input) (*Result, error)
}

type service struct {
	carts   cartAccess
	orders  orderSubmitter
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
}

// NewService builds the checkout service. metrics may be nil.
func NewService(carts cartAccess, submitter orderSubmitter, logg *logger.Logger, m *metrics.CartMetrics) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:   carts,
		orders:  submitter,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Execute validates the shipping data, simulates the payment, submits the
// order and removes the ordered lines from the cart. Lines the shopper added
// or changed while the order was submitted stay. The cart is left as is when
// submission fails.
func (s *service) Execute(ctx context.Context, identity Identity, input Input) (*Result, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checkout requires a signed in user")
	}
	owner := identity.UserID.String()
	ctx = s.logg.WithCartOwner(ctx, owner)

	method, err := resolvePaymentMethod(input.PaymentMethod)
	if err != nil {
		s.metrics.IncCheckout(metrics.CheckoutOutcomeRejected)
		return nil, err
	}
	address := input.ShippingAddress
	if strings.TrimSpace(address.Email) == "" {
		address.Email = identity.Email
	}
	if strings.TrimSpace(address.Name) == "" {
		address.Name = identity.Name
	}
	if err := address.Validate(); err != nil {
		s.metrics.IncCheckout(metrics.CheckoutOutcomeRejected)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	state, err := s.carts.Get(ctx, owner)
	if err != nil {
		s.metrics.IncCheckout(metrics.CheckoutOutcomeFailed)
		return nil, err
	}
	if state.IsEmpty() {
		s.metrics.IncCheckout(metrics.CheckoutOutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	txnID := fmt.Sprintf("TBK_%d", s.now().UnixMilli())
	draft := orders.Draft{
		UserID:          identity.UserID,
		UserEmail:       identity.Email,
		UserName:        identity.Name,
		Items:           make([]orders.LineItemDraft, 0, len(state.Items)),
		Total:           state.Total,
		ShippingAddress: address,
		PaymentMethod:   method,
		TransactionID:   txnID,
	}
	for _, item := range state.Items {
		draft.Items = append(draft.Items, orders.LineItemDraft{
			ProductID: item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}

	orderID, err := s.orders.Submit(ctx, draft)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			s.metrics.IncCheckout(metrics.CheckoutOutcomeRejected)
		} else {
			s.metrics.IncCheckout(metrics.CheckoutOutcomeFailed)
		}
		return nil, err
	}
	s.metrics.IncCheckout(metrics.CheckoutOutcomeSubmitted)

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	if _, err := s.carts.ClearOrdered(logCtx, owner, state); err != nil {
		// the order stands; the shopper can empty the cart by hand
		s.logg.Error(logCtx, "checkout.clear_cart_failed", err)
	}
	s.logg.Info(s.logg.WithField(logCtx, "transaction_id", txnID), "checkout.completed")

	return &Result{
		OrderID:       orderID,
		TransactionID: txnID,
		PaymentMethod: method,
		ItemCount:     state.ItemCount,
		Total:         state.Total,
	}, nil
}

func resolvePaymentMethod(method enums.PaymentMethod) (enums.PaymentMethod, error) {
	if strings.TrimSpace(string(method)) == "" {
		return enums.DefaultPaymentMethod, nil
	}
	if !method.IsValid() {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment method %q", method)
	}
	return method, nil
}
