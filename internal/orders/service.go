package orders

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
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service accepts finalized carts and exposes order history.
type Service interface {
	Submit(ctx context.Context, draft Draft) (uuid.UUID, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, status *enums.OrderStatus) (*OrderList, error)
	GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Submit stores the order and all of its lines in one transaction. New orders
// start as pendiente.
func (s *service) Submit(ctx context.Context, draft Draft) (uuid.UUID, error) {
	if err := validateDraft(draft); err != nil {
		return uuid.Nil, err
	}

	order := &models.Order{
		UserID:          draft.UserID,
		UserEmail:       strings.TrimSpace(draft.UserEmail),
		UserName:        strings.TrimSpace(draft.UserName),
		Total:           draft.Total,
		Status:          enums.OrderStatusPendiente,
		PaymentMethod:   draft.PaymentMethod,
		TransactionID:   draft.TransactionID,
		ShippingAddress: draft.ShippingAddress,
		Items:           make([]models.OrderLineItem, 0, len(draft.Items)),
	}
	for i, line := range draft.Items {
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Image:     line.Image,
			Position:  i,
		})
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	}); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"user_id":    order.UserID.String(),
		"line_items": len(order.Items),
		"total":      order.Total.String(),
	})
	s.logg.Info(logCtx, "order submitted")
	return order.ID, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	return s.list(ctx, ListFilter{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, status *enums.OrderStatus) (*OrderList, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *status)
	}
	return s.list(ctx, ListFilter{Status: status}, params)
}

// GetByID returns the order when the actor owns it or is an administrator.
// Orders belonging to someone else are reported as missing.
func (s *service) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// UpdateStatus moves an order to status. Delivered and cancelled orders are final.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if isFinal(order.Status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", order.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order.Status = status

	logCtx := s.logg.WithOrderID(ctx, id.String())
	s.logg.Info(s.logg.WithField(logCtx, "status", status.String()), "order status updated")
	return order, nil
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return &OrderList{Orders: rows, NextCursor: next}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func isFinal(status enums.OrderStatus) bool {
	return status == enums.OrderStatusEntregado || status == enums.OrderStatusCancelado
}

func validateDraft(d Draft) error {
	if d.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if len(d.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if !d.PaymentMethod.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", d.PaymentMethod)
	}
	if strings.TrimSpace(d.TransactionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if err := d.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	sum := decimal.Zero
	for _, line := range d.Items {
		if strings.TrimSpace(line.ProductID) == "" || line.Quantity < 1 || line.UnitPrice.IsNegative() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid line item %q", line.ProductID)
		}
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if !sum.Equal(d.Total) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "order total %s does not match line items %s", d.Total, sum)
	}
	return nil
}
