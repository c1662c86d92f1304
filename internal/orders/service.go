package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/enums"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	"github.com/moritea/storefront/pkg/pagination"
)

// Service exposes order reads and status changes.
type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &Service{repo: repo}, nil
}

// Get returns the order with its items.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return order, nil
}

// ListByUser returns a page of a user's orders.
func (s *Service) ListByUser(ctx context.Context, userID string, params pagination.Params) (*pagination.Page[models.Order], error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return page, nil
}

// UpdateStatus moves an order to status. Delivered and cancelled orders are
// final.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapLookupErr(err)
	}
	if order.Status == status {
		return nil
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already "+order.Status.String())
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return mapLookupErr(err)
	}
	return nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
}
