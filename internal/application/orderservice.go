package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

// OrderService reads work orders on behalf of an authenticated technician.
// Orders are fetched on every call and never cached.
type OrderService struct {
	orders driven.OrderClient
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders driven.OrderClient) *OrderService {
	return &OrderService{orders: orders}
}

// List returns the technician's work orders.
func (s *OrderService) List(ctx context.Context, token string) ([]model.WorkOrder, error) {
	orders, err := s.orders.ListOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// Get returns one work order.
func (s *OrderService) Get(ctx context.Context, token string, id int64) (model.WorkOrder, error) {
	order, err := s.orders.GetOrder(ctx, token, id)
	if err != nil {
		return model.WorkOrder{}, fmt.Errorf("getting order %d: %w", id, err)
	}
	return order, nil
}

// CanSign reports whether a signature may be captured for order. Orders that
// already carry a signature are read-only.
func (s *OrderService) CanSign(order model.WorkOrder) bool {
	return !order.TieneFirma
}
