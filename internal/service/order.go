package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

var ErrInvalidOrderStatus = errors.New("Invalid status")

const (
	defaultOrderLimit = 200
	maxOrderLimit     = 500
)

type OrderService struct {
	storage storage.OrderRepository
	log     *zap.SugaredLogger
}

func NewOrderService(st storage.OrderRepository, log *zap.SugaredLogger) *OrderService {
	return &OrderService{storage: st, log: log}
}

func (s *OrderService) Checkout(ctx context.Context, userID int64) (*models.Order, error) {
	order, err := s.storage.Checkout(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Infow("order created", "order_id", order.ID, "user_id", userID, "total_cents", order.TotalCents)
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.storage.ListUserOrders(ctx, userID)
}

func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	return s.storage.CancelOrder(ctx, userID, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, f storage.OrderFilter) ([]models.Order, error) {
	if f.Status != "" && !models.IsValidOrderStatus(f.Status) {
		f.Status = ""
	}
	if f.Limit <= 0 {
		f.Limit = defaultOrderLimit
	}
	if f.Limit > maxOrderLimit {
		f.Limit = maxOrderLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.storage.ListOrders(ctx, f)
}

func (s *OrderService) SetOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}
	order, err := s.storage.SetOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	s.log.Infow("order status changed", "order_id", orderID, "status", status)
	return order, nil
}
