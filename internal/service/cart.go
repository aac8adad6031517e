package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

var ErrSoldOut = errors.New("Sold out")

// AddResult reports how much of the requested quantity actually went into
// the cart after clamping to remaining stock. Remaining is nil for
// unlimited-stock products.
type AddResult struct {
	Added     int64
	Remaining *int64
}

type cartStorage interface {
	storage.CartRepository
	storage.ProductRepository
}

type CartService struct {
	storage cartStorage
	log     *zap.SugaredLogger
}

func NewCartService(st cartStorage, log *zap.SugaredLogger) *CartService {
	return &CartService{storage: st, log: log}
}

func (s *CartService) GetCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	cartID, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.storage.ListCartItems(ctx, cartID)
}

func (s *CartService) AddItem(ctx context.Context, userID, productID, qty int64) (*AddResult, error) {
	if qty < 1 {
		qty = 1
	}

	cartID, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	already, err := s.storage.GetCartItemQty(ctx, cartID, productID)
	if err != nil {
		return nil, err
	}

	toAdd, remaining, err := clampToStock(product.Stock, already, qty)
	if err != nil {
		return nil, err
	}

	if err := s.storage.UpsertCartItem(ctx, cartID, productID, toAdd); err != nil {
		return nil, err
	}
	return &AddResult{Added: toAdd, Remaining: remaining}, nil
}

func (s *CartService) RemoveItem(ctx context.Context, itemID int64) error {
	return s.storage.DeleteCartItem(ctx, itemID)
}

// GuestAdd applies the same stock clamping to the cookie-held guest cart.
func (s *CartService) GuestAdd(ctx context.Context, items []models.GuestCartItem, productID, qty int64) ([]models.GuestCartItem, *AddResult, error) {
	if qty < 1 {
		qty = 1
	}

	product, err := s.storage.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	idx := -1
	var already int64
	for i, it := range items {
		if it.ProductID == productID {
			idx = i
			already = it.Qty
			break
		}
	}

	toAdd, remaining, err := clampToStock(product.Stock, already, qty)
	if err != nil {
		return nil, nil, err
	}

	if idx == -1 {
		items = append(items, models.GuestCartItem{ProductID: productID, Qty: toAdd})
	} else {
		items[idx].Qty += toAdd
	}
	return items, &AddResult{Added: toAdd, Remaining: remaining}, nil
}

// GuestDetail joins the guest cart against the catalog, dropping items whose
// product has disappeared. Guest lines get negative synthetic ids so the
// frontend can tell them apart from persisted cart items.
func (s *CartService) GuestDetail(ctx context.Context, items []models.GuestCartItem) ([]models.CartItem, error) {
	detailed := []models.CartItem{}
	for _, it := range items {
		product, err := s.storage.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		detailed = append(detailed, models.CartItem{
			ID:         -product.ID,
			Qty:        it.Qty,
			ProductID:  product.ID,
			Name:       product.Name,
			PriceCents: product.PriceCents,
			ImageURL:   product.ImageURL,
			Stock:      product.Stock,
		})
	}
	return detailed, nil
}

// MergeGuestCart folds a guest cart into the user's cart, clamping each line
// to remaining stock and skipping what no longer fits. Returns how many
// guest lines were considered.
func (s *CartService) MergeGuestCart(ctx context.Context, userID int64, items []models.GuestCartItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	cartID, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, it := range items {
		product, err := s.storage.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				continue
			}
			return 0, err
		}
		if product.Stock != nil && *product.Stock <= 0 {
			continue
		}

		already, err := s.storage.GetCartItemQty(ctx, cartID, it.ProductID)
		if err != nil {
			return 0, err
		}

		toAdd, _, err := clampToStock(product.Stock, already, it.Qty)
		if err != nil {
			if errors.Is(err, ErrSoldOut) {
				continue
			}
			return 0, err
		}

		if err := s.storage.UpsertCartItem(ctx, cartID, it.ProductID, toAdd); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

// clampToStock returns how much of the requested qty fits given what the
// cart already holds. nil stock means unlimited.
func clampToStock(stock *int64, already, requested int64) (toAdd int64, remaining *int64, err error) {
	if stock == nil {
		return requested, nil, nil
	}

	remain := *stock - already
	if remain <= 0 {
		return 0, nil, ErrSoldOut
	}

	toAdd = requested
	if toAdd > remain {
		toAdd = remain
	}
	left := remain - toAdd
	return toAdd, &left, nil
}
