package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

type CartRepository struct {
	db storage.DBTX
}

func NewCartRepository(db storage.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// EnsureCart returns the user's cart id, creating the cart lazily.
func (r *CartRepository) EnsureCart(ctx context.Context, userID int64) (int64, error) {
	var cartID int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get cart: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `INSERT INTO carts (user_id) VALUES ($1) RETURNING id`, userID).Scan(&cartID)
	if err != nil {
		return 0, fmt.Errorf("create cart: %w", err)
	}
	return cartID, nil
}

func (r *CartRepository) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	query := `SELECT ci.id, ci.qty, p.id, p.name, p.price_cents, p.image_url, p.stock
	            FROM cart_items ci
	            JOIN products p ON p.id = ci.product_id
	           WHERE ci.cart_id = $1
	           ORDER BY ci.id`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ID, &it.Qty, &it.ProductID, &it.Name, &it.PriceCents, &it.ImageURL, &it.Stock); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *CartRepository) GetCartItemQty(ctx context.Context, cartID, productID int64) (int64, error) {
	var qty int64
	err := r.db.QueryRowContext(
		ctx,
		`SELECT qty FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cart item qty: %w", err)
	}
	return qty, nil
}

func (r *CartRepository) UpsertCartItem(ctx context.Context, cartID, productID, qty int64) error {
	query := `INSERT INTO cart_items (cart_id, product_id, qty)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID, qty); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) DeleteCartItem(ctx context.Context, itemID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) ClearCart(ctx context.Context, cartID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
