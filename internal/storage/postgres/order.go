package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

// OrderRepository needs the real *sql.DB: checkout, cancellation and status
// transitions run in transactions with row locks on the products involved.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func unmarshalOrderItems(raw []byte) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return items, nil
}

func (r *OrderRepository) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	query := `SELECT id, items, total_cents, status, created_at, updated_at
	            FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var (
			o   models.Order
			raw []byte
		)
		if err := rows.Scan(&o.ID, &raw, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Items, err = unmarshalOrderItems(raw); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) ListOrders(ctx context.Context, f storage.OrderFilter) ([]models.Order, error) {
	clauses := []string{}
	params := []any{}
	i := 1

	if f.Status != "" {
		clauses = append(clauses, fmt.Sprintf("o.status = $%d", i))
		params = append(params, f.Status)
		i++
	}
	if f.UserID > 0 {
		clauses = append(clauses, fmt.Sprintf("o.user_id = $%d", i))
		params = append(params, f.UserID)
		i++
	}
	if f.Query != "" {
		clauses = append(clauses, fmt.Sprintf("(u.email ILIKE $%d OR u.fullname ILIKE $%d)", i, i))
		params = append(params, "%"+f.Query+"%")
		i++
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + clauses[0]
		for _, c := range clauses[1:] {
			where += " AND " + c
		}
	}

	query := fmt.Sprintf(`SELECT o.id, o.user_id, u.email, u.fullname, o.items, o.total_cents, o.status, o.created_at, o.updated_at
	            FROM orders o
	            JOIN users u ON u.id = o.user_id
	            %s
	           ORDER BY o.created_at DESC
	           LIMIT $%d OFFSET $%d`, where, i, i+1)
	params = append(params, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var (
			o   models.Order
			raw []byte
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Email, &o.Fullname, &raw, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Items, err = unmarshalOrderItems(raw); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Checkout locks the cart's products, validates and decrements stock,
// snapshots the items to jsonb and empties the cart, all in one transaction.
func (r *OrderRepository) Checkout(ctx context.Context, userID int64) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	cartID, err := NewCartRepository(tx).EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT p.id, p.name, p.price_cents, ci.qty, p.stock
		   FROM cart_items ci
		   JOIN products p ON p.id = ci.product_id
		  WHERE ci.cart_id = $1
		    FOR UPDATE OF p`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("lock cart items: %w", err)
	}

	type line struct {
		item  models.OrderItem
		stock *int64
	}
	lines := []line{}
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.item.ProductID, &l.item.Name, &l.item.PriceCents, &l.item.Qty, &l.stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	if len(lines) == 0 {
		return nil, storage.ErrCartEmpty
	}

	for _, l := range lines {
		if l.stock != nil && *l.stock < l.item.Qty {
			return nil, storage.InsufficientStockError{Name: l.item.Name, Stock: *l.stock}
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, l := range lines {
		if l.stock != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
				l.item.ProductID, l.item.Qty); err != nil {
				return nil, fmt.Errorf("decrement stock: %w", err)
			}
		}
		items = append(items, l.item)
		total += l.item.Qty * l.item.PriceCents
	}

	rawItems, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal order items: %w", err)
	}

	order := models.Order{Items: items, Status: models.OrderStatusCreated}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, items, total_cents, status)
		 VALUES ($1, $2::jsonb, $3, 'created')
		 RETURNING id, total_cents, status, created_at`,
		userID, rawItems, total,
	).Scan(&order.ID, &order.TotalCents, &order.Status, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := NewCartRepository(tx).ClearCart(ctx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		status string
		raw    []byte
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, items FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		orderID, userID,
	).Scan(&status, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	items, err := unmarshalOrderItems(raw)
	if err != nil {
		return nil, err
	}

	// stock was reserved at checkout and only returns while the order is
	// still in 'created'
	if status == models.OrderStatusCreated {
		if err := restockItems(ctx, tx, items); err != nil {
			return nil, err
		}
	}

	order := models.Order{ID: orderID, Items: items}
	err = tx.QueryRowContext(ctx,
		`UPDATE orders SET status = 'cancelled_by_user', updated_at = now()
		  WHERE id = $1 AND user_id = $2
		 RETURNING id, status`,
		orderID, userID,
	).Scan(&order.ID, &order.Status)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) SetOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		prev string
		raw  []byte
	)
	err = tx.QueryRowContext(ctx, `SELECT status, items FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&prev, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	items, err := unmarshalOrderItems(raw)
	if err != nil {
		return nil, err
	}

	if prev == models.OrderStatusCreated && status == models.OrderStatusCancelled {
		if err := restockItems(ctx, tx, items); err != nil {
			return nil, err
		}
	}

	order := models.Order{Items: items}
	err = tx.QueryRowContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 RETURNING id, status, updated_at`,
		orderID, status,
	).Scan(&order.ID, &order.Status, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &order, nil
}

func restockItems(ctx context.Context, tx *sql.Tx, items []models.OrderItem) error {
	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + $2 WHERE id = $1 AND stock IS NOT NULL`,
			it.ProductID, it.Qty); err != nil {
			return fmt.Errorf("restock product %d: %w", it.ProductID, err)
		}
	}
	return nil
}
