package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

type ProductRepository struct {
	db storage.DBTX
}

func NewProductRepository(db storage.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price_cents, image_url, stock`

func scanProduct(row *sql.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	query := `INSERT INTO products (name, description, price_cents, image_url, stock)
	          VALUES ($1, $2, $3, $4, $5) RETURNING ` + productColumns
	return scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.PriceCents, p.ImageURL, p.Stock))
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	query := `UPDATE products SET name = $1, description = $2, price_cents = $3, image_url = $4, stock = $5
	           WHERE id = $6 RETURNING ` + productColumns
	return scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.PriceCents, p.ImageURL, p.Stock, p.ID))
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
