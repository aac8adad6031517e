package models

// Product.Stock == nil means unlimited stock.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	ImageURL    *string `json:"image_url"`
	Stock       *int64  `json:"stock"`
}

type CartItem struct {
	ID         int64   `json:"id"`
	Qty        int64   `json:"qty"`
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	PriceCents int64   `json:"price_cents"`
	ImageURL   *string `json:"image_url"`
	Stock      *int64  `json:"stock"`
}

// GuestCartItem lives in the guest_cart cookie until the visitor logs in.
type GuestCartItem struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
}
