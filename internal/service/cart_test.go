package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

// fakeCartStorage backs CartService with maps; one cart per user.
type fakeCartStorage struct {
	products map[int64]models.Product
	carts    map[int64]int64           // user id -> cart id
	items    map[int64]map[int64]int64 // cart id -> product id -> qty
	nextCart int64
}

func newFakeCartStorage(products ...models.Product) *fakeCartStorage {
	f := &fakeCartStorage{
		products: make(map[int64]models.Product),
		carts:    make(map[int64]int64),
		items:    make(map[int64]map[int64]int64),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCartStorage) ListProducts(context.Context) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCartStorage) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeCartStorage) CreateProduct(_ context.Context, p models.Product) (*models.Product, error) {
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeCartStorage) UpdateProduct(_ context.Context, p models.Product) (*models.Product, error) {
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeCartStorage) DeleteProduct(_ context.Context, id int64) error {
	delete(f.products, id)
	return nil
}

func (f *fakeCartStorage) EnsureCart(_ context.Context, userID int64) (int64, error) {
	if id, ok := f.carts[userID]; ok {
		return id, nil
	}
	f.nextCart++
	f.carts[userID] = f.nextCart
	f.items[f.nextCart] = make(map[int64]int64)
	return f.nextCart, nil
}

func (f *fakeCartStorage) ListCartItems(_ context.Context, cartID int64) ([]models.CartItem, error) {
	out := []models.CartItem{}
	for productID, qty := range f.items[cartID] {
		p := f.products[productID]
		out = append(out, models.CartItem{
			ID: productID, Qty: qty, ProductID: productID,
			Name: p.Name, PriceCents: p.PriceCents, Stock: p.Stock,
		})
	}
	return out, nil
}

func (f *fakeCartStorage) GetCartItemQty(_ context.Context, cartID, productID int64) (int64, error) {
	return f.items[cartID][productID], nil
}

func (f *fakeCartStorage) UpsertCartItem(_ context.Context, cartID, productID, qty int64) error {
	f.items[cartID][productID] += qty
	return nil
}

func (f *fakeCartStorage) DeleteCartItem(_ context.Context, itemID int64) error {
	for _, items := range f.items {
		delete(items, itemID)
	}
	return nil
}

func (f *fakeCartStorage) ClearCart(_ context.Context, cartID int64) error {
	f.items[cartID] = make(map[int64]int64)
	return nil
}

func int64p(v int64) *int64 { return &v }

func TestAddItemClampsToStock(t *testing.T) {
	st := newFakeCartStorage(models.Product{ID: 1, Name: "Mug", Stock: int64p(3)})
	cart := NewCartService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	res, err := cart.AddItem(ctx, 1, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Added)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, int64(0), *res.Remaining)

	// Cart is full; another add reports sold out.
	_, err = cart.AddItem(ctx, 1, 1, 1)
	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestAddItemUnlimitedStock(t *testing.T) {
	st := newFakeCartStorage(models.Product{ID: 1, Name: "Ebook"})
	cart := NewCartService(st, zap.NewNop().Sugar())

	res, err := cart.AddItem(context.Background(), 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Added)
	assert.Nil(t, res.Remaining)
}

func TestAddItemUnknownProduct(t *testing.T) {
	cart := NewCartService(newFakeCartStorage(), zap.NewNop().Sugar())

	_, err := cart.AddItem(context.Background(), 1, 99, 1)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
}

func TestGuestAddClampsToStock(t *testing.T) {
	st := newFakeCartStorage(models.Product{ID: 2, Name: "Poster", Stock: int64p(2)})
	cart := NewCartService(st, zap.NewNop().Sugar())

	items, res, err := cart.GuestAdd(context.Background(), nil, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Added)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Qty)
}

func TestGuestDetailSkipsMissingProducts(t *testing.T) {
	st := newFakeCartStorage(models.Product{ID: 1, Name: "Mug", PriceCents: 900})
	cart := NewCartService(st, zap.NewNop().Sugar())

	detailed, err := cart.GuestDetail(context.Background(), []models.GuestCartItem{
		{ProductID: 1, Qty: 2},
		{ProductID: 404, Qty: 1},
	})
	require.NoError(t, err)
	require.Len(t, detailed, 1)
	assert.Equal(t, int64(-1), detailed[0].ID)
	assert.Equal(t, int64(2), detailed[0].Qty)
}

func TestMergeGuestCartSkipsWhatNoLongerFits(t *testing.T) {
	st := newFakeCartStorage(
		models.Product{ID: 1, Name: "Mug", Stock: int64p(1)},
		models.Product{ID: 2, Name: "Gone", Stock: int64p(0)},
	)
	cart := NewCartService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	n, err := cart.MergeGuestCart(ctx, 7, []models.GuestCartItem{
		{ProductID: 1, Qty: 5},
		{ProductID: 2, Qty: 1},
		{ProductID: 404, Qty: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	items, err := cart.GetCart(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, int64(1), items[0].Qty)
}
