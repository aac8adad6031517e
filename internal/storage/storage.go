package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/asverdlov/edushop/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrCartEmpty       = errors.New("Cart empty")
)

// InsufficientStockError carries the product detail surfaced to the client
// when checkout finds less stock than the cart asks for.
type InsufficientStockError struct {
	Name  string
	Stock int64
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %d left for %q", e.Stock, e.Name)
}

// DBTX lets the same repository run on *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash, fullname string, isAdmin bool) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateFullname(ctx context.Context, id int64, fullname string) (*models.User, error)
	SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
}

// SessionRepository is the single source of truth for whether a refresh
// token is still usable. Tokens are identified by hash only.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.RefreshSession) error
	IsSessionActive(ctx context.Context, userID int64, tokenHash, sessionID string) (bool, error)
	RevokeSessions(ctx context.Context, userID int64, tokenHash string) (int64, error)
	SweepExpiredSessions(ctx context.Context, maxAge time.Duration) (int64, error)
}

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type CartRepository interface {
	EnsureCart(ctx context.Context, userID int64) (int64, error)
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetCartItemQty(ctx context.Context, cartID, productID int64) (int64, error)
	UpsertCartItem(ctx context.Context, cartID, productID, qty int64) error
	DeleteCartItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context, cartID int64) error
}

type OrderFilter struct {
	Status string
	UserID int64
	Query  string
	Limit  int
	Offset int
}

type OrderRepository interface {
	ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	// Checkout snapshots the cart into a new order inside one transaction,
	// reserving stock along the way.
	Checkout(ctx context.Context, userID int64) (*models.Order, error)
	CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
	SetOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)
}

type CourseRepository interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	CreateCourse(ctx context.Context, title string, description, imageURL *string) (int64, error)
	UpdateCourse(ctx context.Context, c models.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	Enroll(ctx context.Context, userID, courseID int64) (*time.Time, error)
	Unenroll(ctx context.Context, userID, courseID int64) error
	ListEnrollments(ctx context.Context, userID int64) ([]models.Enrollment, error)
	GetEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error)
	RecordProgress(ctx context.Context, userID, courseID int64, moduleIdx, videoIdx int) (*models.CourseProgress, error)
}

type Storage interface {
	UserRepository
	SessionRepository
	ProductRepository
	CartRepository
	OrderRepository
	CourseRepository
	Ping(ctx context.Context) error
}
