package postgres

import (
	"context"
	"database/sql"
)

// Storage composes the per-table repositories over one *sql.DB. The
// multi-statement flows (checkout, cancellation, status transitions, course
// progress) open their own transactions and rebuild the repositories on the
// tx handle.
type Storage struct {
	db *sql.DB
	*UserRepository
	*SessionRepository
	*ProductRepository
	*CartRepository
	*OrderRepository
	*CourseRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                db,
		UserRepository:    NewUserRepository(db),
		SessionRepository: NewSessionRepository(db),
		ProductRepository: NewProductRepository(db),
		CartRepository:    NewCartRepository(db),
		OrderRepository:   NewOrderRepository(db),
		CourseRepository:  NewCourseRepository(db),
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
