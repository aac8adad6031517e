package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

// Admin user creation reports duplicates with different wording than signup.
var ErrEmailExists = errors.New("Email already exists")

const userSearchLimit = 100

type UserService struct {
	users storage.UserRepository
	log   *zap.SugaredLogger
}

func NewUserService(users storage.UserRepository, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) UpdateFullname(ctx context.Context, id int64, fullname string) (*models.User, error) {
	return s.users.UpdateFullname(ctx, id, fullname)
}

// Search accepts a free-text query; a purely numeric query is treated as a
// user id lookup.
func (s *UserService) Search(ctx context.Context, q string) ([]models.User, error) {
	if id, ok := numericQuery(q); ok {
		user, err := s.users.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				return []models.User{}, nil
			}
			return nil, err
		}
		return []models.User{*user}, nil
	}
	return s.users.SearchUsers(ctx, q, userSearchLimit)
}

func (s *UserService) Create(ctx context.Context, email, password, fullname string, isAdmin bool) (*models.User, error) {
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, email, string(hash), fullname, isAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Infow("user created by admin", "user_id", user.ID, "is_admin", isAdmin)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.DeleteUser(ctx, id)
}

func (s *UserService) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return s.users.SetAdmin(ctx, id, isAdmin)
}

func numericQuery(q string) (int64, bool) {
	if q == "" {
		return 0, false
	}
	var id int64
	for _, r := range q {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int64(r-'0')
	}
	return id, true
}
