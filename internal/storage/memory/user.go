package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

type InMemoryUserManager struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]models.User
}

func NewUserRepository() *InMemoryUserManager {
	return &InMemoryUserManager{users: make(map[int64]models.User)}
}

func (m *InMemoryUserManager) CreateUser(_ context.Context, email, passwordHash, fullname string, isAdmin bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	user := models.User{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Fullname:     fullname,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.ID] = user
	return &user, nil
}

func (m *InMemoryUserManager) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *InMemoryUserManager) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *InMemoryUserManager) UpdateFullname(_ context.Context, id int64, fullname string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	u.Fullname = fullname
	m.users[id] = u
	return &u, nil
}

func (m *InMemoryUserManager) SearchUsers(_ context.Context, q string, limit int) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []models.User{}
	for _, u := range m.users {
		if len(users) >= limit {
			break
		}
		if q == "" ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(q)) ||
			strings.Contains(strings.ToLower(u.Fullname), strings.ToLower(q)) {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *InMemoryUserManager) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, id)
	return nil
}

func (m *InMemoryUserManager) SetAdmin(_ context.Context, id int64, isAdmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	m.users[id] = u
	return nil
}
