package service

import (
	"context"
	"jwt-auth-api/model"
	"jwt-auth-api/repository"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

var ctxBG = context.Background()

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Save(ctx context.Context, record *model.RefreshTokenRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *mockTokenRepo) FindByHash(ctx context.Context, hash string) (*model.RefreshTokenRecord, error) {
	args := m.Called(ctx, hash)
	record, _ := args.Get(0).(*model.RefreshTokenRecord)
	return record, args.Error(1)
}
func (m *mockTokenRepo) Revoke(ctx context.Context, record *model.RefreshTokenRecord, at time.Time) (bool, error) {
	args := m.Called(ctx, record, at)
	return args.Bool(0), args.Error(1)
}
func (m *mockTokenRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// memoryUsers is a read-mostly user store for tests that need real concurrency.
type memoryUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[int64]*model.User{}}
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memoryUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	copied := *user
	m.byID[user.ID] = &copied
	return nil
}

func (m *memoryUsers) delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}
