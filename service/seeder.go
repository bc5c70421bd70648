package service

import (
	"context"
	"errors"
	"fmt"
	"jwt-auth-api/logger"
	"jwt-auth-api/model"
	"jwt-auth-api/repository"
)

// PasswordHasher produces the stored hash for a new password.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

var defaultUsers = []struct {
	Email string
	Role  model.Role
}{
	{Email: "user@example.com", Role: model.RoleUser},
	{Email: "admin@example.com", Role: model.RoleAdmin},
}

// UserSeeder creates the demo accounts on an empty database.
type UserSeeder struct {
	users    repository.IUserRepository
	hasher   PasswordHasher
	password string
}

func NewUserSeeder(users repository.IUserRepository, hasher PasswordHasher, password string) *UserSeeder {
	return &UserSeeder{users: users, hasher: hasher, password: password}
}

// Seed creates every missing default user. Existing users are left alone.
func (s *UserSeeder) Seed(ctx context.Context) error {
	for _, u := range defaultUsers {
		_, err := s.users.FindByEmail(ctx, u.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("could not check seed user %s: %w", u.Email, err)
		}

		hash, err := s.hasher.HashPassword(s.password)
		if err != nil {
			return fmt.Errorf("could not hash seed password: %w", err)
		}
		user := &model.User{Email: u.Email, PasswordHash: hash, Role: u.Role}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return fmt.Errorf("could not create seed user %s: %w", u.Email, err)
		}
		logger.Log.WithField("email", u.Email).Info("Seeded user")
	}
	return nil
}
