package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Store errors
var (
	ErrUserExists   = errors.New("user with this phone number already exists")
	ErrBadLogin     = errors.New("invalid phone or password")
	ErrUserNotFound = errors.New("user not found")
)

// User is one registered account.
type User struct {
	ID    int64
	Phone string
}

// UserStore keeps accounts in Redis, keyed by phone number.
type UserStore struct {
	rdb *redis.Client
}

// NewUserStore creates a user store.
func NewUserStore(rdb *redis.Client) *UserStore {
	return &UserStore{rdb: rdb}
}

func userKey(phone string) string {
	return "user:" + phone
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserStore) Register(ctx context.Context, phone, password string) (*User, error) {
	exists, err := s.rdb.Exists(ctx, userKey(phone)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.rdb.Incr(ctx, "user:next_id").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate user id: %w", err)
	}

	if err := s.rdb.HSet(ctx, userKey(phone), "id", id, "password", string(hash)).Err(); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return &User{ID: id, Phone: phone}, nil
}

// Authenticate checks phone and password, returning the account on match.
func (s *UserStore) Authenticate(ctx context.Context, phone, password string) (*User, error) {
	fields, err := s.rdb.HGetAll(ctx, userKey(phone)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrBadLogin
	}

	if bcrypt.CompareHashAndPassword([]byte(fields["password"]), []byte(password)) != nil {
		return nil, ErrBadLogin
	}

	var id int64
	if _, err := fmt.Sscan(fields["id"], &id); err != nil {
		return nil, fmt.Errorf("corrupt user record for %s: %w", phone, err)
	}
	return &User{ID: id, Phone: phone}, nil
}

// ChangePassword replaces the password of an existing account.
func (s *UserStore) ChangePassword(ctx context.Context, phone, newPassword string) error {
	exists, err := s.rdb.Exists(ctx, userKey(phone)).Result()
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.rdb.HSet(ctx, userKey(phone), "password", string(hash)).Err(); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
