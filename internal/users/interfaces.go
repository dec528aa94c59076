package users

import (
	"context"
)

// UserStore defines the interface for user storage operations
type UserStore interface {
	// GetUser returns the user for id, or nil if no such user exists.
	GetUser(ctx context.Context, id int64) (*User, error)
	// EmailExists reports whether any stored user has exactly this email.
	EmailExists(ctx context.Context, email string) (bool, error)
	// CreateUser inserts the user and returns it with the assigned id.
	CreateUser(ctx context.Context, user *User) (*User, error)
	// UpdateUser overwrites the stored record matching user.ID.
	UpdateUser(ctx context.Context, user *User) (*User, error)
	// DeleteUser removes the user permanently.
	DeleteUser(ctx context.Context, id int64) error
	// SearchByBirthDateRange returns users with start <= birthDate <= end.
	SearchByBirthDateRange(ctx context.Context, start, end Date) ([]*User, error)
}

// UserService defines the interface for user service operations
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error)
	UpdateAll(ctx context.Context, id int64, req *CreateUserRequest) (*User, error)
	UpdateFields(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	SearchByBirthDateRange(ctx context.Context, start, end Date) ([]*User, error)
}
