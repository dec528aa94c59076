package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// UserSchema represents the users table schema in PostgreSQL
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Email       string    `bun:"email,notnull,unique" json:"email"`
	FirstName   string    `bun:"first_name,notnull" json:"first_name"`
	LastName    string    `bun:"last_name,notnull" json:"last_name"`
	BirthDate   time.Time `bun:"birth_date,notnull,type:date" json:"birth_date"`
	Address     *string   `bun:"address" json:"address,omitempty"`
	PhoneNumber *string   `bun:"phone_number" json:"phone_number,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// PostgresStore implements the UserStore interface with PostgreSQL storage
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// GetUser retrieves a user by id, returning nil when no row matches
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var schema UserSchema
	err := s.db.NewSelect().
		Model(&schema).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return schemaToUser(schema), nil
}

// EmailExists reports whether any user row has exactly this email
func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*UserSchema)(nil)).
		Where("email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// CreateUser inserts a new user row and returns the user with its assigned id.
// A unique-constraint violation on email is reported as the duplicated email
// domain error so that concurrent creates racing past the service-level check
// still fail the same way.
func (s *PostgresStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	schema := userToSchema(user)
	schema.CreatedAt = time.Now()
	schema.UpdatedAt = time.Now()

	_, err := s.db.NewInsert().
		Model(&schema).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isUniqueEmailViolation(err) {
			return nil, NewDuplicatedEmailError()
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return schemaToUser(schema), nil
}

// UpdateUser overwrites the row matching user.ID with the given values
func (s *PostgresStore) UpdateUser(ctx context.Context, user *User) (*User, error) {
	schema := userToSchema(user)
	schema.UpdatedAt = time.Now()

	result, err := s.db.NewUpdate().
		Model(&schema).
		Column("email", "first_name", "last_name", "birth_date", "address", "phone_number", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueEmailViolation(err) {
			return nil, NewDuplicatedEmailError()
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, NewUserNotFoundError(user.ID)
	}

	return schemaToUser(schema), nil
}

// DeleteUser removes the user row permanently
func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.NewDelete().
		Model((*UserSchema)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return NewUserNotFoundError(id)
	}

	return nil
}

// SearchByBirthDateRange returns users with birth_date within [start, end] inclusive
func (s *PostgresStore) SearchByBirthDateRange(ctx context.Context, start, end Date) ([]*User, error) {
	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Where("birth_date >= ?", start.Time).
		Where("birth_date <= ?", end.Time).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search users by birth date: %w", err)
	}

	found := make([]*User, 0, len(schemas))
	for _, schema := range schemas {
		found = append(found, schemaToUser(schema))
	}

	return found, nil
}

func isUniqueEmailViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
		strings.Contains(err.Error(), "users_email_key") ||
		strings.Contains(err.Error(), "idx_users_email")
}

// Helper conversion functions
func schemaToUser(schema UserSchema) *User {
	return &User{
		ID:          schema.ID,
		Email:       schema.Email,
		FirstName:   schema.FirstName,
		LastName:    schema.LastName,
		BirthDate:   DateOf(schema.BirthDate),
		Address:     schema.Address,
		PhoneNumber: schema.PhoneNumber,
	}
}

func userToSchema(user *User) UserSchema {
	return UserSchema{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		BirthDate:   user.BirthDate.Time,
		Address:     user.Address,
		PhoneNumber: user.PhoneNumber,
	}
}
