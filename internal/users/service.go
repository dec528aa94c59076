package users

import (
	"context"
	"fmt"
	"time"
)

// Service implements the UserService interface
type Service struct {
	store  UserStore
	minAge int
	now    func() time.Time
}

// NewService creates a new user service. minAge is the minimum age in whole
// years a user must have reached, evaluated against the current date.
func NewService(store UserStore, minAge int) *Service {
	return &Service{
		store:  store,
		minAge: minAge,
		now:    time.Now,
	}
}

// CreateUser validates the payload and persists a new user
func (s *Service) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if fields := req.Validate(); fields != nil {
		return nil, NewValidationFailedError(fields)
	}
	if err := s.validateEmail(ctx, req.Email); err != nil {
		return nil, err
	}
	if err := s.validateBirthDate(*req.BirthDate); err != nil {
		return nil, err
	}

	user := &User{}
	setUserData(user, req)

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// UpdateAll replaces every field of an existing user with the payload values,
// including address and phone number even when absent
func (s *Service) UpdateAll(ctx context.Context, id int64, req *CreateUserRequest) (*User, error) {
	if fields := req.Validate(); fields != nil {
		return nil, NewValidationFailedError(fields)
	}
	if err := s.validateEmail(ctx, req.Email); err != nil {
		return nil, err
	}
	if err := s.validateBirthDate(*req.BirthDate); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	setUserData(user, req)

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// UpdateFields assigns only the fields present in the payload, validating each
// before assignment. Fields are processed in a fixed order and a validation
// failure stops the remaining assignments. Note that a present email is checked
// for duplicates even when it equals the stored value.
func (s *Service) UpdateFields(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	if fields := req.Validate(); fields != nil {
		return nil, NewValidationFailedError(fields)
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		if err := s.validateEmail(ctx, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.BirthDate != nil {
		if err := s.validateBirthDate(*req.BirthDate); err != nil {
			return nil, err
		}
		user.BirthDate = *req.BirthDate
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// DeleteUser removes a user permanently
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// SearchByBirthDateRange returns all users whose birth date falls within
// [start, end] inclusive
func (s *Service) SearchByBirthDateRange(ctx context.Context, start, end Date) ([]*User, error) {
	if start.After(end) {
		return nil, NewInvalidDateRangeError()
	}

	found, err := s.store.SearchByBirthDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return found, nil
}

func (s *Service) getUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewUserNotFoundError(id)
	}
	return user, nil
}

func (s *Service) validateEmail(ctx context.Context, email string) error {
	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return NewDuplicatedEmailError()
	}
	return nil
}

func (s *Service) validateBirthDate(birthDate Date) error {
	today := DateOf(s.now())
	if birthDate.After(today) {
		return NewFutureBirthDateError()
	}
	if birthDate.AddYears(s.minAge).After(today) {
		return NewUnderageError(s.minAge)
	}
	return nil
}

func setUserData(user *User, req *CreateUserRequest) {
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.BirthDate = *req.BirthDate
	user.Address = req.Address
	user.PhoneNumber = req.PhoneNumber
}
