package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a mutex-guarded in-memory UserStore. It enforces the same unique
// email constraint the Postgres schema does, so the constraint backstop path is
// exercised too.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*User
}

func newMemStore() *memStore {
	return &memStore{
		nextID: 1,
		byID:   make(map[int64]*User),
	}
}

func (s *memStore) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == user.Email {
			return nil, NewDuplicatedEmailError()
		}
	}
	copied := *user
	copied.ID = s.nextID
	s.nextID++
	s.byID[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (s *memStore) UpdateUser(ctx context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return nil, NewUserNotFoundError(user.ID)
	}
	for id, u := range s.byID {
		if id != user.ID && u.Email == user.Email {
			return nil, NewDuplicatedEmailError()
		}
	}
	copied := *user
	s.byID[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (s *memStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return NewUserNotFoundError(id)
	}
	delete(s.byID, id)
	return nil
}

func (s *memStore) SearchByBirthDateRange(ctx context.Context, start, end Date) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*User
	for _, u := range s.byID {
		if !start.After(u.BirthDate) && !u.BirthDate.After(end) {
			copied := *u
			found = append(found, &copied)
		}
	}
	return found, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// newTestService returns a service over a fresh in-memory store with minAge 18
// and the clock pinned to 2024-01-01.
func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(store, 18)
	svc.now = func() time.Time {
		return time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, store
}

func strPtr(s string) *string {
	return &s
}

func datePtr(year int, month time.Month, day int) *Date {
	d := NewDate(year, month, day)
	return &d
}

func validCreateRequest() *CreateUserRequest {
	return &CreateUserRequest{
		Email:       "john.doe@test.com",
		FirstName:   "John",
		LastName:    "Doe",
		BirthDate:   datePtr(2000, time.January, 1),
		Address:     strPtr("123 Street"),
		PhoneNumber: strPtr("1234567890"),
	}
}

func requireErrorType(t *testing.T, err error, errorType string) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := AsError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	assert.Equal(t, errorType, domainErr.Type)
}

func TestCreateUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	user, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "john.doe@test.com", user.Email)
	assert.Equal(t, "John", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, NewDate(2000, time.January, 1), user.BirthDate)
	require.NotNil(t, user.Address)
	assert.Equal(t, "123 Street", *user.Address)
	require.NotNil(t, user.PhoneNumber)
	assert.Equal(t, "1234567890", *user.PhoneNumber)
	assert.Equal(t, 1, store.count())
}

func TestCreateUserWithoutOptionalFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.Address = nil
	req.PhoneNumber = nil

	user, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, user.Address)
	assert.Nil(t, user.PhoneNumber)
}

func TestCreateUserDuplicatedEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	second := validCreateRequest()
	second.FirstName = "Jane"
	_, err = svc.CreateUser(ctx, second)
	requireErrorType(t, err, ErrorTypeDuplicatedEmail)
	assert.Equal(t, 1, store.count())
}

func TestCreateUserBirthDateValidation(t *testing.T) {
	// minAge 18, today pinned to 2024-01-01
	tests := []struct {
		name      string
		birthDate Date
		errorType string
	}{
		{"exactly min age today", NewDate(2006, time.January, 1), ""},
		{"one day short of min age", NewDate(2006, time.January, 2), ErrorTypeUnderage},
		{"well under min age", NewDate(2006, time.June, 1), ErrorTypeUnderage},
		{"future date", NewDate(2025, time.January, 1), ErrorTypeFutureBirthDate},
		{"tomorrow", NewDate(2024, time.January, 2), ErrorTypeFutureBirthDate},
		{"well over min age", NewDate(1990, time.March, 15), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			req := validCreateRequest()
			req.BirthDate = &tt.birthDate

			_, err := svc.CreateUser(context.Background(), req)
			if tt.errorType == "" {
				assert.NoError(t, err)
			} else {
				requireErrorType(t, err, tt.errorType)
			}
		})
	}
}

func TestCreateUserZeroMinAge(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 0)
	svc.now = func() time.Time {
		return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	req := validCreateRequest()
	req.BirthDate = datePtr(2024, time.January, 1)

	_, err := svc.CreateUser(context.Background(), req)
	assert.NoError(t, err)
}

func TestUpdateAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	req := &CreateUserRequest{
		Email:     "jane.doe@test.com",
		FirstName: "Jane",
		LastName:  "Doe",
		BirthDate: datePtr(1995, time.May, 20),
	}
	updated, err := svc.UpdateAll(ctx, created.ID, req)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "jane.doe@test.com", updated.Email)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, NewDate(1995, time.May, 20), updated.BirthDate)
	// full replace overwrites optional fields even when absent
	assert.Nil(t, updated.Address)
	assert.Nil(t, updated.PhoneNumber)
}

func TestUpdateAllNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateAll(context.Background(), 42, validCreateRequest())
	requireErrorType(t, err, ErrorTypeNotFound)
}

func TestUpdateAllDuplicatedEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	// the uniqueness check runs against all stored emails, own included
	_, err = svc.UpdateAll(ctx, created.ID, validCreateRequest())
	requireErrorType(t, err, ErrorTypeDuplicatedEmail)
}

func TestUpdateAllFutureBirthDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	req := validCreateRequest()
	req.Email = "other@test.com"
	req.BirthDate = datePtr(2030, time.January, 1)

	_, err = svc.UpdateAll(ctx, created.ID, req)
	requireErrorType(t, err, ErrorTypeFutureBirthDate)
}

func TestUpdateFieldsSingleField(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		FirstName: strPtr("Jane"),
	})
	require.NoError(t, err)

	// only firstName changes, everything else keeps its prior value
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.LastName, updated.LastName)
	assert.Equal(t, created.BirthDate, updated.BirthDate)
	assert.Equal(t, created.Address, updated.Address)
	assert.Equal(t, created.PhoneNumber, updated.PhoneNumber)
}

func TestUpdateFieldsAllNil(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, created, updated)
}

func TestUpdateFieldsNilEmailKeepsStored(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.Email = "old@x.com"
	created, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)

	updated, err := svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		FirstName: strPtr("Jane"),
	})
	require.NoError(t, err)
	assert.Equal(t, "old@x.com", updated.Email)
	assert.Equal(t, "Jane", updated.FirstName)
}

func TestUpdateFieldsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateFields(context.Background(), 42, &UpdateUserRequest{
		Email: strPtr("new@test.com"),
	})
	requireErrorType(t, err, ErrorTypeNotFound)
}

func TestUpdateFieldsDuplicatedEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	// setting the email to its own current value still runs the duplicate
	// check against stored emails, so it fails
	_, err = svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		Email: strPtr(created.Email),
	})
	requireErrorType(t, err, ErrorTypeDuplicatedEmail)
}

func TestUpdateFieldsUnderage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		BirthDate: datePtr(2020, time.January, 1),
	})
	requireErrorType(t, err, ErrorTypeUnderage)
}

func TestUpdateFieldsFutureBirthDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		BirthDate: datePtr(2030, time.January, 1),
	})
	requireErrorType(t, err, ErrorTypeFutureBirthDate)
}

func TestUpdateFieldsShortCircuit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	second := validCreateRequest()
	second.Email = "other@test.com"
	created, err := svc.CreateUser(ctx, second)
	require.NoError(t, err)

	// email duplicates an existing user, so the firstName later in the
	// sequence must not be applied either
	_, err = svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		Email:     strPtr(first.Email),
		FirstName: strPtr("Changed"),
	})
	requireErrorType(t, err, ErrorTypeDuplicatedEmail)

	stored, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "other@test.com", stored.Email)
	assert.Equal(t, "John", stored.FirstName)
}

func TestUpdateFieldsBirthDateFailureKeepsLaterFields(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	// birthDate fails, so address and phoneNumber after it stay untouched
	_, err = svc.UpdateFields(ctx, created.ID, &UpdateUserRequest{
		BirthDate: datePtr(2030, time.January, 1),
		Address:   strPtr("456 Avenue"),
	})
	requireErrorType(t, err, ErrorTypeFutureBirthDate)

	stored, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Address, stored.Address)
	assert.Equal(t, created.BirthDate, stored.BirthDate)
}

func TestDeleteUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, created.ID))
	assert.Equal(t, 0, store.count())
}

func TestDeleteUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteUser(context.Background(), 42)
	requireErrorType(t, err, ErrorTypeNotFound)
}

func TestSearchByBirthDateRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dates := []Date{
		NewDate(1990, time.January, 1),
		NewDate(1995, time.June, 15),
		NewDate(2000, time.December, 31),
	}
	for i, d := range dates {
		req := validCreateRequest()
		req.Email = string(rune('a'+i)) + "@test.com"
		birthDate := d
		req.BirthDate = &birthDate
		_, err := svc.CreateUser(ctx, req)
		require.NoError(t, err)
	}

	// bounds are inclusive on both ends
	found, err := svc.SearchByBirthDateRange(ctx, NewDate(1990, time.January, 1), NewDate(1995, time.June, 15))
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.SearchByBirthDateRange(ctx, NewDate(1991, time.January, 1), NewDate(1994, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, found, 0)

	found, err = svc.SearchByBirthDateRange(ctx, NewDate(1980, time.January, 1), NewDate(2005, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestSearchByBirthDateRangeSameDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, validCreateRequest())
	require.NoError(t, err)

	found, err := svc.SearchByBirthDateRange(ctx, NewDate(2000, time.January, 1), NewDate(2000, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSearchByBirthDateRangeInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SearchByBirthDateRange(context.Background(), NewDate(2000, time.January, 2), NewDate(2000, time.January, 1))
	requireErrorType(t, err, ErrorTypeInvalidDateRange)
}
