package users

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// matches the local-part@domain form with a two to six letter lowercase TLD,
// or the empty string
var emailPattern = regexp.MustCompile(`^([^ ]+@[^ ]+\.[a-z]{2,6}|)$`)

// Date is a calendar date with day granularity. It marshals to and from the
// ISO YYYY-MM-DD form used on the wire and in query parameters.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to day granularity.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected format %s", s, dateLayout)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// AddYears returns the date years whole years after d.
func (d Date) AddYears(years int) Date {
	return DateOf(d.AddDate(years, 0, 0))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User represents a stored user record
type User struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	BirthDate   Date    `json:"birthDate"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
}

// CreateUserRequest is the payload for creating a user and for full-replace
// updates. Address and phone number are optional.
type CreateUserRequest struct {
	Email       string  `json:"email"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	BirthDate   *Date   `json:"birthDate"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Validate checks required fields and the email pattern. It returns a map of
// field name to message for every violation, or nil when the payload is valid.
func (r *CreateUserRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "The 'email' cannot be empty"
	} else if !emailPattern.MatchString(r.Email) {
		errs["email"] = "The 'email' must be a well-formed email address"
	}
	if strings.TrimSpace(r.FirstName) == "" {
		errs["firstName"] = "The 'firstName' cannot be empty"
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs["lastName"] = "The 'lastName' cannot be empty"
	}
	if r.BirthDate == nil {
		errs["birthDate"] = "The 'birthDate' cannot be null"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// UpdateUserRequest is the payload for partial updates. Nil fields are left
// unchanged on the stored user.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	BirthDate   *Date   `json:"birthDate"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Validate checks the email pattern when an email is present. Absent fields
// carry no constraints.
func (r *UpdateUserRequest) Validate() map[string]string {
	if r.Email != nil && !emailPattern.MatchString(*r.Email) {
		return map[string]string{"email": "The 'email' must be a well-formed email address"}
	}
	return nil
}
