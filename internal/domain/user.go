package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrEmptyFirstName   = fmt.Errorf("%w: first name cannot be empty", ErrValidation)
	ErrEmptyEmail       = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrEmptyDateOfBirth = fmt.Errorf("%w: date of birth cannot be empty", ErrValidation)
	ErrEmptyPhoneNumber = fmt.Errorf("%w: phone number cannot be empty", ErrValidation)
	ErrEmptyState       = fmt.Errorf("%w: state cannot be empty", ErrValidation)
	ErrEmptyZipCode     = fmt.Errorf("%w: zip code cannot be empty", ErrValidation)
	ErrInvalidGender    = fmt.Errorf("%w: invalid gender", ErrValidation)
	ErrInvalidUserType  = fmt.Errorf("%w: invalid user type", ErrValidation)
)

// DefaultCountry is applied to addresses that do not name a country.
const DefaultCountry = "USA"

// Address is the postal address of a user.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// User is a policy holder. Users are identified by their lower-cased email.
type User struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Address     Address   `json:"address"`
	PhoneNumber string    `json:"phone_number"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zip_code"`
	Email       string    `json:"email"`
	Gender      Gender    `json:"gender"`
	UserType    UserType  `json:"user_type"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserDetails carries the caller-supplied attributes of a new User.
type UserDetails struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Address     Address
	PhoneNumber string
	State       string
	ZipCode     string
	Email       string
	Gender      Gender
	UserType    UserType
}

// NewUser creates an active User from the given details. The email is
// normalized and an empty address country defaults to DefaultCountry.
func NewUser(d UserDetails) (*User, error) {
	now := time.Now().UTC()

	address := d.Address
	if address.Country == "" {
		address.Country = DefaultCountry
	}

	user := &User{
		ID:          uuid.New(),
		FirstName:   strings.TrimSpace(d.FirstName),
		LastName:    strings.TrimSpace(d.LastName),
		DateOfBirth: d.DateOfBirth,
		Address:     address,
		PhoneNumber: strings.TrimSpace(d.PhoneNumber),
		State:       strings.TrimSpace(d.State),
		ZipCode:     strings.TrimSpace(d.ZipCode),
		Email:       NormalizeEmail(d.Email),
		Gender:      d.Gender,
		UserType:    d.UserType,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Placeholder values used by MinimalUser for missing required fields.
var (
	DefaultDateOfBirth = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
	DefaultPhoneNumber = "0000000000"
	DefaultState       = "Unknown"
	DefaultZipCode     = "00000"
	DefaultFirstName   = "Unknown"
)

// MinimalUser builds a User from the required fields of d only, substituting
// placeholders for anything missing and dropping the optional fields. The
// email is kept as given since it is the user's natural key.
func MinimalUser(d UserDetails) (*User, error) {
	minimal := UserDetails{
		FirstName:   strings.TrimSpace(d.FirstName),
		DateOfBirth: d.DateOfBirth,
		PhoneNumber: strings.TrimSpace(d.PhoneNumber),
		State:       strings.TrimSpace(d.State),
		ZipCode:     strings.TrimSpace(d.ZipCode),
		Email:       d.Email,
		Gender:      d.Gender,
		UserType:    d.UserType,
	}
	if minimal.FirstName == "" {
		minimal.FirstName = DefaultFirstName
	}
	if minimal.DateOfBirth.IsZero() {
		minimal.DateOfBirth = DefaultDateOfBirth
	}
	if minimal.PhoneNumber == "" {
		minimal.PhoneNumber = DefaultPhoneNumber
	}
	if minimal.State == "" {
		minimal.State = DefaultState
	}
	if minimal.ZipCode == "" {
		minimal.ZipCode = DefaultZipCode
	}
	if !minimal.Gender.IsValid() {
		minimal.Gender = GenderOther
	}
	if !minimal.UserType.IsValid() {
		minimal.UserType = UserTypeIndividual
	}

	return NewUser(minimal)
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyID
	}
	if u.FirstName == "" {
		return ErrEmptyFirstName
	}
	if u.DateOfBirth.IsZero() {
		return ErrEmptyDateOfBirth
	}
	if u.PhoneNumber == "" {
		return ErrEmptyPhoneNumber
	}
	if u.State == "" {
		return ErrEmptyState
	}
	if u.ZipCode == "" {
		return ErrEmptyZipCode
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !IsValidEmail(u.Email) {
		return ErrInvalidEmail
	}
	if !u.Gender.IsValid() {
		return ErrInvalidGender
	}
	if !u.UserType.IsValid() {
		return ErrInvalidUserType
	}
	return nil
}
