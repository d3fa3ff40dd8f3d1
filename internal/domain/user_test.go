package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUserDetails() UserDetails {
	return UserDetails{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "5551234567",
		State:       "CA",
		ZipCode:     "94105",
		Email:       "  Ada@Example.COM ",
		Gender:      GenderFemale,
		UserType:    UserTypeIndividual,
	}
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser(validUserDetails())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, DefaultCountry, user.Address.Country)
	assert.True(t, user.IsActive)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestNewUser_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(d *UserDetails)
		wantErr error
	}{
		{"missing first name", func(d *UserDetails) { d.FirstName = " " }, ErrEmptyFirstName},
		{"missing dob", func(d *UserDetails) { d.DateOfBirth = time.Time{} }, ErrEmptyDateOfBirth},
		{"missing phone", func(d *UserDetails) { d.PhoneNumber = "" }, ErrEmptyPhoneNumber},
		{"missing state", func(d *UserDetails) { d.State = "" }, ErrEmptyState},
		{"missing zip", func(d *UserDetails) { d.ZipCode = "" }, ErrEmptyZipCode},
		{"missing email", func(d *UserDetails) { d.Email = "" }, ErrEmptyEmail},
		{"malformed email", func(d *UserDetails) { d.Email = "not-an-email" }, ErrInvalidEmail},
		{"bad gender", func(d *UserDetails) { d.Gender = "Unknown" }, ErrInvalidGender},
		{"bad user type", func(d *UserDetails) { d.UserType = "" }, ErrInvalidUserType},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := validUserDetails()
			tt.mutate(&d)

			user, err := NewUser(d)

			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestNewUserAccount(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	account, err := NewUserAccount(" Savings ", userID)
	require.NoError(t, err)
	assert.Equal(t, "Savings", account.AccountName)
	assert.Equal(t, AccountTypePrimary, account.AccountType)

	_, err = NewUserAccount("", userID)
	assert.ErrorIs(t, err, ErrEmptyAccountName)

	_, err = NewUserAccount("Savings", uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyAccountUserID)
}

func TestNewAgentCategoryCarrier(t *testing.T) {
	t.Parallel()

	agent, err := NewAgent(" Jane Broker ")
	require.NoError(t, err)
	assert.Equal(t, "Jane Broker", agent.Name)

	_, err = NewAgent("")
	assert.ErrorIs(t, err, ErrEmptyAgentName)

	category, err := NewPolicyCategory("Health")
	require.NoError(t, err)
	assert.Equal(t, "Health", category.Name)

	_, err = NewPolicyCategory("  ")
	assert.ErrorIs(t, err, ErrEmptyCategoryName)

	carrier, err := NewPolicyCarrier("Acme Mutual")
	require.NoError(t, err)
	assert.Equal(t, "Acme Mutual", carrier.CompanyName)

	_, err = NewPolicyCarrier("")
	assert.ErrorIs(t, err, ErrEmptyCarrierName)
}

func TestMinimalUser(t *testing.T) {
	t.Parallel()

	user, err := MinimalUser(UserDetails{
		LastName: "Lovelace",
		Email:    "Ada@Example.com",
		Gender:   Gender("unknown"),
		Address:  Address{Street: "1 Main St"},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultFirstName, user.FirstName)
	assert.Empty(t, user.LastName)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.True(t, user.DateOfBirth.Equal(DefaultDateOfBirth))
	assert.Equal(t, DefaultPhoneNumber, user.PhoneNumber)
	assert.Equal(t, DefaultState, user.State)
	assert.Equal(t, DefaultZipCode, user.ZipCode)
	assert.Equal(t, GenderOther, user.Gender)
	assert.Equal(t, UserTypeIndividual, user.UserType)
	assert.Empty(t, user.Address.Street)

	_, err = MinimalUser(UserDetails{Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}
