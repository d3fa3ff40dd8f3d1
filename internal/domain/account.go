package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for UserAccount
var (
	ErrEmptyAccountName   = fmt.Errorf("%w: account name cannot be empty", ErrValidation)
	ErrEmptyAccountUserID = fmt.Errorf("%w: account user ID cannot be empty", ErrValidation)
	ErrInvalidAccountType = fmt.Errorf("%w: invalid account type", ErrValidation)
)

// UserAccount is a named account owned by a user. The pair
// (AccountName, UserID) is unique.
type UserAccount struct {
	ID            uuid.UUID   `json:"id"`
	AccountName   string      `json:"account_name"`
	UserID        uuid.UUID   `json:"user_id"`
	AccountNumber *string     `json:"account_number,omitempty"`
	AccountType   AccountType `json:"account_type"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewUserAccount creates a primary account for the given user.
func NewUserAccount(name string, userID uuid.UUID) (*UserAccount, error) {
	now := time.Now().UTC()
	account := &UserAccount{
		ID:          uuid.New(),
		AccountName: strings.TrimSpace(name),
		UserID:      userID,
		AccountType: AccountTypePrimary,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the UserAccount has valid data.
func (a *UserAccount) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyID
	}
	if a.AccountName == "" {
		return ErrEmptyAccountName
	}
	if a.UserID == uuid.Nil {
		return ErrEmptyAccountUserID
	}
	if !a.AccountType.IsValid() {
		return ErrInvalidAccountType
	}
	return nil
}
