package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for PolicyCategory and PolicyCarrier
var (
	ErrEmptyCategoryName = fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	ErrEmptyCarrierName  = fmt.Errorf("%w: carrier company name cannot be empty", ErrValidation)
)

// PolicyCategory groups policies by product line (Health, Auto, ...).
type PolicyCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"category_name"`
	Description string    `json:"description,omitempty"`
	Code        *string   `json:"category_code,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPolicyCategory creates an active category with the given name.
func NewPolicyCategory(name string) (*PolicyCategory, error) {
	now := time.Now().UTC()
	category := &PolicyCategory{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the PolicyCategory has valid data.
func (c *PolicyCategory) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// CarrierContact holds the contact channels of a carrier.
type CarrierContact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// PolicyCarrier is the insurance company underwriting a policy.
type PolicyCarrier struct {
	ID            uuid.UUID      `json:"id"`
	CompanyName   string         `json:"company_name"`
	Code          *string        `json:"company_code,omitempty"`
	Address       Address        `json:"address"`
	Contact       CarrierContact `json:"contact_info"`
	LicenseNumber string         `json:"license_number,omitempty"`
	IsActive      bool           `json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewPolicyCarrier creates an active carrier with the given company name.
func NewPolicyCarrier(companyName string) (*PolicyCarrier, error) {
	now := time.Now().UTC()
	carrier := &PolicyCarrier{
		ID:          uuid.New(),
		CompanyName: strings.TrimSpace(companyName),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := carrier.Validate(); err != nil {
		return nil, err
	}

	return carrier, nil
}

// Validate checks if the PolicyCarrier has valid data.
func (c *PolicyCarrier) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyID
	}
	if c.CompanyName == "" {
		return ErrEmptyCarrierName
	}
	if c.Contact.Email != "" && !IsValidEmail(c.Contact.Email) {
		return ErrInvalidEmail
	}
	return nil
}
