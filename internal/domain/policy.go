package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common validation errors for Policy
var (
	ErrEmptyPolicyNumber       = fmt.Errorf("%w: policy number cannot be empty", ErrValidation)
	ErrPolicyEndBeforeStart    = fmt.Errorf("%w: policy end date must be after start date", ErrValidation)
	ErrEmptyPolicyUserID       = fmt.Errorf("%w: policy user is required", ErrValidation)
	ErrEmptyPolicyCategoryID   = fmt.Errorf("%w: policy category is required", ErrValidation)
	ErrEmptyPolicyCarrierID    = fmt.Errorf("%w: policy carrier is required", ErrValidation)
	ErrNegativePremium         = fmt.Errorf("%w: premium amount cannot be negative", ErrValidation)
	ErrNegativeCoverage        = fmt.Errorf("%w: coverage amount cannot be negative", ErrValidation)
	ErrInvalidPolicyStatus     = fmt.Errorf("%w: invalid policy status", ErrValidation)
	ErrInvalidPaymentFrequency = fmt.Errorf("%w: invalid payment frequency", ErrValidation)
)

// Policy is an insurance contract held by a user, written by a carrier in a
// category and optionally sold by an agent.
type Policy struct {
	ID                  uuid.UUID        `json:"id"`
	PolicyNumber        string           `json:"policy_number"`
	StartDate           time.Time        `json:"policy_start_date"`
	EndDate             time.Time        `json:"policy_end_date"`
	UserID              uuid.UUID        `json:"user_id"`
	CategoryID          uuid.UUID        `json:"category_id"`
	CarrierID           uuid.UUID        `json:"carrier_id"`
	AgentID             *uuid.UUID       `json:"agent_id,omitempty"`
	CollectionID        string           `json:"collection_id,omitempty"`
	CompanyCollectionID string           `json:"company_collection_id,omitempty"`
	PremiumAmount       decimal.Decimal  `json:"premium_amount"`
	CoverageAmount      decimal.Decimal  `json:"coverage_amount"`
	Status              PolicyStatus     `json:"status"`
	PaymentFrequency    PaymentFrequency `json:"payment_frequency"`
	IsActive            bool             `json:"is_active"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// PolicyDetails carries the caller-supplied attributes of a new Policy.
// Zero Status and PaymentFrequency default to Active and Monthly.
type PolicyDetails struct {
	PolicyNumber        string
	StartDate           time.Time
	EndDate             time.Time
	UserID              uuid.UUID
	CategoryID          uuid.UUID
	CarrierID           uuid.UUID
	AgentID             *uuid.UUID
	CollectionID        string
	CompanyCollectionID string
	PremiumAmount       decimal.Decimal
	CoverageAmount      decimal.Decimal
	Status              PolicyStatus
	PaymentFrequency    PaymentFrequency
}

// NewPolicy creates an active Policy from the given details.
func NewPolicy(d PolicyDetails) (*Policy, error) {
	status := d.Status
	if status == "" {
		status = PolicyStatusActive
	}
	frequency := d.PaymentFrequency
	if frequency == "" {
		frequency = PaymentFrequencyMonthly
	}

	now := time.Now().UTC()
	policy := &Policy{
		ID:                  uuid.New(),
		PolicyNumber:        strings.TrimSpace(d.PolicyNumber),
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		UserID:              d.UserID,
		CategoryID:          d.CategoryID,
		CarrierID:           d.CarrierID,
		AgentID:             d.AgentID,
		CollectionID:        d.CollectionID,
		CompanyCollectionID: d.CompanyCollectionID,
		PremiumAmount:       d.PremiumAmount,
		CoverageAmount:      d.CoverageAmount,
		Status:              status,
		PaymentFrequency:    frequency,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return policy, nil
}

// Validate checks if the Policy has valid data.
func (p *Policy) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyID
	}
	if p.PolicyNumber == "" {
		return ErrEmptyPolicyNumber
	}
	if !p.EndDate.After(p.StartDate) {
		return ErrPolicyEndBeforeStart
	}
	if p.UserID == uuid.Nil {
		return ErrEmptyPolicyUserID
	}
	if p.CategoryID == uuid.Nil {
		return ErrEmptyPolicyCategoryID
	}
	if p.CarrierID == uuid.Nil {
		return ErrEmptyPolicyCarrierID
	}
	if p.PremiumAmount.IsNegative() {
		return ErrNegativePremium
	}
	if p.CoverageAmount.IsNegative() {
		return ErrNegativeCoverage
	}
	if !p.Status.IsValid() {
		return ErrInvalidPolicyStatus
	}
	if !p.PaymentFrequency.IsValid() {
		return ErrInvalidPaymentFrequency
	}
	return nil
}
