package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Agent
var (
	ErrEmptyAgentName   = fmt.Errorf("%w: agent name cannot be empty", ErrValidation)
	ErrAgentNameTooLong = fmt.Errorf("%w: agent name must be at most 255 characters", ErrValidation)
)

// Agent is the sales agent attached to a policy. Agents are identified by
// name; ExternalID is an optional secondary identifier from upstream systems.
type Agent struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"agent_name"`
	ExternalID *string   `json:"agent_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Department string    `json:"department,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewAgent creates an active Agent with the given name.
func NewAgent(name string) (*Agent, error) {
	now := time.Now().UTC()
	agent := &Agent{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := agent.Validate(); err != nil {
		return nil, err
	}

	return agent, nil
}

// Validate checks if the Agent has valid data.
func (a *Agent) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyID
	}
	if a.Name == "" {
		return ErrEmptyAgentName
	}
	if len(a.Name) > 255 {
		return ErrAgentNameTooLong
	}
	if a.Email != "" && !IsValidEmail(a.Email) {
		return ErrInvalidEmail
	}
	return nil
}
