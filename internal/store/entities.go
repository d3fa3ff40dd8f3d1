package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
)

// AgentStore persists agents, unique by name.
type AgentStore interface {
	// Create saves a new agent. Returns ErrDuplicate if the name is taken.
	Create(ctx context.Context, agent *domain.Agent) error

	// GetByName returns the agent with the exact name, or ErrAgentNotFound.
	GetByName(ctx context.Context, name string) (*domain.Agent, error)

	// Count returns the number of stored agents.
	Count(ctx context.Context) (int, error)
}

// UserStore persists users, unique by lower-cased email.
type UserStore interface {
	// Create saves a new user. Returns ErrEmailExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail returns the user with the given email, or ErrUserNotFound.
	// The email is normalized before lookup.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Count returns the number of stored users.
	Count(ctx context.Context) (int, error)
}

// UserAccountStore persists user accounts, unique by (account name, user).
type UserAccountStore interface {
	// Create saves a new account. Returns ErrDuplicate if the user already
	// owns an account with the same name.
	Create(ctx context.Context, account *domain.UserAccount) error

	// GetByNameAndUser returns the account or ErrUserAccountNotFound.
	GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.UserAccount, error)

	// Count returns the number of stored accounts.
	Count(ctx context.Context) (int, error)
}

// PolicyCategoryStore persists policy categories, unique by name.
type PolicyCategoryStore interface {
	Create(ctx context.Context, category *domain.PolicyCategory) error
	GetByName(ctx context.Context, name string) (*domain.PolicyCategory, error)
	Count(ctx context.Context) (int, error)
}

// PolicyCarrierStore persists carriers, unique by company name.
type PolicyCarrierStore interface {
	Create(ctx context.Context, carrier *domain.PolicyCarrier) error
	GetByName(ctx context.Context, companyName string) (*domain.PolicyCarrier, error)
	Count(ctx context.Context) (int, error)
}

// PolicyStore persists policies, unique by policy number.
type PolicyStore interface {
	// Create saves a new policy. Returns ErrPolicyNumberExists if the number
	// is taken, or ErrInvalidEntity if a referenced entity does not exist.
	Create(ctx context.Context, policy *domain.Policy) error

	// GetByNumber returns the policy with the given number, or ErrPolicyNotFound.
	GetByNumber(ctx context.Context, policyNumber string) (*domain.Policy, error)

	// Count returns the number of stored policies.
	Count(ctx context.Context) (int, error)
}

// Stores groups the entity stores consumed by the ingestion pipeline.
type Stores struct {
	Agents     AgentStore
	Users      UserStore
	Accounts   UserAccountStore
	Categories PolicyCategoryStore
	Carriers   PolicyCarrierStore
	Policies   PolicyStore
}
