package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// AgentStore implements store.AgentStore.
type AgentStore struct{ db *DB }

var _ store.AgentStore = (*AgentStore)(nil)

func (s *AgentStore) Create(_ context.Context, agent *domain.Agent) error {
	if err := agent.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.agentsByName[agent.Name]; ok {
		return duplicate("agent_name")
	}
	if agent.ExternalID != nil {
		if _, ok := s.db.agentsByExternal[*agent.ExternalID]; ok {
			return duplicate("agent_id")
		}
		s.db.agentsByExternal[*agent.ExternalID] = agent.ID
	}

	s.db.agents[agent.ID] = *agent
	s.db.agentsByName[agent.Name] = agent.ID
	return nil
}

func (s *AgentStore) GetByName(_ context.Context, name string) (*domain.Agent, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.agentsByName[name]
	if !ok {
		return nil, store.ErrAgentNotFound
	}
	agent := s.db.agents[id]
	return &agent, nil
}

func (s *AgentStore) Count(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.agents), nil
}

// UserStore implements store.UserStore.
type UserStore struct{ db *DB }

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.usersByEmail[user.Email]; ok {
		return store.ErrEmailExists
	}

	s.db.users[user.ID] = *user
	s.db.usersByEmail[user.Email] = user.ID
	return nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.usersByEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	user := s.db.users[id]
	return &user, nil
}

func (s *UserStore) Count(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.users), nil
}

// UserAccountStore implements store.UserAccountStore.
type UserAccountStore struct{ db *DB }

var _ store.UserAccountStore = (*UserAccountStore)(nil)

func (s *UserAccountStore) Create(_ context.Context, account *domain.UserAccount) error {
	if err := account.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[account.UserID]; !ok {
		return missingReference("user", account.UserID)
	}

	key := accountKey{name: account.AccountName, userID: account.UserID}
	if _, ok := s.db.accountsByKey[key]; ok {
		return duplicate("account_name, user_id")
	}
	if account.AccountNumber != nil {
		if _, ok := s.db.accountsByNumber[*account.AccountNumber]; ok {
			return duplicate("account_number")
		}
		s.db.accountsByNumber[*account.AccountNumber] = account.ID
	}

	s.db.accounts[account.ID] = *account
	s.db.accountsByKey[key] = account.ID
	return nil
}

func (s *UserAccountStore) GetByNameAndUser(
	_ context.Context,
	name string,
	userID uuid.UUID,
) (*domain.UserAccount, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.accountsByKey[accountKey{name: name, userID: userID}]
	if !ok {
		return nil, store.ErrUserAccountNotFound
	}
	account := s.db.accounts[id]
	return &account, nil
}

func (s *UserAccountStore) Count(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.accounts), nil
}

// PolicyCategoryStore implements store.PolicyCategoryStore.
type PolicyCategoryStore struct{ db *DB }

var _ store.PolicyCategoryStore = (*PolicyCategoryStore)(nil)

func (s *PolicyCategoryStore) Create(_ context.Context, category *domain.PolicyCategory) error {
	if err := category.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.categoriesByName[category.Name]; ok {
		return duplicate("category_name")
	}
	if category.Code != nil {
		if _, ok := s.db.categoriesByCode[*category.Code]; ok {
			return duplicate("category_code")
		}
		s.db.categoriesByCode[*category.Code] = category.ID
	}

	s.db.categories[category.ID] = *category
	s.db.categoriesByName[category.Name] = category.ID
	return nil
}

func (s *PolicyCategoryStore) GetByName(_ context.Context, name string) (*domain.PolicyCategory, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.categoriesByName[name]
	if !ok {
		return nil, store.ErrPolicyCategoryNotFound
	}
	category := s.db.categories[id]
	return &category, nil
}

func (s *PolicyCategoryStore) Count(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.categories), nil
}

// PolicyCarrierStore implements store.PolicyCarrierStore.
type PolicyCarrierStore struct{ db *DB }

var _ store.PolicyCarrierStore = (*PolicyCarrierStore)(nil)

func (s *PolicyCarrierStore) Create(_ context.Context, carrier *domain.PolicyCarrier) error {
	if err := carrier.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.carriersByName[carrier.CompanyName]; ok {
		return duplicate("company_name")
	}
	if carrier.Code != nil {
		if _, ok := s.db.carriersByCode[*carrier.Code]; ok {
			return duplicate("company_code")
		}
		s.db.carriersByCode[*carrier.Code] = carrier.ID
	}

	s.db.carriers[carrier.ID] = *carrier
	s.db.carriersByName[carrier.CompanyName] = carrier.ID
	return nil
}

func (s *PolicyCarrierStore) GetByName(_ context.Context, companyName string) (*domain.PolicyCarrier, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.carriersByName[companyName]
	if !ok {
		return nil, store.ErrPolicyCarrierNotFound
	}
	carrier := s.db.carriers[id]
	return &carrier, nil
}

func (s *PolicyCarrierStore) Count(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.carriers), nil
}

// PolicyStore implements store.PolicyStore.
type PolicyStore struct{ db *DB }

var _ store.PolicyStore = (*PolicyStore)(nil)

func (s *PolicyStore) Create(_ context.Context, policy *domain.Policy) error {
	if err := policy.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[policy.UserID]; !ok {
		return missingReference("user", policy.UserID)
	}
	if _, ok := s.db.categories[policy.CategoryID]; !ok {
		return missingReference("category", policy.CategoryID)
	}
	if _, ok := s.db.carriers[policy.CarrierID]; !ok {
		return missingReference("carrier", policy.CarrierID)
	}
	if policy.AgentID != nil {
		if _, ok := s.db.agents[*policy.AgentID]; !ok {
			return missingReference("agent", *policy.AgentID)
		}
	}
	if _, ok := s.db.policiesByNumber[policy.PolicyNumber]; ok {
		return fmt.Errorf("%w: %s", store.ErrPolicyNumberExists, policy.PolicyNumber)
	}

	s.db.policies[policy.ID] = *policy
	s.db.policiesByNumber[policy.PolicyNumber] = policy.ID
	return nil
}

func (s *PolicyStore) GetByNumber(_ context.Context, policyNumber string) (*domain.Policy, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.policiesByNumber[policyNumber]
	if !ok {
		return nil, store.ErrPolicyNotFound
	}
	policy := s.db.policies[id]
	return &policy, nil
}

func (s *PolicyStore) Count(_ context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.db.policies), nil
}
