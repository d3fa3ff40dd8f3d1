package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgresPolicyStore implements store.PolicyStore using PostgreSQL.
type PostgresPolicyStore struct {
	db store.DBTX
}

// NewPostgresPolicyStore creates a new PostgresPolicyStore.
func NewPostgresPolicyStore(db store.DBTX) *PostgresPolicyStore {
	return &PostgresPolicyStore{db: db}
}

var _ store.PolicyStore = (*PostgresPolicyStore)(nil)

const policyColumns = `
	id, policy_number, policy_start_date, policy_end_date,
	user_id, category_id, carrier_id, agent_id,
	collection_id, company_collection_id, premium_amount, coverage_amount,
	status, payment_frequency, is_active, created_at, updated_at
`

// Create implements store.PolicyStore.Create
func (s *PostgresPolicyStore) Create(ctx context.Context, policy *domain.Policy) error {
	log := logger.FromContext(ctx)

	if err := policy.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.db.ExecContext(ctx, query,
		policy.ID,
		policy.PolicyNumber,
		policy.StartDate,
		policy.EndDate,
		policy.UserID,
		policy.CategoryID,
		policy.CarrierID,
		policy.AgentID,
		policy.CollectionID,
		policy.CompanyCollectionID,
		policy.PremiumAmount,
		policy.CoverageAmount,
		string(policy.Status),
		string(policy.PaymentFrequency),
		policy.IsActive,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		log.Debug("failed to insert policy",
			"policy_number", policy.PolicyNumber,
			"error", err)
		return mapCreateError("policy", err, store.ErrPolicyNumberExists)
	}

	return nil
}

// GetByNumber implements store.PolicyStore.GetByNumber
func (s *PostgresPolicyStore) GetByNumber(ctx context.Context, policyNumber string) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE policy_number = $1`

	var (
		policy    domain.Policy
		agentID   uuid.NullUUID
		status    string
		frequency string
	)

	err := s.db.QueryRowContext(ctx, query, policyNumber).Scan(
		&policy.ID,
		&policy.PolicyNumber,
		&policy.StartDate,
		&policy.EndDate,
		&policy.UserID,
		&policy.CategoryID,
		&policy.CarrierID,
		&agentID,
		&policy.CollectionID,
		&policy.CompanyCollectionID,
		&policy.PremiumAmount,
		&policy.CoverageAmount,
		&status,
		&frequency,
		&policy.IsActive,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		return nil, mapGetError("policy", err, store.ErrPolicyNotFound)
	}

	if agentID.Valid {
		id := agentID.UUID
		policy.AgentID = &id
	}
	policy.Status = domain.PolicyStatus(status)
	policy.PaymentFrequency = domain.PaymentFrequency(frequency)

	return &policy, nil
}

// Count implements store.PolicyStore.Count
func (s *PostgresPolicyStore) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "policies")
}
