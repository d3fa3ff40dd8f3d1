package postgres

import (
	"context"
	"database/sql"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgresAgentStore implements store.AgentStore using PostgreSQL.
type PostgresAgentStore struct {
	db store.DBTX
}

// NewPostgresAgentStore creates a new PostgresAgentStore.
func NewPostgresAgentStore(db store.DBTX) *PostgresAgentStore {
	return &PostgresAgentStore{db: db}
}

var _ store.AgentStore = (*PostgresAgentStore)(nil)

// Create implements store.AgentStore.Create
func (s *PostgresAgentStore) Create(ctx context.Context, agent *domain.Agent) error {
	log := logger.FromContext(ctx)

	if err := agent.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO agents (id, agent_name, agent_id, email, phone, department, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		agent.ID,
		agent.Name,
		agent.ExternalID,
		nullString(agent.Email),
		nullString(agent.Phone),
		nullString(agent.Department),
		agent.IsActive,
		agent.CreatedAt,
		agent.UpdatedAt,
	)
	if err != nil {
		log.Debug("failed to insert agent", "agent_name", agent.Name, "error", err)
		return mapCreateError("agent", err, nil)
	}

	return nil
}

// GetByName implements store.AgentStore.GetByName
func (s *PostgresAgentStore) GetByName(ctx context.Context, name string) (*domain.Agent, error) {
	query := `
		SELECT id, agent_name, agent_id, email, phone, department, is_active, created_at, updated_at
		FROM agents
		WHERE agent_name = $1
	`

	var (
		agent      domain.Agent
		externalID sql.NullString
		email      sql.NullString
		phone      sql.NullString
		department sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&agent.ID,
		&agent.Name,
		&externalID,
		&email,
		&phone,
		&department,
		&agent.IsActive,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return nil, mapGetError("agent", err, store.ErrAgentNotFound)
	}

	if externalID.Valid {
		agent.ExternalID = &externalID.String
	}
	agent.Email = email.String
	agent.Phone = phone.String
	agent.Department = department.String

	return &agent, nil
}

// Count implements store.AgentStore.Count
func (s *PostgresAgentStore) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "agents")
}

// countRows returns the number of rows in table. table is always a constant.
func countRows(ctx context.Context, db store.DBTX, table string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, wrapError(table, "count", err)
	}
	return n, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
