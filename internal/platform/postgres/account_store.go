package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgresUserAccountStore implements store.UserAccountStore using PostgreSQL.
type PostgresUserAccountStore struct {
	db store.DBTX
}

// NewPostgresUserAccountStore creates a new PostgresUserAccountStore.
func NewPostgresUserAccountStore(db store.DBTX) *PostgresUserAccountStore {
	return &PostgresUserAccountStore{db: db}
}

var _ store.UserAccountStore = (*PostgresUserAccountStore)(nil)

// Create implements store.UserAccountStore.Create
func (s *PostgresUserAccountStore) Create(ctx context.Context, account *domain.UserAccount) error {
	if err := account.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO user_accounts (id, account_name, user_id, account_number, account_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.AccountName,
		account.UserID,
		account.AccountNumber,
		string(account.AccountType),
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return mapCreateError("user_account", err, nil)
	}

	return nil
}

// GetByNameAndUser implements store.UserAccountStore.GetByNameAndUser
func (s *PostgresUserAccountStore) GetByNameAndUser(
	ctx context.Context,
	name string,
	userID uuid.UUID,
) (*domain.UserAccount, error) {
	query := `
		SELECT id, account_name, user_id, account_number, account_type, is_active, created_at, updated_at
		FROM user_accounts
		WHERE account_name = $1 AND user_id = $2
	`

	var (
		account       domain.UserAccount
		accountNumber sql.NullString
		accountType   string
	)

	err := s.db.QueryRowContext(ctx, query, name, userID).Scan(
		&account.ID,
		&account.AccountName,
		&account.UserID,
		&accountNumber,
		&accountType,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, mapGetError("user_account", err, store.ErrUserAccountNotFound)
	}

	if accountNumber.Valid {
		account.AccountNumber = &accountNumber.String
	}
	account.AccountType = domain.AccountType(accountType)

	return &account, nil
}

// Count implements store.UserAccountStore.Count
func (s *PostgresUserAccountStore) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "user_accounts")
}
