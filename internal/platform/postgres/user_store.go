package postgres

import (
	"context"
	"database/sql"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db store.DBTX
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

const userColumns = `
	id, first_name, last_name, date_of_birth,
	street, city, address_state, address_zip_code, country,
	phone_number, state, zip_code, email, gender, user_type,
	is_active, created_at, updated_at
`

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.Address.Street,
		user.Address.City,
		user.Address.State,
		user.Address.ZipCode,
		user.Address.Country,
		user.PhoneNumber,
		user.State,
		user.ZipCode,
		user.Email,
		string(user.Gender),
		string(user.UserType),
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		log.Debug("failed to insert user", "user_id", user.ID, "error", err)
		return mapCreateError("user", err, store.ErrEmailExists)
	}

	return nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var (
		user     domain.User
		gender   string
		userType string
		lastName sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, domain.NormalizeEmail(email)).Scan(
		&user.ID,
		&user.FirstName,
		&lastName,
		&user.DateOfBirth,
		&user.Address.Street,
		&user.Address.City,
		&user.Address.State,
		&user.Address.ZipCode,
		&user.Address.Country,
		&user.PhoneNumber,
		&user.State,
		&user.ZipCode,
		&user.Email,
		&gender,
		&userType,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, mapGetError("user", err, store.ErrUserNotFound)
	}

	user.LastName = lastName.String
	user.Gender = domain.Gender(gender)
	user.UserType = domain.UserType(userType)

	return &user, nil
}

// Count implements store.UserStore.Count
func (s *PostgresUserStore) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "users")
}
