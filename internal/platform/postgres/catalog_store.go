package postgres

import (
	"context"
	"database/sql"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// PostgresPolicyCategoryStore implements store.PolicyCategoryStore using PostgreSQL.
type PostgresPolicyCategoryStore struct {
	db store.DBTX
}

// NewPostgresPolicyCategoryStore creates a new PostgresPolicyCategoryStore.
func NewPostgresPolicyCategoryStore(db store.DBTX) *PostgresPolicyCategoryStore {
	return &PostgresPolicyCategoryStore{db: db}
}

var _ store.PolicyCategoryStore = (*PostgresPolicyCategoryStore)(nil)

// Create implements store.PolicyCategoryStore.Create
func (s *PostgresPolicyCategoryStore) Create(ctx context.Context, category *domain.PolicyCategory) error {
	if err := category.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO policy_categories (id, category_name, description, category_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		nullString(category.Description),
		category.Code,
		category.IsActive,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return mapCreateError("policy_category", err, nil)
	}

	return nil
}

// GetByName implements store.PolicyCategoryStore.GetByName
func (s *PostgresPolicyCategoryStore) GetByName(ctx context.Context, name string) (*domain.PolicyCategory, error) {
	query := `
		SELECT id, category_name, description, category_code, is_active, created_at, updated_at
		FROM policy_categories
		WHERE category_name = $1
	`

	var (
		category    domain.PolicyCategory
		description sql.NullString
		code        sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&description,
		&code,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, mapGetError("policy_category", err, store.ErrPolicyCategoryNotFound)
	}

	category.Description = description.String
	if code.Valid {
		category.Code = &code.String
	}

	return &category, nil
}

// Count implements store.PolicyCategoryStore.Count
func (s *PostgresPolicyCategoryStore) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "policy_categories")
}

// PostgresPolicyCarrierStore implements store.PolicyCarrierStore using PostgreSQL.
type PostgresPolicyCarrierStore struct {
	db store.DBTX
}

// NewPostgresPolicyCarrierStore creates a new PostgresPolicyCarrierStore.
func NewPostgresPolicyCarrierStore(db store.DBTX) *PostgresPolicyCarrierStore {
	return &PostgresPolicyCarrierStore{db: db}
}

var _ store.PolicyCarrierStore = (*PostgresPolicyCarrierStore)(nil)

// Create implements store.PolicyCarrierStore.Create
func (s *PostgresPolicyCarrierStore) Create(ctx context.Context, carrier *domain.PolicyCarrier) error {
	if err := carrier.Validate(); err != nil {
		return invalidEntity(err)
	}

	query := `
		INSERT INTO policy_carriers (
			id, company_name, company_code, street, city, address_state, address_zip_code, country,
			contact_phone, contact_email, website, license_number, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.db.ExecContext(ctx, query,
		carrier.ID,
		carrier.CompanyName,
		carrier.Code,
		carrier.Address.Street,
		carrier.Address.City,
		carrier.Address.State,
		carrier.Address.ZipCode,
		carrier.Address.Country,
		carrier.Contact.Phone,
		carrier.Contact.Email,
		carrier.Contact.Website,
		carrier.LicenseNumber,
		carrier.IsActive,
		carrier.CreatedAt,
		carrier.UpdatedAt,
	)
	if err != nil {
		return mapCreateError("policy_carrier", err, nil)
	}

	return nil
}

// GetByName implements store.PolicyCarrierStore.GetByName
func (s *PostgresPolicyCarrierStore) GetByName(ctx context.Context, companyName string) (*domain.PolicyCarrier, error) {
	query := `
		SELECT id, company_name, company_code, street, city, address_state, address_zip_code, country,
			contact_phone, contact_email, website, license_number, is_active, created_at, updated_at
		FROM policy_carriers
		WHERE company_name = $1
	`

	var (
		carrier domain.PolicyCarrier
		code    sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, companyName).Scan(
		&carrier.ID,
		&carrier.CompanyName,
		&code,
		&carrier.Address.Street,
		&carrier.Address.City,
		&carrier.Address.State,
		&carrier.Address.ZipCode,
		&carrier.Address.Country,
		&carrier.Contact.Phone,
		&carrier.Contact.Email,
		&carrier.Contact.Website,
		&carrier.LicenseNumber,
		&carrier.IsActive,
		&carrier.CreatedAt,
		&carrier.UpdatedAt,
	)
	if err != nil {
		return nil, mapGetError("policy_carrier", err, store.ErrPolicyCarrierNotFound)
	}

	if code.Valid {
		carrier.Code = &code.String
	}

	return &carrier, nil
}

// Count implements store.PolicyCarrierStore.Count
func (s *PostgresPolicyCarrierStore) Count(ctx context.Context) (int, error) {
	return countRows(ctx, s.db, "policy_carriers")
}
