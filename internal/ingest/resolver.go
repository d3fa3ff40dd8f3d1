package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// Resolver performs idempotent find-or-create for the reference entities of
// a policy. Lookups are by natural key and an existing record is returned
// unchanged. A uniqueness violation on insert means another writer won the
// race, so the record is re-fetched instead of failing.
type Resolver struct {
	stores store.Stores
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(stores store.Stores, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		stores: stores,
		logger: logger.With("component", "entity_resolver"),
	}
}

// findOrCreate looks an entity up with find and, when it does not exist,
// tries each create attempt in order until one succeeds. A duplicate error
// from any attempt ends the search with a re-fetch. The bool result reports
// whether this call created the entity.
func findOrCreate[T any](
	ctx context.Context,
	find func(context.Context) (*T, error),
	attempts ...func(context.Context) (*T, error),
) (*T, bool, error) {
	existing, err := find(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, false, err
	}

	var createErr error
	for _, create := range attempts {
		created, err := create(ctx)
		if err == nil {
			return created, true, nil
		}
		if store.IsDuplicateError(err) {
			existing, err := find(ctx)
			if err != nil {
				return nil, false, fmt.Errorf("failed to re-fetch after duplicate: %w", err)
			}
			return existing, false, nil
		}
		createErr = errors.Join(createErr, err)
	}

	return nil, false, createErr
}

// ResolveAgent finds or creates the agent named name. A blank name resolves
// to nil without touching the store.
func (r *Resolver) ResolveAgent(ctx context.Context, name string) (*domain.Agent, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, nil
	}

	agent, created, err := findOrCreate(ctx,
		func(ctx context.Context) (*domain.Agent, error) {
			return r.stores.Agents.GetByName(ctx, name)
		},
		func(ctx context.Context) (*domain.Agent, error) {
			agent, err := domain.NewAgent(name)
			if err != nil {
				return nil, err
			}
			return agent, r.stores.Agents.Create(ctx, agent)
		},
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve agent %q: %w", name, err)
	}
	return agent, created, nil
}

// ResolveUser finds the user by email or creates one from d. If creation
// fails for any reason other than a concurrent duplicate, it is retried once
// with domain.MinimalUser.
func (r *Resolver) ResolveUser(ctx context.Context, d domain.UserDetails) (*domain.User, bool, error) {
	email := domain.NormalizeEmail(d.Email)

	create := func(build func(domain.UserDetails) (*domain.User, error)) func(context.Context) (*domain.User, error) {
		return func(ctx context.Context) (*domain.User, error) {
			user, err := build(d)
			if err != nil {
				return nil, err
			}
			if err := r.stores.Users.Create(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		}
	}

	full := create(domain.NewUser)
	minimal := create(domain.MinimalUser)
	retry := func(ctx context.Context) (*domain.User, error) {
		r.logger.Debug("retrying user creation with minimal attributes", "email", email)
		return minimal(ctx)
	}

	user, created, err := findOrCreate(ctx,
		func(ctx context.Context) (*domain.User, error) {
			return r.stores.Users.GetByEmail(ctx, email)
		},
		full,
		retry,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve user %q: %w", email, err)
	}
	return user, created, nil
}

// ResolveAccount finds or creates the account (name, userID). A blank name
// resolves to nil.
func (r *Resolver) ResolveAccount(
	ctx context.Context,
	name string,
	userID uuid.UUID,
) (*domain.UserAccount, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, nil
	}

	account, created, err := findOrCreate(ctx,
		func(ctx context.Context) (*domain.UserAccount, error) {
			return r.stores.Accounts.GetByNameAndUser(ctx, name, userID)
		},
		func(ctx context.Context) (*domain.UserAccount, error) {
			account, err := domain.NewUserAccount(name, userID)
			if err != nil {
				return nil, err
			}
			return account, r.stores.Accounts.Create(ctx, account)
		},
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve user account %q: %w", name, err)
	}
	return account, created, nil
}

// ResolveCategory finds or creates the policy category named name.
func (r *Resolver) ResolveCategory(ctx context.Context, name string) (*domain.PolicyCategory, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, nil
	}

	category, created, err := findOrCreate(ctx,
		func(ctx context.Context) (*domain.PolicyCategory, error) {
			return r.stores.Categories.GetByName(ctx, name)
		},
		func(ctx context.Context) (*domain.PolicyCategory, error) {
			category, err := domain.NewPolicyCategory(name)
			if err != nil {
				return nil, err
			}
			return category, r.stores.Categories.Create(ctx, category)
		},
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve policy category %q: %w", name, err)
	}
	return category, created, nil
}

// ResolveCarrier finds or creates the carrier with the given company name.
func (r *Resolver) ResolveCarrier(ctx context.Context, companyName string) (*domain.PolicyCarrier, bool, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, false, nil
	}

	carrier, created, err := findOrCreate(ctx,
		func(ctx context.Context) (*domain.PolicyCarrier, error) {
			return r.stores.Carriers.GetByName(ctx, companyName)
		},
		func(ctx context.Context) (*domain.PolicyCarrier, error) {
			carrier, err := domain.NewPolicyCarrier(companyName)
			if err != nil {
				return nil, err
			}
			return carrier, r.stores.Carriers.Create(ctx, carrier)
		},
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve policy carrier %q: %w", companyName, err)
	}
	return carrier, created, nil
}
