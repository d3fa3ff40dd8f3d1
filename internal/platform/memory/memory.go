// Package memory provides in-process implementations of the store interfaces.
// It backs the "memory" database driver used for local runs and tests, and
// enforces the same uniqueness and reference rules as the PostgreSQL schema.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

type accountKey struct {
	name   string
	userID uuid.UUID
}

// DB holds every table behind a single lock.
type DB struct {
	mu sync.RWMutex

	agents           map[uuid.UUID]domain.Agent
	agentsByName     map[string]uuid.UUID
	agentsByExternal map[string]uuid.UUID

	users        map[uuid.UUID]domain.User
	usersByEmail map[string]uuid.UUID

	accounts         map[uuid.UUID]domain.UserAccount
	accountsByKey    map[accountKey]uuid.UUID
	accountsByNumber map[string]uuid.UUID

	categories       map[uuid.UUID]domain.PolicyCategory
	categoriesByName map[string]uuid.UUID
	categoriesByCode map[string]uuid.UUID

	carriers       map[uuid.UUID]domain.PolicyCarrier
	carriersByName map[string]uuid.UUID
	carriersByCode map[string]uuid.UUID

	policies         map[uuid.UUID]domain.Policy
	policiesByNumber map[string]uuid.UUID

	messages map[string]domain.ScheduledMessage
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{
		agents:           make(map[uuid.UUID]domain.Agent),
		agentsByName:     make(map[string]uuid.UUID),
		agentsByExternal: make(map[string]uuid.UUID),
		users:            make(map[uuid.UUID]domain.User),
		usersByEmail:     make(map[string]uuid.UUID),
		accounts:         make(map[uuid.UUID]domain.UserAccount),
		accountsByKey:    make(map[accountKey]uuid.UUID),
		accountsByNumber: make(map[string]uuid.UUID),
		categories:       make(map[uuid.UUID]domain.PolicyCategory),
		categoriesByName: make(map[string]uuid.UUID),
		categoriesByCode: make(map[string]uuid.UUID),
		carriers:         make(map[uuid.UUID]domain.PolicyCarrier),
		carriersByName:   make(map[string]uuid.UUID),
		carriersByCode:   make(map[string]uuid.UUID),
		policies:         make(map[uuid.UUID]domain.Policy),
		policiesByNumber: make(map[string]uuid.UUID),
		messages:         make(map[string]domain.ScheduledMessage),
	}
}

// Stores returns the entity stores used by the ingestion pipeline.
func (db *DB) Stores() store.Stores {
	return store.Stores{
		Agents:     &AgentStore{db: db},
		Users:      &UserStore{db: db},
		Accounts:   &UserAccountStore{db: db},
		Categories: &PolicyCategoryStore{db: db},
		Carriers:   &PolicyCarrierStore{db: db},
		Policies:   &PolicyStore{db: db},
	}
}

// ScheduledMessages returns the scheduled message store.
func (db *DB) ScheduledMessages() *ScheduledMessageStore {
	return &ScheduledMessageStore{db: db}
}

func invalidEntity(err error) error {
	return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", store.ErrDuplicate, what)
}

func missingReference(what string, id uuid.UUID) error {
	return fmt.Errorf("%w: foreign key violation (%s %s)", store.ErrInvalidEntity, what, id)
}
