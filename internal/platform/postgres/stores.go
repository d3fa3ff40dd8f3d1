package postgres

import "github.com/phrazzld/policyhub-api/internal/store"

// NewStores returns the policy entity stores backed by db.
func NewStores(db store.DBTX) store.Stores {
	return store.Stores{
		Agents:     NewPostgresAgentStore(db),
		Users:      NewPostgresUserStore(db),
		Accounts:   NewPostgresUserAccountStore(db),
		Categories: NewPostgresPolicyCategoryStore(db),
		Carriers:   NewPostgresPolicyCarrierStore(db),
		Policies:   NewPostgresPolicyStore(db),
	}
}
