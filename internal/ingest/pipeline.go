package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// Summary counts distinct entities touched by a batch. Reference entities
// are counted once per resolved ID however many rows mention them; Policies
// counts only policies created by the batch.
type Summary struct {
	Agents           int `json:"agents"`
	Users            int `json:"users"`
	UserAccounts     int `json:"user_accounts"`
	PolicyCategories int `json:"policy_categories"`
	PolicyCarriers   int `json:"policy_carriers"`
	Policies         int `json:"policies"`
}

// Report is the outcome of one batch. SuccessfulInserts counts rows that
// were processed without error, including rows whose policy already existed.
type Report struct {
	TotalRecords      int        `json:"total_records"`
	SuccessfulInserts int        `json:"successful_inserts"`
	Summary           Summary    `json:"summary"`
	Errors            []RowError `json:"errors"`
}

// batchState accumulates the IDs resolved across a batch.
type batchState struct {
	agents     map[uuid.UUID]struct{}
	users      map[uuid.UUID]struct{}
	accounts   map[uuid.UUID]struct{}
	categories map[uuid.UUID]struct{}
	carriers   map[uuid.UUID]struct{}
	policies   int
}

func newBatchState() *batchState {
	return &batchState{
		agents:     make(map[uuid.UUID]struct{}),
		users:      make(map[uuid.UUID]struct{}),
		accounts:   make(map[uuid.UUID]struct{}),
		categories: make(map[uuid.UUID]struct{}),
		carriers:   make(map[uuid.UUID]struct{}),
	}
}

func (s *batchState) summary() Summary {
	return Summary{
		Agents:           len(s.agents),
		Users:            len(s.users),
		UserAccounts:     len(s.accounts),
		PolicyCategories: len(s.categories),
		PolicyCarriers:   len(s.carriers),
		Policies:         s.policies,
	}
}

// Pipeline drives row-by-row import of decoded records.
type Pipeline struct {
	normalizer *Normalizer
	resolver   *Resolver
	policies   store.PolicyStore
	logger     *slog.Logger
	metrics    *metrics
}

// NewPipeline creates a Pipeline writing to stores.
func NewPipeline(stores store.Stores, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: NewNormalizer(time.Now),
		resolver:   NewResolver(stores, logger),
		policies:   stores.Policies,
		logger:     logger.With("component", "ingest_pipeline"),
		metrics:    getMetrics(),
	}
}

// ProcessFile decodes the file at path and processes its rows. A file that
// cannot be opened or decoded yields a *ParseError and no rows are written.
// The file is left in place.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, fileType FileType) (*Report, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		p.metrics.batchesTotal.WithLabelValues(string(fileType), "parse_error").Inc()
		return nil, newParseError(fileType, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := Decode(f, fileType)
	if err != nil {
		p.metrics.batchesTotal.WithLabelValues(string(fileType), "parse_error").Inc()
		return nil, err
	}

	report := p.Process(ctx, rows)

	p.metrics.batchesTotal.WithLabelValues(string(fileType), "processed").Inc()
	p.metrics.batchDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("import batch processed",
		"file_type", fileType,
		"total_records", report.TotalRecords,
		"successful_inserts", report.SuccessfulInserts,
		"error_count", len(report.Errors),
		"duration_ms", time.Since(start).Milliseconds())

	return report, nil
}

// Process imports rows sequentially. A failing row is recorded in the
// report's Errors and never stops the batch.
func (p *Pipeline) Process(ctx context.Context, rows []Row) *Report {
	report := &Report{
		TotalRecords: len(rows),
		Errors:       []RowError{},
	}
	state := newBatchState()

	for i, row := range rows {
		position := i + 1
		if err := p.processRow(ctx, row, position, state); err != nil {
			p.logger.Warn("import row failed", "row", position, "error", err)
			p.metrics.rowsTotal.WithLabelValues("failed").Inc()
			report.Errors = append(report.Errors, RowError{
				Row:     position,
				Message: err.Error(),
				Data:    row,
			})
			continue
		}
		p.metrics.rowsTotal.WithLabelValues("succeeded").Inc()
		report.SuccessfulInserts++
	}

	report.Summary = state.summary()
	return report
}

// processRow resolves the references of one row in dependency order and
// creates its policy if the policy number is new. Panics are converted to
// errors so they stay within the row.
func (p *Pipeline) processRow(ctx context.Context, row Row, position int, state *batchState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing row: %v", r)
		}
	}()

	rec := p.normalizer.Normalize(row, position)
	log := p.logger.With("row", position)

	agent, created, err := p.resolver.ResolveAgent(ctx, rec.AgentName)
	if err != nil {
		log.Warn("agent not resolved, continuing without agent", "error", err)
		agent = nil
	}
	if agent != nil {
		state.agents[agent.ID] = struct{}{}
		p.metrics.created("agent", created)
	}

	category, created, err := p.resolver.ResolveCategory(ctx, rec.CategoryName)
	if err != nil {
		log.Warn("policy category not resolved", "error", err)
		category = nil
	}
	if category != nil {
		state.categories[category.ID] = struct{}{}
		p.metrics.created("policy_category", created)
	}

	carrier, created, err := p.resolver.ResolveCarrier(ctx, rec.CarrierName)
	if err != nil {
		log.Warn("policy carrier not resolved", "error", err)
		carrier = nil
	}
	if carrier != nil {
		state.carriers[carrier.ID] = struct{}{}
		p.metrics.created("policy_carrier", created)
	}

	user, created, err := p.resolver.ResolveUser(ctx, rec.User)
	if err != nil {
		return err
	}
	state.users[user.ID] = struct{}{}
	p.metrics.created("user", created)

	account, created, err := p.resolver.ResolveAccount(ctx, rec.AccountName, user.ID)
	if err != nil {
		return err
	}
	if account != nil {
		state.accounts[account.ID] = struct{}{}
		p.metrics.created("user_account", created)
	}

	created, err = p.writePolicy(ctx, rec.Policy, user, category, carrier, agent)
	if err != nil {
		return err
	}
	if created {
		state.policies++
		p.metrics.created("policy", true)
	}
	return nil
}

// writePolicy creates the policy unless its number already exists. An
// existing policy, including one created concurrently by another batch, is a
// no-op and reports created=false.
func (p *Pipeline) writePolicy(
	ctx context.Context,
	fields PolicyFields,
	user *domain.User,
	category *domain.PolicyCategory,
	carrier *domain.PolicyCarrier,
	agent *domain.Agent,
) (bool, error) {
	_, err := p.policies.GetByNumber(ctx, fields.Number)
	if err == nil {
		return false, nil
	}
	if !store.IsNotFoundError(err) {
		return false, fmt.Errorf("failed to check policy %q: %w", fields.Number, err)
	}

	details := domain.PolicyDetails{
		PolicyNumber:        fields.Number,
		StartDate:           fields.StartDate,
		EndDate:             fields.EndDate,
		UserID:              user.ID,
		CollectionID:        fields.CollectionID,
		CompanyCollectionID: fields.CompanyCollectionID,
		PremiumAmount:       fields.PremiumAmount,
		CoverageAmount:      fields.CoverageAmount,
		Status:              fields.Status,
		PaymentFrequency:    fields.PaymentFrequency,
	}
	if category != nil {
		details.CategoryID = category.ID
	}
	if carrier != nil {
		details.CarrierID = carrier.ID
	}
	if agent != nil {
		id := agent.ID
		details.AgentID = &id
	}

	policy, err := domain.NewPolicy(details)
	if err != nil {
		return false, fmt.Errorf("invalid policy %q: %w", fields.Number, err)
	}

	if err := p.policies.Create(ctx, policy); err != nil {
		if store.IsDuplicateError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create policy %q: %w", fields.Number, err)
	}
	return true, nil
}
