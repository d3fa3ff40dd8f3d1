package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/platform/memory"
	"github.com/phrazzld/policyhub-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyRow(number, email string) Row {
	return Row{
		"Agent Name":           "Jane Agent",
		"User First Name":      "Ada",
		"Email":                email,
		"Phone Number":         "555-0100",
		"State":                "IL",
		"Zip Code":             "62701",
		"Gender":               "Female",
		"Account Name":         "Household",
		"Policy Category Name": "Health",
		"Carrier Company Name": "Acme Mutual",
		"Policy Number":        number,
		"Policy Start Date":    "2025-01-01",
		"Policy End Date":      "2026-01-01",
		"Premium Amount":       "1200",
		"Coverage Amount":      "250000",
	}
}

func newTestPipeline(stores store.Stores) *Pipeline {
	p := NewPipeline(stores, discardLogger())
	p.normalizer = NewNormalizer(fixedClock)
	return p
}

func TestPipeline_MixedBatch(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewDB().Stores()
	p := newTestPipeline(stores)

	missingPremium := policyRow("POL-2", "grace@example.com")
	delete(missingPremium, "Premium Amount")
	delete(missingPremium, "Account Name")

	rows := []Row{
		policyRow("POL-1", "ada@example.com"),
		missingPremium,
		policyRow("POL-1", "ada@example.com"),
	}

	report := p.Process(ctx, rows)

	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 3, report.SuccessfulInserts)
	assert.Empty(t, report.Errors)
	assert.NotNil(t, report.Errors)
	assert.Equal(t, Summary{
		Agents:           1,
		Users:            2,
		UserAccounts:     1,
		PolicyCategories: 1,
		PolicyCarriers:   1,
		Policies:         2,
	}, report.Summary)

	policy, err := stores.Policies.GetByNumber(ctx, "POL-2")
	require.NoError(t, err)
	assert.True(t, policy.PremiumAmount.IsZero())
	require.NotNil(t, policy.AgentID)

	n, err := stores.Policies.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPipeline_ReingestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewDB().Stores()
	p := newTestPipeline(stores)

	rows := []Row{
		policyRow("POL-1", "ada@example.com"),
		policyRow("POL-2", "grace@example.com"),
	}

	first := p.Process(ctx, rows)
	require.Equal(t, 2, first.Summary.Policies)

	second := p.Process(ctx, rows)
	assert.Equal(t, 2, second.SuccessfulInserts)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 0, second.Summary.Policies)
	assert.Equal(t, 1, second.Summary.Agents)
	assert.Equal(t, 2, second.Summary.Users)

	for _, count := range []func(context.Context) (int, error){
		stores.Agents.Count, stores.Categories.Count, stores.Carriers.Count,
	} {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	n, err := stores.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPipeline_ConcurrentBatchesShareEntities(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewDB().Stores()

	numbers := []string{"POL-1", "POL-2", "POL-3", "POL-4", "POL-5"}
	rows := make([]Row, len(numbers))
	for i, number := range numbers {
		rows[i] = policyRow(number, "ada@example.com")
	}

	const batches = 8
	reports := make([]*Report, batches)
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = newTestPipeline(stores).Process(ctx, rows)
		}(i)
	}
	wg.Wait()

	created := 0
	for i, report := range reports {
		assert.Empty(t, report.Errors, "batch %d", i)
		assert.Equal(t, len(rows), report.SuccessfulInserts, "batch %d", i)
		created += report.Summary.Policies
	}
	assert.Equal(t, len(numbers), created)

	counts := map[string]func(context.Context) (int, error){
		"agents":     stores.Agents.Count,
		"users":      stores.Users.Count,
		"accounts":   stores.Accounts.Count,
		"categories": stores.Categories.Count,
		"carriers":   stores.Carriers.Count,
	}
	for name, count := range counts {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}

	n, err := stores.Policies.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(numbers), n)
}

func TestPipeline_RowErrorsAreIsolated(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewDB().Stores()
	p := newTestPipeline(stores)

	noCategory := policyRow("POL-2", "grace@example.com")
	delete(noCategory, "Policy Category Name")

	badStatus := policyRow("POL-3", "alan@example.com")
	badStatus["Status"] = "Lapsed"

	endBeforeStart := policyRow("POL-4", "edsger@example.com")
	endBeforeStart["Policy End Date"] = "2024-01-01"

	rows := []Row{
		policyRow("POL-1", "ada@example.com"),
		noCategory,
		badStatus,
		endBeforeStart,
		policyRow("POL-5", "barbara@example.com"),
	}

	report := p.Process(ctx, rows)

	assert.Equal(t, 5, report.TotalRecords)
	assert.Equal(t, 2, report.SuccessfulInserts)
	assert.Equal(t, 2, report.Summary.Policies)
	require.Len(t, report.Errors, 3)

	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Message, "policy category is required")
	assert.Equal(t, noCategory, report.Errors[0].Data)

	assert.Equal(t, 3, report.Errors[1].Row)
	assert.Contains(t, report.Errors[1].Message, "invalid policy status")

	assert.Equal(t, 4, report.Errors[2].Row)
	assert.Contains(t, report.Errors[2].Message, "end date must be after start date")

	// Users of failed rows were still resolved before the policy step.
	assert.Equal(t, 5, report.Summary.Users)
}

// panickingPolicyStore panics on lookup of one policy number.
type panickingPolicyStore struct {
	store.PolicyStore
	number string
}

func (s panickingPolicyStore) GetByNumber(ctx context.Context, number string) (*domain.Policy, error) {
	if number == s.number {
		panic("index corrupted")
	}
	return s.PolicyStore.GetByNumber(ctx, number)
}

// failingPolicyStore fails every create with a storage error.
type failingPolicyStore struct {
	store.PolicyStore
}

func (failingPolicyStore) Create(context.Context, *domain.Policy) error {
	return errors.New("connection reset")
}

func TestPipeline_PanicInRowIsRecorded(t *testing.T) {
	stores := memory.NewDB().Stores()
	stores.Policies = panickingPolicyStore{PolicyStore: stores.Policies, number: "POL-1"}
	p := newTestPipeline(stores)

	report := p.Process(context.Background(), []Row{
		policyRow("POL-1", "ada@example.com"),
		policyRow("POL-2", "grace@example.com"),
	})

	assert.Equal(t, 1, report.SuccessfulInserts)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Message, "panic while processing row: index corrupted")
}

func TestPipeline_StoreFailureIsRowError(t *testing.T) {
	stores := memory.NewDB().Stores()
	stores.Policies = failingPolicyStore{stores.Policies}
	p := newTestPipeline(stores)

	report := p.Process(context.Background(), []Row{policyRow("POL-1", "ada@example.com")})

	assert.Zero(t, report.SuccessfulInserts)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, `failed to create policy "POL-1": connection reset`)
}

func TestPipeline_AgentFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewDB().Stores()
	p := newTestPipeline(stores)

	row := policyRow("POL-1", "ada@example.com")
	row["Agent Name"] = strings.Repeat("x", 300)

	report := p.Process(ctx, []Row{row})

	assert.Equal(t, 1, report.SuccessfulInserts)
	assert.Zero(t, report.Summary.Agents)

	policy, err := stores.Policies.GetByNumber(ctx, "POL-1")
	require.NoError(t, err)
	assert.Nil(t, policy.AgentID)
}

func TestPipeline_ProcessFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "policies.csv")
		content := "Policy Number,Email,Policy Category Name,Carrier Company Name,Premium Amount\n" +
			"POL-1,ada@example.com,Health,Acme Mutual,\"$1,200.00\"\n" +
			"POL-2,grace@example.com,Life,Acme Mutual,300\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		p := newTestPipeline(memory.NewDB().Stores())
		report, err := p.ProcessFile(context.Background(), path, FileTypeCSV)
		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalRecords)
		assert.Equal(t, 2, report.SuccessfulInserts)
		assert.Equal(t, 2, report.Summary.PolicyCategories)
		assert.Equal(t, 1, report.Summary.PolicyCarriers)

		_, statErr := os.Stat(path)
		assert.NoError(t, statErr)
	})

	t.Run("row numbers skip blank lines", func(t *testing.T) {
		path := filepath.Join(dir, "gaps.csv")
		content := "Policy Number,Email,Policy Category Name,Carrier Company Name\n" +
			"POL-1,ada@example.com,Health,Acme Mutual\n" +
			"\n" +
			"POL-2,grace@example.com,,Acme Mutual\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		p := newTestPipeline(memory.NewDB().Stores())
		report, err := p.ProcessFile(context.Background(), path, FileTypeCSV)
		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalRecords)
		require.Len(t, report.Errors, 1)
		// Line 4 of the file, second data row.
		assert.Equal(t, 2, report.Errors[0].Row)
		assert.Equal(t, "POL-2", report.Errors[0].Data.Lookup(FieldPolicyNumber))
	})

	t.Run("malformed workbook", func(t *testing.T) {
		path := filepath.Join(dir, "broken.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a zip archive"), 0o600))

		stores := memory.NewDB().Stores()
		p := newTestPipeline(stores)
		report, err := p.ProcessFile(context.Background(), path, FileTypeXLSX)
		assert.Nil(t, report)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, FileTypeXLSX, parseErr.FileType)
		assert.Contains(t, err.Error(), "error processing xlsx file")

		n, countErr := stores.Users.Count(context.Background())
		require.NoError(t, countErr)
		assert.Zero(t, n)
	})

	t.Run("missing file", func(t *testing.T) {
		p := newTestPipeline(memory.NewDB().Stores())
		_, err := p.ProcessFile(context.Background(), filepath.Join(dir, "absent.csv"), FileTypeCSV)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
