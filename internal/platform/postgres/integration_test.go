package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
	"github.com/phrazzld/policyhub-api/internal/store"
	"github.com/phrazzld/policyhub-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_PipelineAgainstPostgres(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stores := postgres.NewStores(tx)
		pipeline := ingest.NewPipeline(stores, slog.New(slog.NewTextHandler(io.Discard, nil)))

		row := func(number, email string) ingest.Row {
			return ingest.Row{
				"Agent Name":           "Integration Agent",
				"User First Name":      "Ada",
				"Email":                email,
				"Account Name":         "Household",
				"Policy Category Name": "Integration Category",
				"Carrier Company Name": "Integration Carrier",
				"Policy Number":        number,
				"Policy Start Date":    "2025-01-01",
				"Premium Amount":       "$1,200.50",
			}
		}
		rows := []ingest.Row{
			row("INT-POL-1", "int-ada@example.com"),
			row("INT-POL-2", "int-ada@example.com"),
		}

		report := pipeline.Process(ctx, rows)
		require.Empty(t, report.Errors)
		assert.Equal(t, 2, report.SuccessfulInserts)
		assert.Equal(t, 1, report.Summary.Users)
		assert.Equal(t, 2, report.Summary.Policies)

		again := pipeline.Process(ctx, rows)
		require.Empty(t, again.Errors)
		assert.Zero(t, again.Summary.Policies)

		policy, err := stores.Policies.GetByNumber(ctx, "INT-POL-1")
		require.NoError(t, err)
		assert.Equal(t, "1200.5", policy.PremiumAmount.String())
		require.NotNil(t, policy.AgentID)

		user, err := stores.Users.GetByEmail(ctx, "int-ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, policy.UserID, user.ID)
	})
}

// Concurrent batches cannot share one transaction, so this test commits
// rows with a per-run suffix and deletes them afterwards.
func TestIntegration_ConcurrentBatches(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	email := "conc-" + suffix + "@example.com"
	agent, category, carrier := "Agent "+suffix, "Category "+suffix, "Carrier "+suffix

	t.Cleanup(func() {
		cleanup := []struct {
			query string
			arg   string
		}{
			{`DELETE FROM policies WHERE policy_number LIKE $1`, "CONC-" + suffix + "-%"},
			{`DELETE FROM users WHERE email = $1`, email},
			{`DELETE FROM agents WHERE agent_name = $1`, agent},
			{`DELETE FROM policy_categories WHERE category_name = $1`, category},
			{`DELETE FROM policy_carriers WHERE company_name = $1`, carrier},
		}
		for _, c := range cleanup {
			if _, err := db.Exec(c.query, c.arg); err != nil {
				t.Logf("cleanup %q: %v", c.query, err)
			}
		}
	})

	var rows []ingest.Row
	for i := 1; i <= 4; i++ {
		rows = append(rows, ingest.Row{
			"Agent Name":           agent,
			"Email":                email,
			"Account Name":         "Household",
			"Policy Category Name": category,
			"Carrier Company Name": carrier,
			"Policy Number":        "CONC-" + suffix + "-" + string(rune('0'+i)),
			"Policy Start Date":    "2025-01-01",
		})
	}

	stores := postgres.NewStores(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const batches = 6
	reports := make([]*ingest.Report, batches)
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = ingest.NewPipeline(stores, logger).Process(ctx, rows)
		}(i)
	}
	wg.Wait()

	created := 0
	for i, report := range reports {
		require.Empty(t, report.Errors, "batch %d", i)
		assert.Equal(t, len(rows), report.SuccessfulInserts, "batch %d", i)
		created += report.Summary.Policies
	}
	assert.Equal(t, len(rows), created)

	counts := []struct {
		query string
		arg   string
	}{
		{`SELECT COUNT(*) FROM users WHERE email = $1`, email},
		{`SELECT COUNT(*) FROM agents WHERE agent_name = $1`, agent},
		{`SELECT COUNT(*) FROM policy_categories WHERE category_name = $1`, category},
		{`SELECT COUNT(*) FROM policy_carriers WHERE company_name = $1`, carrier},
		{`SELECT COUNT(*) FROM user_accounts a JOIN users u ON u.id = a.user_id WHERE u.email = $1`, email},
	}
	for _, c := range counts {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, c.query, c.arg).Scan(&n))
		assert.Equal(t, 1, n, c.query)
	}
}

func TestIntegration_ScheduledMessageLifecycle(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		messages := postgres.NewPostgresScheduledMessageStore(tx)
		now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

		due, err := domain.NewScheduledMessage("int_due", "due soon", "2025-03-01", "09:00", time.UTC, now)
		require.NoError(t, err)
		later, err := domain.NewScheduledMessage("int_later", "much later", "2025-03-05", "09:00", time.UTC, now)
		require.NoError(t, err)
		require.NoError(t, messages.Create(ctx, due))
		require.NoError(t, messages.Create(ctx, later))

		pending, err := messages.ListPendingAfter(ctx, now)
		require.NoError(t, err)
		assert.Contains(t, jobIDs(pending), "int_later")

		expired, err := messages.ExpireOverdue(ctx, due.FireAt.Add(time.Minute), []string{"int_later"})
		require.NoError(t, err)
		assert.Contains(t, expired, "int_due")

		executedAt := now.Add(time.Hour)
		require.NoError(t, messages.Transition(ctx, "int_later", domain.ScheduledMessageStatusExecuted, &executedAt, ""))
		err = messages.Transition(ctx, "int_later", domain.ScheduledMessageStatusCancelled, nil, "")
		assert.ErrorIs(t, err, store.ErrScheduledMessageNotPending)

		got, err := messages.GetByJobID(ctx, "int_later")
		require.NoError(t, err)
		assert.Equal(t, domain.ScheduledMessageStatusExecuted, got.Status)
		require.NotNil(t, got.ExecutedAt)

		// A unique violation aborts the transaction, so this check runs last.
		err = messages.Create(ctx, due)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func jobIDs(msgs []*domain.ScheduledMessage) []string {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.JobID)
	}
	return ids
}
