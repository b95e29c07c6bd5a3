package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/storage"
)

func testProcessor(t *testing.T) (*RecurringProcessor, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	// nil AMQP client: storage-only effectuation.
	return NewRecurringProcessor(repo, NewTransactionService(repo, nil)), repo
}

func TestProcessDueRules_CreatesTransactions(t *testing.T) {
	processor, repo := testProcessor(t)
	ctx := context.Background()

	_, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:       core.FlowOut,
		Amount:     core.Money{Cents: 120_000},
		Active:     true,
		StartDate:  core.NewDate(2025, 1, 10),
		Frequency:  core.Monthly,
		DayOfMonth: 10,
		DayOfWeek:  -1,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	created, err := processor.ProcessDueRules(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	// Jan 10, Feb 10 and Mar 10 have all come due.
	if created != 3 {
		t.Fatalf("created = %d, want 3", created)
	}

	transactions, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(transactions))
	}
	for _, tx := range transactions {
		if tx.Type != core.FlowOut || tx.Amount.Cents != 120_000 {
			t.Errorf("effectuated transaction mismatch: %+v", tx)
		}
	}
	if !transactions[2].Date.Equal(core.NewDate(2025, 3, 10).Time) {
		t.Errorf("last occurrence = %s, want 2025-03-10", transactions[2].Date.Format("2006-01-02"))
	}
}

func TestProcessDueRules_SecondRunIsIdempotent(t *testing.T) {
	processor, repo := testProcessor(t)
	ctx := context.Background()

	if _, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:       core.FlowIn,
		Amount:     core.Money{Cents: 500_000},
		Active:     true,
		StartDate:  core.NewDate(2025, 1, 5),
		Frequency:  core.Monthly,
		DayOfMonth: 5,
		DayOfWeek:  -1,
	}); err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	now := time.Date(2025, 2, 20, 8, 0, 0, 0, time.UTC)
	if _, err := processor.ProcessDueRules(ctx, now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	created, err := processor.ProcessDueRules(ctx, now)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if created != 0 {
		t.Errorf("second run created %d transactions, want 0", created)
	}

	transactions, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Errorf("transactions = %d, want 2 (Jan 5 and Feb 5, once each)", len(transactions))
	}
}

func TestProcessDueRules_AdvancesAfterCatchUp(t *testing.T) {
	processor, repo := testProcessor(t)
	ctx := context.Background()

	if _, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:       core.FlowOut,
		Amount:     core.Money{Cents: 9_900},
		Active:     true,
		StartDate:  core.NewDate(2025, 1, 1),
		Frequency:  core.Monthly,
		DayOfMonth: 1,
		DayOfWeek:  -1,
	}); err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	if _, err := processor.ProcessDueRules(ctx, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	created, err := processor.ProcessDueRules(ctx, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	// Feb 1 and Mar 1 came due between the runs.
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
}

func TestProcessDueRules_SkipsInactiveAndFuture(t *testing.T) {
	processor, repo := testProcessor(t)
	ctx := context.Background()

	inactiveID, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:       core.FlowOut,
		Amount:     core.Money{Cents: 1000},
		Active:     true,
		StartDate:  core.NewDate(2025, 1, 1),
		Frequency:  core.Monthly,
		DayOfMonth: 1,
		DayOfWeek:  -1,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}
	if err := repo.SetRuleActive(ctx, inactiveID, false); err != nil {
		t.Fatalf("SetRuleActive: %v", err)
	}

	if _, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:       core.FlowIn,
		Amount:     core.Money{Cents: 2000},
		Active:     true,
		StartDate:  core.NewDate(2030, 1, 1),
		Frequency:  core.Monthly,
		DayOfMonth: 1,
		DayOfWeek:  -1,
	}); err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	created, err := processor.ProcessDueRules(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0 (inactive and future rules never fire)", created)
	}
}

func TestProcessDueRules_NotInitialized(t *testing.T) {
	p := &RecurringProcessor{}
	if _, err := p.ProcessDueRules(context.Background(), time.Now()); err == nil {
		t.Error("expected error from uninitialized processor")
	}
}

func TestEffectuate_SavesTransaction(t *testing.T) {
	_, repo := testProcessor(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()

	rule := core.RecurringRule{
		ID:        1,
		Type:      core.FlowIn,
		Amount:    core.Money{Cents: 350_000},
		Frequency: core.Monthly,
	}
	id, err := svc.Effectuate(ctx, rule, core.NewDate(2025, 4, 5))
	if err != nil {
		t.Fatalf("Effectuate: %v", err)
	}
	if id < 1 {
		t.Fatalf("id = %d, want positive", id)
	}

	transactions, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(transactions) != 1 || transactions[0].Amount.Cents != 350_000 {
		t.Errorf("saved transaction mismatch: %+v", transactions)
	}
}

func TestEffectuate_RejectsInvalidRule(t *testing.T) {
	_, repo := testProcessor(t)
	svc := NewTransactionService(repo, nil)

	rule := core.RecurringRule{ID: 1, Type: "sideways", Amount: core.Money{Cents: 100}}
	if _, err := svc.Effectuate(context.Background(), rule, core.NewDate(2025, 4, 5)); err == nil {
		t.Error("expected validation error")
	}
}
