package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "jurus_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Date:   core.NewDate(2025, 3, 10),
		Type:   core.FlowOut,
		Amount: core.Money{Cents: 4550},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if id < 1 {
		t.Fatalf("insert id = %d, want positive", id)
	}

	got, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	tx := got[0]
	if tx.ID != id || tx.Type != core.FlowOut || tx.Amount.Cents != 4550 {
		t.Errorf("round trip mismatch: %+v", tx)
	}
	if !tx.Date.Equal(core.NewDate(2025, 3, 10).Time) {
		t.Errorf("date = %s, want 2025-03-10", tx.Date.Format("2006-01-02"))
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	got, err = repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len after delete = %d, want 0", len(got))
	}
}

func TestListTransactions_OrderedByDate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, d := range []core.Date{
		core.NewDate(2025, 3, 20),
		core.NewDate(2025, 3, 5),
		core.NewDate(2025, 3, 12),
	} {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{Date: d, Type: core.FlowIn, Amount: core.Money{Cents: 100}}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	got, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date.Time) {
			t.Fatalf("transactions not ordered by date: %v before %v",
				got[i-1].Date.Format("2006-01-02"), got[i].Date.Format("2006-01-02"))
		}
	}
}

func TestRecurringRuleRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rule := core.RecurringRule{
		Type:       core.FlowOut,
		Amount:     core.Money{Cents: 150_000},
		Active:     true,
		StartDate:  core.NewDate(2025, 1, 31),
		EndDate:    core.NewDate(2026, 1, 31),
		Frequency:  core.Monthly,
		DayOfMonth: 31,
		DayOfWeek:  -1,
	}
	id, err := repo.CreateRecurringRule(ctx, rule)
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	rules, err := repo.ListRecurringRules(ctx)
	if err != nil {
		t.Fatalf("ListRecurringRules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("len = %d, want 1", len(rules))
	}
	got := rules[0]
	if got.ID != id || got.Frequency != core.Monthly || got.DayOfMonth != 31 || got.DayOfWeek != -1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Active {
		t.Error("rule should be active")
	}
	if !got.EndDate.Equal(rule.EndDate.Time) {
		t.Errorf("end date = %s, want 2026-01-31", got.EndDate.Format("2006-01-02"))
	}
}

func TestRecurringRule_NoEndDate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:      core.FlowIn,
		Amount:    core.Money{Cents: 500_000},
		Active:    true,
		StartDate: core.NewDate(2025, 1, 5),
		Frequency: core.Monthly,
		DayOfWeek: -1,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	rules, err := repo.ListRecurringRules(ctx)
	if err != nil {
		t.Fatalf("ListRecurringRules: %v", err)
	}
	if !rules[0].EndDate.IsZero() {
		t.Errorf("end date should stay zero, got %v", rules[0].EndDate)
	}
}

func TestRuleActivationAndExecutions(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		Type:      core.FlowOut,
		Amount:    core.Money{Cents: 1000},
		Active:    true,
		StartDate: core.NewDate(2025, 1, 1),
		Frequency: core.Daily,
		DayOfWeek: -1,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	execs, err := repo.ListActiveRuleExecutions(ctx)
	if err != nil {
		t.Fatalf("ListActiveRuleExecutions: %v", err)
	}
	if len(execs) != 1 {
		t.Fatalf("active executions = %d, want 1", len(execs))
	}
	if !execs[0].LastEffectuated.IsZero() {
		t.Error("fresh rule should have no effectuation date")
	}

	if err := repo.UpdateRuleLastEffectuated(ctx, id, core.NewDate(2025, 2, 1)); err != nil {
		t.Fatalf("UpdateRuleLastEffectuated: %v", err)
	}
	execs, err = repo.ListActiveRuleExecutions(ctx)
	if err != nil {
		t.Fatalf("ListActiveRuleExecutions: %v", err)
	}
	if !execs[0].LastEffectuated.Equal(core.NewDate(2025, 2, 1).Time) {
		t.Errorf("last effectuated = %v, want 2025-02-01", execs[0].LastEffectuated)
	}

	if err := repo.SetRuleActive(ctx, id, false); err != nil {
		t.Fatalf("SetRuleActive: %v", err)
	}
	execs, err = repo.ListActiveRuleExecutions(ctx)
	if err != nil {
		t.Fatalf("ListActiveRuleExecutions: %v", err)
	}
	if len(execs) != 0 {
		t.Errorf("deactivated rule still returned, got %d executions", len(execs))
	}
}

func TestCardAndChargeRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	cardID, err := repo.CreateCard(ctx, core.CreditCard{Name: "main", ClosingDay: 20, DueDay: 5})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	chargeID, err := repo.CreateCardCharge(ctx, core.CardCharge{
		CardID: cardID,
		Date:   core.NewDate(2025, 2, 10),
		Amount: core.Money{Cents: 30_000},
	})
	if err != nil {
		t.Fatalf("CreateCardCharge: %v", err)
	}

	cards, err := repo.ListCards(ctx)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 1 || cards[0].Name != "main" || cards[0].ClosingDay != 20 {
		t.Errorf("card round trip mismatch: %+v", cards)
	}

	charges, err := repo.ListCardCharges(ctx)
	if err != nil {
		t.Fatalf("ListCardCharges: %v", err)
	}
	if len(charges) != 1 || charges[0].ID != chargeID || charges[0].CardID != cardID {
		t.Errorf("charge round trip mismatch: %+v", charges)
	}

	if err := repo.DeleteCardCharge(ctx, chargeID); err != nil {
		t.Fatalf("DeleteCardCharge: %v", err)
	}
	if err := repo.DeleteCard(ctx, cardID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
}

func TestDebtRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	withDue, err := repo.CreateDebt(ctx, core.Debt{Amount: core.Money{Cents: 75_000}, DueDate: core.NewDate(2025, 6, 15)})
	if err != nil {
		t.Fatalf("CreateDebt: %v", err)
	}
	_, err = repo.CreateDebt(ctx, core.Debt{Amount: core.Money{Cents: 20_000}})
	if err != nil {
		t.Fatalf("CreateDebt: %v", err)
	}

	debts, err := repo.ListDebts(ctx)
	if err != nil {
		t.Fatalf("ListDebts: %v", err)
	}
	if len(debts) != 2 {
		t.Fatalf("len = %d, want 2", len(debts))
	}

	var dated, undated *core.Debt
	for i := range debts {
		if debts[i].ID == withDue {
			dated = &debts[i]
		} else {
			undated = &debts[i]
		}
	}
	if dated == nil || !dated.DueDate.Equal(core.NewDate(2025, 6, 15).Time) {
		t.Errorf("dated debt mismatch: %+v", dated)
	}
	if undated == nil || !undated.DueDate.IsZero() {
		t.Errorf("undated debt should have zero due date: %+v", undated)
	}
}

func TestPaidStatements(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	st := PaidStatement{CardID: 7, DueYear: 2025, DueMonth: 3}
	if err := repo.MarkStatementPaid(ctx, st); err != nil {
		t.Fatalf("MarkStatementPaid: %v", err)
	}
	// Marking twice must be idempotent.
	if err := repo.MarkStatementPaid(ctx, st); err != nil {
		t.Fatalf("MarkStatementPaid (repeat): %v", err)
	}

	paid, err := repo.ListPaidStatements(ctx)
	if err != nil {
		t.Fatalf("ListPaidStatements: %v", err)
	}
	if len(paid) != 1 || paid[0] != st {
		t.Errorf("paid statements = %+v, want exactly %+v", paid, st)
	}

	if err := repo.UnmarkStatementPaid(ctx, st); err != nil {
		t.Fatalf("UnmarkStatementPaid: %v", err)
	}
	paid, err = repo.ListPaidStatements(ctx)
	if err != nil {
		t.Fatalf("ListPaidStatements: %v", err)
	}
	if len(paid) != 0 {
		t.Errorf("paid statements after unmark = %+v, want none", paid)
	}
}

func TestCurrentBalance(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	cents, err := repo.GetCurrentBalance(ctx)
	if err != nil {
		t.Fatalf("GetCurrentBalance: %v", err)
	}
	if cents != 0 {
		t.Errorf("initial balance = %d, want 0", cents)
	}

	if err := repo.SetCurrentBalance(ctx, -12_345); err != nil {
		t.Fatalf("SetCurrentBalance: %v", err)
	}
	cents, err = repo.GetCurrentBalance(ctx)
	if err != nil {
		t.Fatalf("GetCurrentBalance: %v", err)
	}
	if cents != -12_345 {
		t.Errorf("balance = %d, want -12345", cents)
	}
}
