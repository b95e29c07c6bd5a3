package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRepository persists the forecasting entities. The engine packages
// never touch it; the HTTP layer and the worker load collections from here
// and hand them to the engine as plain values.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

// PaidStatement is one statement flagged as already paid, keyed by card and
// due period.
type PaidStatement struct {
	CardID   int64
	DueYear  int
	DueMonth int
}

// RuleExecution pairs a recurring rule with the date it was last
// effectuated, for the worker's dueness walk.
type RuleExecution struct {
	Rule            core.RecurringRule
	LastEffectuated core.Date // zero when never effectuated
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, flow_type, amount_cents) VALUES (?, ?, ?)`,
		t.Date.Format(dateLayout), string(t.Type), t.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		"id", id,
		applog.FieldFlowType, t.Type,
		applog.FieldAmountCents, t.Amount.Cents,
		"date", t.Date.Format(dateLayout))
	return id, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, flow_type, amount_cents FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date, flow string
		if err := rows.Scan(&t.ID, &date, &flow, &t.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.FlowType(flow)
		if t.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// --- recurring rules ---

func (r *SQLiteRepository) CreateRecurringRule(ctx context.Context, rule core.RecurringRule) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_rules (flow_type, amount_cents, active, start_date, end_date, frequency, day_of_month, day_of_week)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rule.Type), rule.Amount.Cents, rule.Active,
		rule.StartDate.Format(dateLayout), nullableDate(rule.EndDate),
		string(rule.Frequency), rule.DayOfMonth, rule.DayOfWeek)
	if err != nil {
		return 0, fmt.Errorf("create recurring rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring rule insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Recurring rule saved",
		"id", id,
		applog.FieldFrequency, rule.Frequency,
		applog.FieldFlowType, rule.Type,
		applog.FieldAmountCents, rule.Amount.Cents)
	return id, nil
}

func (r *SQLiteRepository) ListRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, flow_type, amount_cents, active, start_date, end_date, frequency, day_of_month, day_of_week
		 FROM recurring_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// ListActiveRuleExecutions returns every active rule together with its last
// effectuation date, for the worker.
func (r *SQLiteRepository) ListActiveRuleExecutions(ctx context.Context) ([]RuleExecution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, flow_type, amount_cents, active, start_date, end_date, frequency, day_of_month, day_of_week, last_effectuated
		 FROM recurring_rules WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var out []RuleExecution
	for rows.Next() {
		var rule core.RecurringRule
		var flow, frequency, startDate string
		var endDate, lastEffectuated sql.NullString
		if err := rows.Scan(&rule.ID, &flow, &rule.Amount.Cents, &rule.Active,
			&startDate, &endDate, &frequency, &rule.DayOfMonth, &rule.DayOfWeek, &lastEffectuated); err != nil {
			return nil, fmt.Errorf("scan rule execution: %w", err)
		}
		rule.Type = core.FlowType(flow)
		rule.Frequency = core.Frequency(frequency)
		if rule.StartDate, err = parseDate(startDate); err != nil {
			return nil, fmt.Errorf("rule %d: %w", rule.ID, err)
		}
		if endDate.Valid {
			if rule.EndDate, err = parseDate(endDate.String); err != nil {
				return nil, fmt.Errorf("rule %d: %w", rule.ID, err)
			}
		}
		exec := RuleExecution{Rule: rule}
		if lastEffectuated.Valid {
			if exec.LastEffectuated, err = parseDate(lastEffectuated.String); err != nil {
				return nil, fmt.Errorf("rule %d: %w", rule.ID, err)
			}
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetRuleActive(ctx context.Context, id int64, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE recurring_rules SET active = ? WHERE id = ?`, active, id); err != nil {
		return fmt.Errorf("set rule active: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateRuleLastEffectuated(ctx context.Context, id int64, date core.Date) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET last_effectuated = ? WHERE id = ?`,
		date.Format(dateLayout), id); err != nil {
		return fmt.Errorf("update rule last effectuation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurringRule(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	return nil
}

// --- cards and charges ---

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (name, closing_day, due_day) VALUES (?, ?, ?)`,
		c.Name, c.ClosingDay, c.DueDay)
	if err != nil {
		return 0, fmt.Errorf("create card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("card insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Card saved",
		"id", id,
		"name", c.Name,
		"closing_day", c.ClosingDay,
		"due_day", c.DueDay)
	return id, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, closing_day, due_day FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		if err := rows.Scan(&c.ID, &c.Name, &c.ClosingDay, &c.DueDay); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateCardCharge(ctx context.Context, c core.CardCharge) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO card_charges (card_id, date, amount_cents) VALUES (?, ?, ?)`,
		c.CardID, c.Date.Format(dateLayout), c.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("create card charge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("card charge insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Card charge saved",
		"id", id,
		applog.FieldCardID, c.CardID,
		applog.FieldAmountCents, c.Amount.Cents,
		"date", c.Date.Format(dateLayout))
	return id, nil
}

func (r *SQLiteRepository) ListCardCharges(ctx context.Context) ([]core.CardCharge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_id, date, amount_cents FROM card_charges ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list card charges: %w", err)
	}
	defer rows.Close()

	var out []core.CardCharge
	for rows.Next() {
		var c core.CardCharge
		var date string
		if err := rows.Scan(&c.ID, &c.CardID, &date, &c.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan card charge: %w", err)
		}
		if c.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("card charge %d: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCardCharge(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM card_charges WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete card charge: %w", err)
	}
	return nil
}

// --- debts ---

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (amount_cents, due_date) VALUES (?, ?)`,
		d.Amount.Cents, nullableDate(d.DueDate))
	if err != nil {
		return 0, fmt.Errorf("create debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("debt insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Debt saved", "id", id, applog.FieldAmountCents, d.Amount.Cents)
	return id, nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, amount_cents, due_date FROM debts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var d core.Debt
		var due sql.NullString
		if err := rows.Scan(&d.ID, &d.Amount.Cents, &due); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		if due.Valid {
			if d.DueDate, err = parseDate(due.String); err != nil {
				return nil, fmt.Errorf("debt %d: %w", d.ID, err)
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

// --- paid statements ---

func (r *SQLiteRepository) MarkStatementPaid(ctx context.Context, s PaidStatement) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO paid_statements (card_id, due_year, due_month) VALUES (?, ?, ?)`,
		s.CardID, s.DueYear, s.DueMonth); err != nil {
		return fmt.Errorf("mark statement paid: %w", err)
	}

	r.logger.InfoContext(ctx, "Statement marked paid",
		applog.FieldCardID, s.CardID, "due_year", s.DueYear, "due_month", s.DueMonth)
	return nil
}

func (r *SQLiteRepository) UnmarkStatementPaid(ctx context.Context, s PaidStatement) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM paid_statements WHERE card_id = ? AND due_year = ? AND due_month = ?`,
		s.CardID, s.DueYear, s.DueMonth); err != nil {
		return fmt.Errorf("unmark statement paid: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListPaidStatements(ctx context.Context) ([]PaidStatement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT card_id, due_year, due_month FROM paid_statements`)
	if err != nil {
		return nil, fmt.Errorf("list paid statements: %w", err)
	}
	defer rows.Close()

	var out []PaidStatement
	for rows.Next() {
		var s PaidStatement
		if err := rows.Scan(&s.CardID, &s.DueYear, &s.DueMonth); err != nil {
			return nil, fmt.Errorf("scan paid statement: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- settings ---

func (r *SQLiteRepository) GetCurrentBalance(ctx context.Context) (int64, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'current_balance_cents'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get current balance: %w", err)
	}
	cents, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse current balance %q: %w", value, err)
	}
	return cents, nil
}

func (r *SQLiteRepository) SetCurrentBalance(ctx context.Context, cents int64) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('current_balance_cents', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatInt(cents, 10)); err != nil {
		return fmt.Errorf("set current balance: %w", err)
	}

	r.logger.InfoContext(ctx, "Current balance updated", applog.FieldAmountCents, cents)
	return nil
}

// --- helpers ---

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format(dateLayout)
}

type ruleScanner interface {
	Scan(dest ...any) error
}

func scanRule(row ruleScanner) (core.RecurringRule, error) {
	var rule core.RecurringRule
	var flow, frequency, startDate string
	var endDate sql.NullString
	if err := row.Scan(&rule.ID, &flow, &rule.Amount.Cents, &rule.Active,
		&startDate, &endDate, &frequency, &rule.DayOfMonth, &rule.DayOfWeek); err != nil {
		return rule, fmt.Errorf("scan recurring rule: %w", err)
	}
	rule.Type = core.FlowType(flow)
	rule.Frequency = core.Frequency(frequency)
	var err error
	if rule.StartDate, err = parseDate(startDate); err != nil {
		return rule, fmt.Errorf("rule %d: %w", rule.ID, err)
	}
	if endDate.Valid {
		if rule.EndDate, err = parseDate(endDate.String); err != nil {
			return rule, fmt.Errorf("rule %d: %w", rule.ID, err)
		}
	}
	return rule, nil
}
