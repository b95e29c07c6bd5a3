// Package forecast merges transactions, recurring rules, card statements and
// debts into a single per-day balance timeline for one calendar month.
package forecast

import (
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/billing"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/recurrence"
)

// PaidStatementKey identifies one card statement by its due period. Marking
// a statement paid removes every charge composing it from the forecast.
type PaidStatementKey struct {
	CardID   int64
	DueYear  int
	DueMonth int
}

// Request carries everything a month forecast needs. The engine only reads
// the collections; callers own them. Reference anchors "the current month":
// MonthOffset is counted from it.
type Request struct {
	Reference      core.Date
	MonthOffset    int
	CurrentBalance core.Money // balance as of Reference; may be negative
	Transactions   []core.Transaction
	Rules          []core.RecurringRule
	Cards          []core.CreditCard
	Charges        []core.CardCharge
	PaidStatements map[PaidStatementKey]bool
	Debts          []core.Debt
}

// DayBalance is one point of the projected-balance line.
type DayBalance struct {
	Day       int
	Projected core.Money
}

// Result is the forecast for one calendar month. FinalRealizedBalance
// reflects only transactions that actually happened; the daily series and
// FinalProjectedBalance additionally include recurring occurrences, unpaid
// card statements and due debts.
type Result struct {
	Year                  int
	Month                 int
	InitialBalance        core.Money
	FinalRealizedBalance  core.Money
	FinalProjectedBalance core.Money
	DailySeries           []DayBalance
}

// Month produces the balance forecast for the month MonthOffset months away
// from the request's reference date.
//
// For a future month the starting balance is carried forward by folding each
// intervening month's net flow (transactions, recurring occurrences and
// unpaid statement dues) onto the current balance. Debts are excluded from
// that fold and only hit the target month itself. Past months are not
// reconstructed: they seed from the current balance and never re-expand
// recurrences.
//
// Month never fails: unknown card references and unexpandable rules
// contribute nothing, so a forecast always renders even over partially
// inconsistent data.
func Month(req Request) Result {
	year, month := targetMonth(req.Reference, req.MonthOffset)
	lastDay := core.LastDayOfMonth(year, month)

	cards := cardIndex(req.Cards)

	initial := req.CurrentBalance.Cents
	if req.MonthOffset > 0 {
		for k := 0; k < req.MonthOffset; k++ {
			y, m := targetMonth(req.Reference, k)
			initial += monthNetFlow(req, cards, y, m)
		}
	}

	// Per-day signed deltas, indexed by day of month.
	realized := make([]int64, lastDay+1)
	projected := make([]int64, lastDay+1)

	// Real transactions count on both tracks: they already happened.
	for _, t := range req.Transactions {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		d := t.Delta().Cents
		realized[t.Date.Day()] += d
		projected[t.Date.Day()] += d
	}

	// Card installments land on the statement due date, unless the whole
	// statement is flagged paid.
	for _, charge := range req.Charges {
		card, ok := cards[charge.CardID]
		if !ok {
			continue
		}
		st := billing.ResolveStatement(card, charge.Date)
		if !st.DueIn(year, month) {
			continue
		}
		if req.PaidStatements[PaidStatementKey{CardID: card.ID, DueYear: st.DueYear, DueMonth: st.DueMonth}] {
			continue
		}
		projected[st.DueDate(card).Day()] -= charge.Amount.Cents
	}

	// Recurring occurrences are projected for the current month and future
	// months only; past months never re-expand.
	if req.MonthOffset >= 0 {
		first := core.NewDate(year, month, 1)
		last := core.NewDate(year, month, lastDay)
		for _, rule := range req.Rules {
			occurrences, err := recurrence.Expand(rule, first, last)
			if err != nil {
				continue
			}
			for _, occ := range occurrences {
				projected[occ.Day()] += rule.Delta().Cents
			}
		}
	}

	for _, debt := range req.Debts {
		if debt.DueDate.IsZero() || debt.DueDate.Year() != year || debt.DueDate.Month() != month {
			continue
		}
		projected[debt.DueDate.Day()] -= debt.Amount.Cents
	}

	res := Result{
		Year:           year,
		Month:          month,
		InitialBalance: core.Money{Cents: initial},
		DailySeries:    make([]DayBalance, 0, lastDay),
	}
	projectedBalance := initial
	realizedBalance := initial
	for day := 1; day <= lastDay; day++ {
		projectedBalance += projected[day]
		realizedBalance += realized[day]
		res.DailySeries = append(res.DailySeries, DayBalance{Day: day, Projected: core.Money{Cents: projectedBalance}})
	}
	res.FinalProjectedBalance = core.Money{Cents: projectedBalance}
	res.FinalRealizedBalance = core.Money{Cents: realizedBalance}
	return res
}

// targetMonth shifts the reference month by offset, rolling years as needed.
func targetMonth(reference core.Date, offset int) (year, month int) {
	shifted := core.NewDate(reference.Year(), reference.Month(), 1).AddDate(0, offset, 0)
	return shifted.Year(), int(shifted.Month())
}

func cardIndex(cards []core.CreditCard) map[int64]core.CreditCard {
	idx := make(map[int64]core.CreditCard, len(cards))
	for _, c := range cards {
		idx[c.ID] = c
	}
	return idx
}

// monthNetFlow is the carried-forward net movement of one month: realized
// transactions, recurring occurrences and unpaid statement dues. Debts are
// excluded (see Month).
func monthNetFlow(req Request, cards map[int64]core.CreditCard, year, month int) int64 {
	var net int64

	for _, t := range req.Transactions {
		if t.Date.Year() == year && t.Date.Month() == month {
			net += t.Delta().Cents
		}
	}

	first := core.NewDate(year, month, 1)
	last := core.NewDate(year, month, core.LastDayOfMonth(year, month))
	for _, rule := range req.Rules {
		occurrences, err := recurrence.Expand(rule, first, last)
		if err != nil {
			continue
		}
		net += rule.Delta().Cents * int64(len(occurrences))
	}

	for _, charge := range req.Charges {
		card, ok := cards[charge.CardID]
		if !ok {
			continue
		}
		st := billing.ResolveStatement(card, charge.Date)
		if !st.DueIn(year, month) {
			continue
		}
		if req.PaidStatements[PaidStatementKey{CardID: card.ID, DueYear: st.DueYear, DueMonth: st.DueMonth}] {
			continue
		}
		net -= charge.Amount.Cents
	}

	return net
}
