package services

import (
	"context"
	"fmt"
	"time"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/recurrence"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/storage"
)

// RecurringProcessor effectuates due occurrences of active recurring rules
// into real transactions. It walks each rule forward from its last
// effectuation (or its start date) up to today, bounded by the expansion
// cap, so a rule that was paused for months catches up in one run.
type RecurringProcessor struct {
	storage            *storage.SQLiteRepository
	transactionService *TransactionService
	logger             *applog.Logger
}

// NewRecurringProcessor creates a new recurring rule processor
func NewRecurringProcessor(storage *storage.SQLiteRepository, transactionService *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:            storage,
		transactionService: transactionService,
		logger:             applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker),
	}
}

// ProcessDueRules effectuates every occurrence that has come due and
// returns how many transactions were created. Failures on one rule never
// stop the others.
func (p *RecurringProcessor) ProcessDueRules(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactionService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	executions, err := p.storage.ListActiveRuleExecutions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring rules: %w", err)
	}

	today := core.DateOf(now)
	p.logger.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(executions),
		"processing_date", today.Format("2006-01-02"))

	created := 0

	for _, exec := range executions {
		due, err := p.dueOccurrences(exec, today)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to expand recurring rule",
				applog.FieldRuleID, exec.Rule.ID,
				applog.FieldError, err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		for _, occurrence := range due {
			if _, err := p.transactionService.Effectuate(ctx, exec.Rule, occurrence); err != nil {
				p.logger.ErrorContext(ctx, "Failed to effectuate occurrence",
					applog.FieldRuleID, exec.Rule.ID,
					"date", occurrence.Format("2006-01-02"),
					applog.FieldError, err)
				continue
			}
			created++
		}

		if err := p.storage.UpdateRuleLastEffectuated(ctx, exec.Rule.ID, due[len(due)-1]); err != nil {
			// Continue anyway - the transactions were created
			p.logger.ErrorContext(ctx, "Failed to update last effectuation date",
				applog.FieldRuleID, exec.Rule.ID,
				applog.FieldError, err)
		}

		p.logger.InfoContext(ctx, "Effectuated recurring rule",
			applog.FieldRuleID, exec.Rule.ID,
			"occurrences", len(due),
			applog.FieldFrequency, exec.Rule.Frequency,
			applog.FieldAmountCents, exec.Rule.Amount.Cents)
	}

	p.logger.InfoContext(ctx, "Recurring rule processing complete",
		"created", created,
		"total_checked", len(executions))

	return created, nil
}

// dueOccurrences returns the rule's occurrences after its last effectuation
// and up to today, oldest first.
func (p *RecurringProcessor) dueOccurrences(exec storage.RuleExecution, today core.Date) ([]core.Date, error) {
	windowStart := exec.Rule.StartDate
	if !exec.LastEffectuated.IsZero() {
		windowStart = exec.LastEffectuated.AddDays(1)
	}
	return recurrence.Expand(exec.Rule, windowStart, today)
}
