// Package services orchestrates storage and messaging around the engine
// packages.
package services

import (
	"context"
	"fmt"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/amqp"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/storage"
)

// TransactionService persists effectuated transactions and announces them
// on AMQP. A nil AMQP client degrades to storage-only operation.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logger     *applog.Logger
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		logger:     applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker),
	}
}

// Effectuate turns one due occurrence of a rule into a real transaction.
// The transaction is saved first; a failed event publish is logged but
// never undoes the save.
func (s *TransactionService) Effectuate(ctx context.Context, rule core.RecurringRule, date core.Date) (int64, error) {
	t := core.Transaction{
		Date:   date,
		Type:   rule.Type,
		Amount: rule.Amount,
	}
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("effectuated transaction invalid: %w", err)
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save effectuated transaction: %w", err)
	}

	if s.amqpClient == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping transaction event")
		return id, nil
	}
	event := amqp.NewTransactionEvent(id, rule.ID, date.Year(), date.Month())
	if err := s.amqpClient.PublishTransactionEvent(ctx, event); err != nil {
		// Don't fail the effectuation - the transaction is saved locally
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", id, applog.FieldRuleID, rule.ID, applog.FieldError, err)
	}

	return id, nil
}

// Close closes both storage and AMQP connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
