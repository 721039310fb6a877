package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"crediflow/internal/domain/client"
	"crediflow/internal/domain/loan"
)

// OverdueSweepJob runs the daily collection sweep: it flags installments
// past their grace window, lets the loan service transition the affected
// loans, then reconciles each client's delinquency flag with the state of
// their portfolio.
type OverdueSweepJob struct {
	loanService   loan.Service
	clientService client.Service
	logger        *slog.Logger
}

func NewOverdueSweepJob(loanSvc loan.Service, clientSvc client.Service, logger *slog.Logger) *OverdueSweepJob {
	if loanSvc == nil || clientSvc == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		loanService:   loanSvc,
		clientService: clientSvc,
		logger:        logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue sweep job.")

	newlyDefaulted, err := j.loanService.MarkOverdue(ctx, startTime)
	if err != nil {
		j.logger.ErrorContext(ctx, "Overdue marking failed, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, overdue marking failed: %w", err)
	}
	j.logger.InfoContext(ctx, "Overdue marking pass complete.", slog.Int("newly_defaulted", newlyDefaulted))

	loans, err := j.loanService.ListLoans(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list loans for delinquency reconciliation.", slog.Any("error", err))
		return fmt.Errorf("cannot reconcile delinquency, failed to list loans: %w", err)
	}

	delinquentByClient := make(map[uuid.UUID]bool)
	for _, l := range loans {
		if _, seen := delinquentByClient[l.ClientID]; !seen {
			delinquentByClient[l.ClientID] = false
		}
		if l.Status == loan.StatusDefaulted {
			delinquentByClient[l.ClientID] = true
		}
	}

	var wg sync.WaitGroup
	var reconciled, flagged, cleared, errorCount atomic.Int32

	for clientID, delinquent := range delinquentByClient {
		wg.Add(1)
		go func(id uuid.UUID, isDelinquent bool) {
			defer wg.Done()

			logCtx := j.logger.With(slog.String("clientID", id.String()))

			cust, custErr := j.clientService.GetClient(ctx, id)
			if custErr != nil {
				if errors.Is(custErr, client.ErrNotFound) {
					logCtx.WarnContext(ctx, "Loan references an unknown client, skipping.", slog.Any("error", custErr))
				} else {
					logCtx.ErrorContext(ctx, "Failed to load client for delinquency reconciliation.", slog.Any("error", custErr))
					errorCount.Add(1)
				}
				return
			}

			if cust.Delinquent != isDelinquent {
				if updateErr := j.clientService.UpdateDelinquency(ctx, id, isDelinquent); updateErr != nil {
					logCtx.ErrorContext(ctx, "Failed to update client delinquency.", slog.Any("error", updateErr))
					errorCount.Add(1)
					return
				}
				if isDelinquent {
					flagged.Add(1)
				} else {
					cleared.Add(1)
				}
			}
			reconciled.Add(1)
		}(clientID, delinquent)
	}

	wg.Wait()
	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("newly_defaulted_loans", newlyDefaulted),
		slog.Int("clients_reconciled", int(reconciled.Load())),
		slog.Int("clients_flagged_delinquent", int(flagged.Load())),
		slog.Int("clients_cleared", int(cleared.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Overdue sweep job finished with errors.")
		return fmt.Errorf("sweep completed with %d errors", errorCount.Load())
	}
	summaryLog.InfoContext(ctx, "Overdue sweep job finished successfully.")
	return nil
}
