package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"crediflow/internal/domain/client"
	"crediflow/internal/event"
	"crediflow/internal/infrastructure/monitoring"
	"crediflow/internal/pkg/apperrors"
)

// AdvisoryProvider is the external AI collaborator. Its output is attached
// to a loan as display-only metadata after the loan is committed; it never
// gates creation and its failure never reaches the caller.
type AdvisoryProvider interface {
	AnalyzeLoanRisk(ctx context.Context, c *client.Client, amount float64, termCount int) (*RiskAdvisory, error)
}

type Service interface {
	CreateLoan(ctx context.Context, clientID uuid.UUID, terms Terms) (*Loan, error)

	// PreviewSchedule computes a schedule without touching any state, for
	// live recomputation while terms are being edited.
	PreviewSchedule(terms Terms) (*Schedule, error)

	RegisterPayment(ctx context.Context, loanID uuid.UUID, installmentNumber int) (*Loan, error)

	GetLoan(ctx context.Context, loanID uuid.UUID) (*Loan, error)

	ListLoans(ctx context.Context) ([]*Loan, error)

	ListLoansByClient(ctx context.Context, clientID uuid.UUID) ([]*Loan, error)

	GetOutstanding(ctx context.Context, loanID uuid.UUID) (float64, error)

	GetProgress(ctx context.Context, loanID uuid.UUID) (float64, error)

	// MarkOverdue is the overdue-detection sweep: installments still unpaid
	// past their due date plus the grace period become OVERDUE and their
	// loan DEFAULTED. Returns the number of loans newly defaulted.
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

type serviceImpl struct {
	repo            Repository
	clients         client.Service
	pub             event.Publisher
	advisory        AdvisoryProvider
	graceDays       int
	advisoryTimeout time.Duration
	logger          *slog.Logger
}

type ServiceOptions struct {
	// Advisory is optional; a nil provider disables risk advisories.
	Advisory        AdvisoryProvider
	GraceDays       int
	AdvisoryTimeout time.Duration
}

func NewService(repo Repository, clients client.Service, pub event.Publisher, opts ServiceOptions, logger *slog.Logger) Service {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if clients == nil {
		panic("client service cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if opts.GraceDays < 0 {
		opts.GraceDays = 0
	}
	if opts.AdvisoryTimeout <= 0 {
		opts.AdvisoryTimeout = 30 * time.Second
	}
	return &serviceImpl{
		repo:            repo,
		clients:         clients,
		pub:             pub,
		advisory:        opts.Advisory,
		graceDays:       opts.GraceDays,
		advisoryTimeout: opts.AdvisoryTimeout,
		logger:          logger.With(slog.String("component", "loanService")),
	}
}

func (s *serviceImpl) CreateLoan(ctx context.Context, clientID uuid.UUID, terms Terms) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", slog.String("clientID", clientID.String()))

	schedule, err := GenerateSchedule(terms)
	if err != nil {
		s.logger.WarnContext(ctx, "Loan terms rejected", slog.Any("error", err))
		return nil, err
	}

	cust, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
		}
		s.logger.ErrorContext(ctx, "Failed to resolve client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to verify client: %w", err)
	}
	if !cust.Active {
		return nil, fmt.Errorf("%w: client %s is not active", apperrors.ErrValidation, clientID)
	}

	now := time.Now()
	l := &Loan{
		ID:            uuid.New(),
		ClientID:      clientID,
		Principal:     terms.Principal,
		MonthlyRate:   terms.MonthlyRate,
		TermCount:     terms.TermCount,
		Frequency:     terms.Frequency,
		Method:        terms.Method,
		StartDate:     terms.StartDate,
		Status:        StatusActive,
		Installments:  schedule.Installments,
		TotalInterest: schedule.TotalInterest,
		TotalPayable:  schedule.TotalPayable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}
	monitoring.RecordLoanCreated()

	created := event.LoanCreatedEvent{
		Timestamp: now,
		Payload: event.LoanEventPayload{
			LoanID:       l.ID.String(),
			ClientID:     l.ClientID.String(),
			Principal:    l.Principal,
			TermCount:    l.TermCount,
			Status:       string(l.Status),
			TotalPayable: l.TotalPayable,
			CreatedAt:    l.CreatedAt,
		},
	}
	if err := s.pub.PublishLoanCreated(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "Loan created, but failed to publish creation event", slog.Any("error", err))
	}

	if s.advisory != nil {
		go s.attachAdvisory(l.ID, cust.Clone(), terms.Principal, terms.TermCount)
	}

	s.logger.InfoContext(ctx, "Loan created",
		slog.String("loanID", l.ID.String()), slog.Int("installments", len(l.Installments)))
	return l, nil
}

// attachAdvisory runs detached from the request: the deterministic loan is
// already committed and must not wait on the external call.
func (s *serviceImpl) attachAdvisory(loanID uuid.UUID, cust *client.Client, amount float64, termCount int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.advisoryTimeout)
	defer cancel()

	advisory, err := s.advisory.AnalyzeLoanRisk(ctx, cust, amount, termCount)
	if err != nil || advisory == nil {
		s.logger.Warn("Risk advisory unavailable", slog.String("loanID", loanID.String()), slog.Any("error", err))
		return
	}

	_, err = s.repo.Update(ctx, loanID, func(l *Loan) error {
		a := *advisory
		l.Advisory = &a
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to attach risk advisory", slog.String("loanID", loanID.String()), slog.Any("error", err))
		return
	}
	s.logger.Info("Risk advisory attached",
		slog.String("loanID", loanID.String()), slog.String("riskLevel", advisory.RiskLevel))
}

func (s *serviceImpl) PreviewSchedule(terms Terms) (*Schedule, error) {
	return GenerateSchedule(terms)
}

func (s *serviceImpl) RegisterPayment(ctx context.Context, loanID uuid.UUID, installmentNumber int) (updated *Loan, err error) {
	s.logger.InfoContext(ctx, "Registering payment",
		slog.String("loanID", loanID.String()), slog.Int("installment", installmentNumber))

	defer func() {
		switch {
		case err == nil:
			monitoring.RecordPayment("success")
		case errors.Is(err, ErrAlreadySettled):
			monitoring.RecordPayment("already_settled")
		case errors.Is(err, ErrLoanNotFound), errors.Is(err, ErrInstallmentNotFound):
			monitoring.RecordPayment("not_found")
		default:
			monitoring.RecordPayment("failure_internal")
		}
	}()

	now := time.Now()
	var paidAmount float64
	var completed bool

	updated, err = s.repo.Update(ctx, loanID, func(l *Loan) error {
		var inst *Installment
		for i := range l.Installments {
			if l.Installments[i].Number == installmentNumber {
				inst = &l.Installments[i]
				break
			}
		}
		if inst == nil {
			return fmt.Errorf("%w: installment %d of loan %s", ErrInstallmentNotFound, installmentNumber, loanID)
		}
		if inst.Settled() {
			return fmt.Errorf("%w: installment %d of loan %s", ErrAlreadySettled, installmentNumber, loanID)
		}

		paidDate := now
		inst.Status = InstallmentPaid
		inst.PaidAmount = inst.Amount
		inst.PaidDate = &paidDate
		paidAmount = inst.Amount

		l.deriveStatus()
		completed = l.Status == StatusCompleted
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
		}
		s.logger.WarnContext(ctx, "Payment rejected", slog.Any("error", err))
		return nil, err
	}

	if completed {
		monitoring.RecordLoanCompleted()
	}

	registered := event.PaymentRegisteredEvent{
		Timestamp:         now,
		LoanID:            loanID.String(),
		InstallmentNumber: installmentNumber,
		PaidAmount:        paidAmount,
		LoanStatus:        string(updated.Status),
	}
	if pubErr := s.pub.PublishPaymentRegistered(ctx, registered); pubErr != nil {
		s.logger.ErrorContext(ctx, "Payment registered, but failed to publish event", slog.Any("error", pubErr))
	}

	s.logger.InfoContext(ctx, "Payment registered",
		slog.String("loanID", loanID.String()),
		slog.Int("installment", installmentNumber),
		slog.String("loanStatus", string(updated.Status)))
	return updated, nil
}

func (s *serviceImpl) GetLoan(ctx context.Context, loanID uuid.UUID) (*Loan, error) {
	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", slog.String("loanID", loanID.String()), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

func (s *serviceImpl) ListLoans(ctx context.Context) ([]*Loan, error) {
	loans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list loans: %v", apperrors.ErrInternalServer, err)
	}
	return loans, nil
}

func (s *serviceImpl) ListLoansByClient(ctx context.Context, clientID uuid.UUID) ([]*Loan, error) {
	loans, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans by client",
			slog.String("clientID", clientID.String()), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list loans for client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}
	return loans, nil
}

func (s *serviceImpl) GetOutstanding(ctx context.Context, loanID uuid.UUID) (float64, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return 0, err
	}
	return l.Outstanding(), nil
}

func (s *serviceImpl) GetProgress(ctx context.Context, loanID uuid.UUID) (float64, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return 0, err
	}
	return l.Progress(), nil
}

func (s *serviceImpl) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	s.logger.InfoContext(ctx, "Running overdue sweep",
		slog.Time("asOf", asOf), slog.Int("graceDays", s.graceDays))

	loans, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to list loans for sweep: %v", apperrors.ErrInternalServer, err)
	}

	threshold := asOf.AddDate(0, 0, -s.graceDays)
	defaulted := 0

	for _, candidate := range loans {
		if candidate.Status == StatusCompleted {
			continue
		}
		if !hasInstallmentPastDue(candidate, threshold) {
			continue
		}

		var ev event.LoanDefaultedEvent
		wasDefaulted := candidate.Status == StatusDefaulted
		_, err := s.repo.Update(ctx, candidate.ID, func(l *Loan) error {
			overdueCount := 0
			var oldest time.Time
			for i := range l.Installments {
				inst := &l.Installments[i]
				if installmentPastDue(inst, threshold) {
					inst.Status = InstallmentOverdue
				}
				if inst.Status == InstallmentOverdue {
					overdueCount++
					if oldest.IsZero() || inst.DueDate.Before(oldest) {
						oldest = inst.DueDate
					}
				}
			}
			if overdueCount == 0 {
				return nil
			}
			l.Status = StatusDefaulted
			l.UpdatedAt = asOf
			ev = event.LoanDefaultedEvent{
				Timestamp:         asOf,
				LoanID:            l.ID.String(),
				ClientID:          l.ClientID.String(),
				OverdueCount:      overdueCount,
				OldestDueDate:     oldest,
				DaysPastThreshold: s.graceDays,
			}
			return nil
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to mark loan overdue",
				slog.String("loanID", candidate.ID.String()), slog.Any("error", err))
			continue
		}

		if !wasDefaulted {
			defaulted++
			monitoring.RecordLoanDefaulted()
			if pubErr := s.pub.PublishLoanDefaulted(ctx, ev); pubErr != nil {
				s.logger.ErrorContext(ctx, "Failed to publish loan defaulted event", slog.Any("error", pubErr))
			}
		}
	}

	s.logger.InfoContext(ctx, "Overdue sweep finished",
		slog.Int("checked", len(loans)), slog.Int("newlyDefaulted", defaulted))
	return defaulted, nil
}

func installmentPastDue(inst *Installment, threshold time.Time) bool {
	if inst.Status != InstallmentPending && inst.Status != InstallmentPartial {
		return false
	}
	return inst.DueDate.Before(threshold)
}

func hasInstallmentPastDue(l *Loan, threshold time.Time) bool {
	for i := range l.Installments {
		if installmentPastDue(&l.Installments[i], threshold) {
			return true
		}
	}
	return false
}
