package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"crediflow/internal/domain/loan"
)

// LoanRepository keeps the loan collection in process memory. All access
// goes through one mutex, so read-modify-write cycles on a single loan are
// serialized; Update mutates a copy and swaps it in only when the closure
// succeeds, leaving no partial state behind on error.
type LoanRepository struct {
	mu     sync.RWMutex
	loans  map[uuid.UUID]*loan.Loan
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(logger *slog.Logger) *LoanRepository {
	return &LoanRepository{
		loans:  make(map[uuid.UUID]*loan.Loan),
		logger: logger.With(slog.String("component", "memoryLoanRepository")),
	}
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loans[l.ID]; exists {
		return fmt.Errorf("loan %s already exists", l.ID)
	}
	r.loans[l.ID] = l.Clone()
	r.logger.DebugContext(ctx, "Loan saved", slog.String("loanID", l.ID.String()))
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.loans[loanID]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	return l.Clone(), nil
}

func (r *LoanRepository) FindAll(ctx context.Context) ([]*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*loan.Loan, 0, len(r.loans))
	for _, l := range r.loans {
		result = append(result, l.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *LoanRepository) FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*loan.Loan
	for _, l := range r.loans {
		if l.ClientID == clientID {
			result = append(result, l.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *LoanRepository) Update(ctx context.Context, loanID uuid.UUID, mutate func(l *loan.Loan) error) (*loan.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.loans[loanID]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}

	working := stored.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	r.loans[loanID] = working
	return working.Clone(), nil
}
