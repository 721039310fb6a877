package loan

import (
	"context"

	"github.com/google/uuid"
)

// Repository owns the loan collection. Update runs the mutation closure
// atomically with respect to the targeted loan: either the closure succeeds
// and the mutated loan replaces the stored one, or the stored loan is left
// untouched.
type Repository interface {
	Save(ctx context.Context, l *Loan) error

	FindByID(ctx context.Context, loanID uuid.UUID) (*Loan, error)

	FindAll(ctx context.Context) ([]*Loan, error)

	FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*Loan, error)

	Update(ctx context.Context, loanID uuid.UUID, mutate func(l *Loan) error) (*Loan, error)
}
