package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"crediflow/internal/domain/loan"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

func testLoan() *loan.Loan {
	now := time.Now()
	return &loan.Loan{
		ID:        uuid.New(),
		ClientID:  uuid.New(),
		Principal: 1000,
		TermCount: 2,
		Status:    loan.StatusActive,
		Installments: []loan.Installment{
			{Number: 1, Amount: 525, BalanceRemaining: 500, Status: loan.InstallmentPending},
			{Number: 2, Amount: 525, BalanceRemaining: 0, Status: loan.InstallmentPending},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestLoanRepositorySaveAndFind(t *testing.T) {
	repo := NewLoanRepository(testLogger)
	l := testLoan()

	assert.NoError(t, repo.Save(context.Background(), l))
	assert.Error(t, repo.Save(context.Background(), l))

	found, err := repo.FindByID(context.Background(), l.ID)
	assert.NoError(t, err)
	assert.Equal(t, l.ID, found.ID)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
}

func TestLoanRepositoryReadsAreIsolated(t *testing.T) {
	repo := NewLoanRepository(testLogger)
	l := testLoan()
	assert.NoError(t, repo.Save(context.Background(), l))

	// Mutating the saved pointer or a read result must not leak into the store.
	l.Installments[0].Status = loan.InstallmentPaid

	first, err := repo.FindByID(context.Background(), l.ID)
	assert.NoError(t, err)
	assert.Equal(t, loan.InstallmentPending, first.Installments[0].Status)

	first.Installments[0].Status = loan.InstallmentOverdue
	second, err := repo.FindByID(context.Background(), l.ID)
	assert.NoError(t, err)
	assert.Equal(t, loan.InstallmentPending, second.Installments[0].Status)
}

func TestLoanRepositoryFindByClientID(t *testing.T) {
	repo := NewLoanRepository(testLogger)
	clientID := uuid.New()

	for i := 0; i < 3; i++ {
		l := testLoan()
		if i < 2 {
			l.ClientID = clientID
		}
		l.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		assert.NoError(t, repo.Save(context.Background(), l))
	}

	mine, err := repo.FindByClientID(context.Background(), clientID)
	assert.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.True(t, mine[0].CreatedAt.Before(mine[1].CreatedAt))

	all, err := repo.FindAll(context.Background())
	assert.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLoanRepositoryUpdate(t *testing.T) {
	t.Run("swaps in the mutated copy on success", func(t *testing.T) {
		repo := NewLoanRepository(testLogger)
		l := testLoan()
		assert.NoError(t, repo.Save(context.Background(), l))

		updated, err := repo.Update(context.Background(), l.ID, func(l *loan.Loan) error {
			l.Installments[0].Status = loan.InstallmentPaid
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, loan.InstallmentPaid, updated.Installments[0].Status)

		stored, err := repo.FindByID(context.Background(), l.ID)
		assert.NoError(t, err)
		assert.Equal(t, loan.InstallmentPaid, stored.Installments[0].Status)
	})

	t.Run("leaves the stored loan untouched when the closure fails", func(t *testing.T) {
		repo := NewLoanRepository(testLogger)
		l := testLoan()
		assert.NoError(t, repo.Save(context.Background(), l))

		_, err := repo.Update(context.Background(), l.ID, func(l *loan.Loan) error {
			l.Installments[0].Status = loan.InstallmentPaid
			return fmt.Errorf("boom")
		})
		assert.Error(t, err)

		stored, err := repo.FindByID(context.Background(), l.ID)
		assert.NoError(t, err)
		assert.Equal(t, loan.InstallmentPending, stored.Installments[0].Status)
	})

	t.Run("serializes concurrent read-modify-write cycles", func(t *testing.T) {
		repo := NewLoanRepository(testLogger)
		l := testLoan()
		l.TotalInterest = 0
		assert.NoError(t, repo.Save(context.Background(), l))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(context.Background(), l.ID, func(l *loan.Loan) error {
					l.TotalInterest++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.FindByID(context.Background(), l.ID)
		assert.NoError(t, err)
		assert.Equal(t, 50.0, stored.TotalInterest)
	})

	t.Run("returns not found for unknown loans", func(t *testing.T) {
		repo := NewLoanRepository(testLogger)
		_, err := repo.Update(context.Background(), uuid.New(), func(l *loan.Loan) error { return nil })
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	})
}
