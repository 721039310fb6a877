package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func activeLoan(t *testing.T) *Loan {
	t.Helper()
	schedule, err := GenerateSchedule(baseTerms())
	assert.NoError(t, err)
	return &Loan{
		Status:       StatusActive,
		TermCount:    len(schedule.Installments),
		Installments: schedule.Installments,
	}
}

func payInstallment(l *Loan, number int) {
	now := time.Now()
	for i := range l.Installments {
		if l.Installments[i].Number == number {
			l.Installments[i].Status = InstallmentPaid
			l.Installments[i].PaidAmount = l.Installments[i].Amount
			l.Installments[i].PaidDate = &now
		}
	}
	l.deriveStatus()
}

func TestLoanOutstanding(t *testing.T) {
	t.Run("tracks the first unsettled installment", func(t *testing.T) {
		l := activeLoan(t)
		assert.InDelta(t, 682.79, l.Outstanding(), 0.01)

		payInstallment(l, 1)
		assert.InDelta(t, 349.72, l.Outstanding(), 0.01)
	})

	t.Run("is zero once everything is paid", func(t *testing.T) {
		l := activeLoan(t)
		for n := 1; n <= l.TermCount; n++ {
			payInstallment(l, n)
		}
		assert.Equal(t, 0.0, l.Outstanding())
	})
}

func TestLoanProgress(t *testing.T) {
	l := activeLoan(t)
	assert.Equal(t, 0.0, l.Progress())

	payInstallment(l, 1)
	assert.InDelta(t, 33.33, l.Progress(), 0.01)

	payInstallment(l, 2)
	payInstallment(l, 3)
	assert.Equal(t, 100.0, l.Progress())
}

func TestLoanDeriveStatus(t *testing.T) {
	t.Run("completes when all installments are settled", func(t *testing.T) {
		l := activeLoan(t)
		for n := 1; n <= l.TermCount; n++ {
			payInstallment(l, n)
		}
		assert.Equal(t, StatusCompleted, l.Status)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		l := activeLoan(t)
		for n := 1; n <= l.TermCount; n++ {
			payInstallment(l, n)
		}
		l.deriveStatus()
		assert.Equal(t, StatusCompleted, l.Status)
	})

	t.Run("defaulted loan cures once no installment remains overdue", func(t *testing.T) {
		l := activeLoan(t)
		l.Installments[0].Status = InstallmentOverdue
		l.Status = StatusDefaulted

		payInstallment(l, 1)
		assert.Equal(t, StatusActive, l.Status)
	})

	t.Run("defaulted loan stays defaulted while another installment is overdue", func(t *testing.T) {
		l := activeLoan(t)
		l.Installments[0].Status = InstallmentOverdue
		l.Installments[1].Status = InstallmentOverdue
		l.Status = StatusDefaulted

		payInstallment(l, 1)
		assert.Equal(t, StatusDefaulted, l.Status)
	})
}

func TestLoanClone(t *testing.T) {
	l := activeLoan(t)
	payInstallment(l, 1)
	l.Advisory = &RiskAdvisory{RiskLevel: "LOW", Score: 90}

	cp := l.Clone()
	cp.Installments[0].Status = InstallmentPending
	cp.Installments[0].PaidDate = nil
	cp.Advisory.RiskLevel = "HIGH"

	assert.Equal(t, InstallmentPaid, l.Installments[0].Status)
	assert.NotNil(t, l.Installments[0].PaidDate)
	assert.Equal(t, "LOW", l.Advisory.RiskLevel)
}
