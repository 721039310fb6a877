package loan

import (
	"fmt"
	"math"
)

// Schedule is the output of the generator: the full installment sequence
// plus the aggregate totals derived from it.
type Schedule struct {
	Installments  []Installment
	TotalInterest float64
	TotalPayable  float64
}

func (t Terms) Validate() error {
	if t.Principal <= 0 {
		return fmt.Errorf("%w: principal must be greater than zero", ErrInvalidLoanTerms)
	}
	if t.MonthlyRate < 0 {
		return fmt.Errorf("%w: monthly rate cannot be negative", ErrInvalidLoanTerms)
	}
	if t.TermCount < 1 {
		return fmt.Errorf("%w: term count must be at least one", ErrInvalidLoanTerms)
	}
	if !t.Frequency.Valid() {
		return fmt.Errorf("%w: unknown payment frequency %q", ErrInvalidLoanTerms, t.Frequency)
	}
	if !t.Method.Valid() {
		return fmt.Errorf("%w: unknown amortization method %q", ErrInvalidLoanTerms, t.Method)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidLoanTerms)
	}
	return nil
}

// periodRate converts the nominal monthly rate (percent) to the rate of one
// payment period. The division by 2 and 4 is a linear approximation, not a
// compounding conversion; kept for compatibility with existing schedules.
func (t Terms) periodRate() float64 {
	rate := t.MonthlyRate / 100
	switch t.Frequency {
	case FrequencyWeekly:
		return rate / 4
	case FrequencyBiweekly:
		return rate / 2
	default:
		return rate
	}
}

// stepDays is the fixed day count between consecutive due dates. Due dates
// use a flat day step, not calendar-month arithmetic.
func (t Terms) stepDays() int {
	switch t.Frequency {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 15
	default:
		return 30
	}
}

// GenerateSchedule produces the amortization schedule for the given terms.
// It is a pure function: no shared state, safe to call concurrently for
// live previews while a creation path runs.
//
// FRENCH yields a level payment from the annuity formula with decreasing
// interest and increasing capital per period; the final period's capital
// consumes the remaining balance exactly, so the terminal balance is zero.
// SIMPLE (flat rate) charges interest on the original principal every
// period and splits capital evenly, yielding a constant installment.
func GenerateSchedule(t Terms) (*Schedule, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	rate := t.periodRate()
	n := t.TermCount

	var payment float64
	switch {
	case t.Method == MethodSimple:
		payment = t.Principal/float64(n) + t.Principal*rate
	case rate == 0:
		payment = t.Principal / float64(n)
	default:
		pow := math.Pow(1+rate, float64(n))
		payment = t.Principal * (rate * pow) / (pow - 1)
	}

	installments := make([]Installment, 0, n)
	balance := t.Principal
	totalInterest := 0.0
	dueDate := t.StartDate

	for i := 1; i <= n; i++ {
		dueDate = dueDate.AddDate(0, 0, t.stepDays())

		var interestPart, capitalPart float64
		if t.Method == MethodFrench {
			interestPart = balance * rate
			capitalPart = payment - interestPart
			if i == n {
				// Absorb rounding residue so the loan reconciles to zero.
				capitalPart = balance
			}
		} else {
			interestPart = t.Principal * rate
			capitalPart = t.Principal / float64(n)
		}

		balance -= capitalPart
		if balance < 0 || i == n {
			balance = 0
		}

		installments = append(installments, Installment{
			Number:           i,
			DueDate:          dueDate,
			Amount:           interestPart + capitalPart,
			InterestPart:     interestPart,
			CapitalPart:      capitalPart,
			BalanceRemaining: balance,
			Status:           InstallmentPending,
			PaidAmount:       0,
		})
		totalInterest += interestPart
	}

	return &Schedule{
		Installments:  installments,
		TotalInterest: totalInterest,
		TotalPayable:  t.Principal + totalInterest,
	}, nil
}
