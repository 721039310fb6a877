package loan

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidLoanTerms = errors.New("invalid loan terms")

	ErrUnknownClient = errors.New("unknown client")

	ErrLoanNotFound = errors.New("loan not found")

	ErrInstallmentNotFound = errors.New("installment not found")

	ErrAlreadySettled = errors.New("installment already settled")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusDefaulted Status = "DEFAULTED"
)

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPartial InstallmentStatus = "PARTIAL"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

type Method string

const (
	MethodFrench Method = "FRENCH"
	MethodSimple Method = "SIMPLE"
)

func (m Method) Valid() bool {
	return m == MethodFrench || m == MethodSimple
}

// Terms are the immutable parameters of a loan. MonthlyRate is the nominal
// monthly interest rate in percent (5 means 5%).
type Terms struct {
	Principal   float64
	MonthlyRate float64
	TermCount   int
	Frequency   Frequency
	Method      Method
	StartDate   time.Time
}

// Installment is one scheduled obligation within a loan. Schedule fields are
// fixed at generation time; only Status, PaidAmount and PaidDate mutate.
type Installment struct {
	Number           int               `json:"number"`
	DueDate          time.Time         `json:"dueDate"`
	Amount           float64           `json:"amount"`
	InterestPart     float64           `json:"interestPart"`
	CapitalPart      float64           `json:"capitalPart"`
	BalanceRemaining float64           `json:"balanceRemaining"`
	Status           InstallmentStatus `json:"status"`
	PaidAmount       float64           `json:"paidAmount"`
	PaidDate         *time.Time        `json:"paidDate,omitempty"`
}

func (i *Installment) Settled() bool {
	return i.Status == InstallmentPaid
}

// RiskAdvisory is display-only metadata produced by the external AI
// collaborator. It never feeds back into schedule or status computation.
type RiskAdvisory struct {
	RiskLevel      string    `json:"riskLevel"`
	Score          int       `json:"score"`
	Reasoning      string    `json:"reasoning"`
	Recommendation string    `json:"recommendation"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

type Loan struct {
	ID            uuid.UUID     `json:"id"`
	ClientID      uuid.UUID     `json:"clientId"`
	Principal     float64       `json:"principal"`
	MonthlyRate   float64       `json:"monthlyRate"`
	TermCount     int           `json:"termCount"`
	Frequency     Frequency     `json:"frequency"`
	Method        Method        `json:"method"`
	StartDate     time.Time     `json:"startDate"`
	Status        Status        `json:"status"`
	Installments  []Installment `json:"installments"`
	TotalInterest float64       `json:"totalInterest"`
	TotalPayable  float64       `json:"totalPayable"`
	Advisory      *RiskAdvisory `json:"advisory,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Outstanding is the remaining balance of the first unsettled installment,
// or zero when every installment is paid.
func (l *Loan) Outstanding() float64 {
	for i := range l.Installments {
		if !l.Installments[i].Settled() {
			return l.Installments[i].BalanceRemaining
		}
	}
	return 0
}

// Progress is the share of settled installments, in percent.
func (l *Loan) Progress() float64 {
	if l.TermCount == 0 {
		return 0
	}
	paid := 0
	for i := range l.Installments {
		if l.Installments[i].Settled() {
			paid++
		}
	}
	return float64(paid) / float64(l.TermCount) * 100
}

func (l *Loan) allSettled() bool {
	for i := range l.Installments {
		if !l.Installments[i].Settled() {
			return false
		}
	}
	return len(l.Installments) > 0
}

func (l *Loan) anyOverdue() bool {
	for i := range l.Installments {
		if l.Installments[i].Status == InstallmentOverdue {
			return true
		}
	}
	return false
}

// deriveStatus re-evaluates the loan status after an installment mutation.
// COMPLETED is terminal. A DEFAULTED loan cures back to ACTIVE once no
// installment remains OVERDUE.
func (l *Loan) deriveStatus() {
	if l.Status == StatusCompleted {
		return
	}
	if l.allSettled() {
		l.Status = StatusCompleted
		return
	}
	if l.Status == StatusDefaulted && !l.anyOverdue() {
		l.Status = StatusActive
	}
}

// Clone returns a deep copy so repository reads never alias mutable state.
func (l *Loan) Clone() *Loan {
	cp := *l
	cp.Installments = make([]Installment, len(l.Installments))
	copy(cp.Installments, l.Installments)
	for i := range cp.Installments {
		if l.Installments[i].PaidDate != nil {
			d := *l.Installments[i].PaidDate
			cp.Installments[i].PaidDate = &d
		}
	}
	if l.Advisory != nil {
		a := *l.Advisory
		cp.Advisory = &a
	}
	return &cp
}
