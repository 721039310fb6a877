package dto

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"crediflow/internal/domain/loan"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

// FormatCurrency renders a float amount the way the dashboard shows money:
// dollar sign, two decimals.
func FormatCurrency(amount float64) string {
	return "$" + decimal.NewFromFloat(amount).StringFixed(2)
}

type LoanTermsRequest struct {
	Principal   float64 `json:"principal" validate:"gt=0"`
	MonthlyRate float64 `json:"monthlyRate" validate:"gte=0"`
	TermCount   int     `json:"termCount" validate:"gte=1"`
	Frequency   string  `json:"frequency" validate:"required,oneof=WEEKLY BIWEEKLY MONTHLY"`
	Method      string  `json:"method" validate:"required,oneof=FRENCH SIMPLE"`
	StartDate   string  `json:"startDate" validate:"required"`
}

func (r *LoanTermsRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if _, err := time.Parse(dateLayout, r.StartDate); err != nil {
		return fmt.Errorf("invalid startDate format (use YYYY-MM-DD): %w", err)
	}
	return nil
}

func (r *LoanTermsRequest) ToTerms() loan.Terms {
	startDate, _ := time.Parse(dateLayout, r.StartDate)
	return loan.Terms{
		Principal:   r.Principal,
		MonthlyRate: r.MonthlyRate,
		TermCount:   r.TermCount,
		Frequency:   loan.Frequency(r.Frequency),
		Method:      loan.Method(r.Method),
		StartDate:   startDate,
	}
}

type CreateLoanRequest struct {
	ClientID string `json:"clientId" validate:"required,uuid4"`
	LoanTermsRequest
}

func (r *CreateLoanRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	return r.LoanTermsRequest.Validate()
}

type RegisterPaymentRequest struct {
	InstallmentNumber int `json:"installmentNumber" validate:"gte=1"`
}

func (r *RegisterPaymentRequest) Validate() error {
	return validate.Struct(r)
}

type InstallmentResponse struct {
	Number           int        `json:"number"`
	DueDate          string     `json:"dueDate"`
	Amount           string     `json:"amount"`
	InterestPart     string     `json:"interestPart"`
	CapitalPart      string     `json:"capitalPart"`
	BalanceRemaining string     `json:"balanceRemaining"`
	Status           string     `json:"status"`
	PaidAmount       *string    `json:"paidAmount,omitempty"`
	PaidDate         *time.Time `json:"paidDate,omitempty"`
}

type AdvisoryResponse struct {
	RiskLevel      string    `json:"riskLevel"`
	Score          int       `json:"score"`
	Reasoning      string    `json:"reasoning"`
	Recommendation string    `json:"recommendation"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

type LoanResponse struct {
	ID            string                `json:"id"`
	ClientID      string                `json:"clientId"`
	Principal     string                `json:"principal"`
	MonthlyRate   string                `json:"monthlyRate"`
	TermCount     int                   `json:"termCount"`
	Frequency     string                `json:"frequency"`
	Method        string                `json:"method"`
	StartDate     string                `json:"startDate"`
	Status        string                `json:"status"`
	TotalInterest string                `json:"totalInterest"`
	TotalPayable  string                `json:"totalPayable"`
	Advisory      *AdvisoryResponse     `json:"advisory,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	Installments  []InstallmentResponse `json:"installments,omitempty"`
}

type ScheduleResponse struct {
	Installments  []InstallmentResponse `json:"installments"`
	TotalInterest string                `json:"totalInterest"`
	TotalPayable  string                `json:"totalPayable"`
}

type OutstandingResponse struct {
	LoanID            string `json:"loanId"`
	OutstandingAmount string `json:"outstandingAmount"`
}

type ProgressResponse struct {
	LoanID          string `json:"loanId"`
	ProgressPercent string `json:"progressPercent"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
}

func (r *TokenRequest) Validate() error {
	return validate.Struct(r)
}

func NewInstallmentResponse(inst *loan.Installment) InstallmentResponse {
	money := func(f float64) string {
		return decimal.NewFromFloat(f).StringFixed(2)
	}

	var paidAmountStr *string
	if inst.PaidAmount != 0 {
		s := money(inst.PaidAmount)
		paidAmountStr = &s
	}

	return InstallmentResponse{
		Number:           inst.Number,
		DueDate:          inst.DueDate.Format(dateLayout),
		Amount:           money(inst.Amount),
		InterestPart:     money(inst.InterestPart),
		CapitalPart:      money(inst.CapitalPart),
		BalanceRemaining: money(inst.BalanceRemaining),
		Status:           string(inst.Status),
		PaidAmount:       paidAmountStr,
		PaidDate:         inst.PaidDate,
	}
}

func NewLoanResponse(domainLoan *loan.Loan, includeSchedule bool) LoanResponse {
	money := func(f float64) string {
		return decimal.NewFromFloat(f).StringFixed(2)
	}

	resp := LoanResponse{
		ID:            domainLoan.ID.String(),
		ClientID:      domainLoan.ClientID.String(),
		Principal:     money(domainLoan.Principal),
		MonthlyRate:   decimal.NewFromFloat(domainLoan.MonthlyRate).String(),
		TermCount:     domainLoan.TermCount,
		Frequency:     string(domainLoan.Frequency),
		Method:        string(domainLoan.Method),
		StartDate:     domainLoan.StartDate.Format(dateLayout),
		Status:        string(domainLoan.Status),
		TotalInterest: money(domainLoan.TotalInterest),
		TotalPayable:  money(domainLoan.TotalPayable),
		CreatedAt:     domainLoan.CreatedAt,
		UpdatedAt:     domainLoan.UpdatedAt,
	}

	if domainLoan.Advisory != nil {
		resp.Advisory = &AdvisoryResponse{
			RiskLevel:      domainLoan.Advisory.RiskLevel,
			Score:          domainLoan.Advisory.Score,
			Reasoning:      domainLoan.Advisory.Reasoning,
			Recommendation: domainLoan.Advisory.Recommendation,
			GeneratedAt:    domainLoan.Advisory.GeneratedAt,
		}
	}

	if includeSchedule {
		resp.Installments = make([]InstallmentResponse, len(domainLoan.Installments))
		for i := range domainLoan.Installments {
			resp.Installments[i] = NewInstallmentResponse(&domainLoan.Installments[i])
		}
	}

	return resp
}

func NewScheduleResponse(schedule *loan.Schedule) ScheduleResponse {
	money := func(f float64) string {
		return decimal.NewFromFloat(f).StringFixed(2)
	}

	installments := make([]InstallmentResponse, len(schedule.Installments))
	for i := range schedule.Installments {
		installments[i] = NewInstallmentResponse(&schedule.Installments[i])
	}
	return ScheduleResponse{
		Installments:  installments,
		TotalInterest: money(schedule.TotalInterest),
		TotalPayable:  money(schedule.TotalPayable),
	}
}
