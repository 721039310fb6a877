package dto

type RiskAnalysisRequest struct {
	ClientID  string  `json:"clientId" validate:"required,uuid4"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	TermCount int     `json:"termCount" validate:"gte=1"`
}

func (r *RiskAnalysisRequest) Validate() error {
	return validate.Struct(r)
}

type ReminderRequest struct {
	ClientID          string `json:"clientId" validate:"required,uuid4"`
	LoanID            string `json:"loanId" validate:"required,uuid4"`
	InstallmentNumber int    `json:"installmentNumber" validate:"gte=1"`
}

func (r *ReminderRequest) Validate() error {
	return validate.Struct(r)
}

type ReminderResponse struct {
	Message     string `json:"message"`
	DaysOverdue int    `json:"daysOverdue"`
	AmountDue   string `json:"amountDue"`
}
