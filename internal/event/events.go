package event

import "time"

type LoanEventPayload struct {
	LoanID       string    `json:"loanId"`
	ClientID     string    `json:"clientId"`
	Principal    float64   `json:"principal"`
	TermCount    int       `json:"termCount"`
	Status       string    `json:"status"`
	TotalPayable float64   `json:"totalPayable"`
	CreatedAt    time.Time `json:"createdAt"`
}

type LoanCreatedEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Payload   LoanEventPayload `json:"payload"`
}

type PaymentRegisteredEvent struct {
	Timestamp         time.Time `json:"timestamp"`
	LoanID            string    `json:"loanId"`
	InstallmentNumber int       `json:"installmentNumber"`
	PaidAmount        float64   `json:"paidAmount"`
	LoanStatus        string    `json:"loanStatus"`
}

type LoanDefaultedEvent struct {
	Timestamp         time.Time `json:"timestamp"`
	LoanID            string    `json:"loanId"`
	ClientID          string    `json:"clientId"`
	OverdueCount      int       `json:"overdueCount"`
	OldestDueDate     time.Time `json:"oldestDueDate"`
	DaysPastThreshold int       `json:"daysPastThreshold"`
}

type ClientEventPayload struct {
	ClientID   string    `json:"clientId"`
	Name       string    `json:"name"`
	DNI        string    `json:"dni"`
	Delinquent bool      `json:"delinquent"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ClientCreatedEvent struct {
	Timestamp time.Time          `json:"timestamp"`
	Payload   ClientEventPayload `json:"payload"`
}
