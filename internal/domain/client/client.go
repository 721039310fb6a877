package client

import (
	"time"

	"github.com/google/uuid"
)

// Client is a borrower profile. Loans reference clients by ID; the loan
// core never mutates a client.
type Client struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	DNI           string    `json:"dni"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	MonthlyIncome float64   `json:"monthlyIncome"`
	CreditScore   int       `json:"creditScore"`
	Notes         string    `json:"notes,omitempty"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	Delinquent    bool      `json:"delinquent"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewClient(name, dni string) *Client {
	now := time.Now()
	return &Client{
		ID:        uuid.New(),
		Name:      name,
		DNI:       dni,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Client) SetDelinquencyStatus(delinquent bool) {
	if c.Delinquent != delinquent {
		c.Delinquent = delinquent
		c.UpdatedAt = time.Now()
	}
}

func (c *Client) Deactivate() {
	if c.Active {
		c.Active = false
		c.UpdatedAt = time.Now()
	}
}

func (c *Client) Reactivate() {
	if !c.Active {
		c.Active = true
		c.UpdatedAt = time.Now()
	}
}

func (c *Client) Clone() *Client {
	cp := *c
	return &cp
}
