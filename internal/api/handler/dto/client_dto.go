package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"crediflow/internal/domain/client"
)

type CreateClientRequest struct {
	Name          string  `json:"name" validate:"required"`
	DNI           string  `json:"dni" validate:"required"`
	Phone         string  `json:"phone" validate:"omitempty"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Address       string  `json:"address"`
	MonthlyIncome float64 `json:"monthlyIncome" validate:"gte=0"`
	CreditScore   int     `json:"creditScore" validate:"gte=0,lte=100"`
	Notes         string  `json:"notes"`
	AvatarURL     string  `json:"avatarUrl" validate:"omitempty,url"`
}

func (r *CreateClientRequest) Validate() error {
	return validate.Struct(r)
}

func (r *CreateClientRequest) ToInput() client.NewClientInput {
	return client.NewClientInput{
		Name:          r.Name,
		DNI:           r.DNI,
		Phone:         r.Phone,
		Email:         r.Email,
		Address:       r.Address,
		MonthlyIncome: r.MonthlyIncome,
		CreditScore:   r.CreditScore,
		Notes:         r.Notes,
		AvatarURL:     r.AvatarURL,
	}
}

type UpdateContactRequest struct {
	Phone   string `json:"phone" validate:"omitempty"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

func (r *UpdateContactRequest) Validate() error {
	return validate.Struct(r)
}

type UpdateDelinquencyRequest struct {
	Delinquent *bool `json:"delinquent" validate:"required"`
}

func (r *UpdateDelinquencyRequest) Validate() error {
	return validate.Struct(r)
}

type ClientResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DNI           string    `json:"dni"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	MonthlyIncome string    `json:"monthlyIncome"`
	CreditScore   int       `json:"creditScore"`
	Notes         string    `json:"notes,omitempty"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	Delinquent    bool      `json:"delinquent"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewClientResponse(c *client.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		DNI:           c.DNI,
		Phone:         c.Phone,
		Email:         c.Email,
		Address:       c.Address,
		MonthlyIncome: decimal.NewFromFloat(c.MonthlyIncome).StringFixed(2),
		CreditScore:   c.CreditScore,
		Notes:         c.Notes,
		AvatarURL:     c.AvatarURL,
		Delinquent:    c.Delinquent,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
