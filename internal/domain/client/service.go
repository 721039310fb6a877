package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"crediflow/internal/event"
	"crediflow/internal/pkg/apperrors"
)

type NewClientInput struct {
	Name          string
	DNI           string
	Phone         string
	Email         string
	Address       string
	MonthlyIncome float64
	CreditScore   int
	Notes         string
	AvatarURL     string
}

type ContactUpdate struct {
	Phone   string
	Email   string
	Address string
}

type Service interface {
	CreateClient(ctx context.Context, input NewClientInput) (*Client, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]*Client, error)
	UpdateContact(ctx context.Context, clientID uuid.UUID, update ContactUpdate) (*Client, error)
	UpdateDelinquency(ctx context.Context, clientID uuid.UUID, delinquent bool) error
	DeactivateClient(ctx context.Context, clientID uuid.UUID) error
	ReactivateClient(ctx context.Context, clientID uuid.UUID) error
}

var _ Service = (*service)(nil)

type service struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, pub event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("client repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("No logger provided to client.NewService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	return &service{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "clientService")),
	}
}

func (i *NewClientInput) validate() error {
	i.Name = strings.TrimSpace(i.Name)
	i.DNI = strings.TrimSpace(i.DNI)
	if i.Name == "" {
		return apperrors.NewValidationError("name", "client name cannot be empty")
	}
	if i.DNI == "" {
		return apperrors.NewValidationError("dni", "identity document cannot be empty")
	}
	if i.MonthlyIncome < 0 {
		return apperrors.NewValidationError("monthlyIncome", "monthly income cannot be negative")
	}
	if i.CreditScore < 0 || i.CreditScore > 100 {
		return apperrors.NewValidationError("creditScore", "credit score must be between 0 and 100")
	}
	return nil
}

func (s *service) CreateClient(ctx context.Context, input NewClientInput) (*Client, error) {
	s.logger.InfoContext(ctx, "Creating new client")

	if err := input.validate(); err != nil {
		s.logger.WarnContext(ctx, "Client input validation failed", slog.Any("error", err))
		return nil, err
	}

	if existing, err := s.repo.FindByDNI(ctx, input.DNI); err == nil && existing != nil {
		s.logger.WarnContext(ctx, "Duplicate identity document", slog.String("dni", input.DNI))
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDNI, input.DNI)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check identity document: %w", err)
	}

	c := NewClient(input.Name, input.DNI)
	c.Phone = strings.TrimSpace(input.Phone)
	c.Email = strings.TrimSpace(input.Email)
	c.Address = strings.TrimSpace(input.Address)
	c.MonthlyIncome = input.MonthlyIncome
	c.CreditScore = input.CreditScore
	c.Notes = input.Notes
	c.AvatarURL = input.AvatarURL

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new client: %w", err)
	}

	created := event.ClientCreatedEvent{
		Timestamp: time.Now(),
		Payload: event.ClientEventPayload{
			ClientID:   c.ID.String(),
			Name:       c.Name,
			DNI:        c.DNI,
			Delinquent: c.Delinquent,
			Active:     c.Active,
			CreatedAt:  c.CreatedAt,
		},
	}
	if err := s.pub.PublishClientCreated(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "Client created, but failed to publish creation event", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "Client created", slog.String("clientID", c.ID.String()))
	return c, nil
}

func (s *service) GetClient(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrNotFound, clientID)
		}
		s.logger.ErrorContext(ctx, "Failed to get client", slog.String("clientID", clientID.String()), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}
	return c, nil
}

func (s *service) ListClients(ctx context.Context, activeOnly bool) ([]*Client, error) {
	clients, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list clients", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list clients: %v", apperrors.ErrInternalServer, err)
	}
	return clients, nil
}

func (s *service) UpdateContact(ctx context.Context, clientID uuid.UUID, update ContactUpdate) (*Client, error) {
	s.logger.InfoContext(ctx, "Updating client contact info", slog.String("clientID", clientID.String()))
	return s.repo.Update(ctx, clientID, func(c *Client) error {
		if phone := strings.TrimSpace(update.Phone); phone != "" {
			c.Phone = phone
		}
		if email := strings.TrimSpace(update.Email); email != "" {
			c.Email = email
		}
		if address := strings.TrimSpace(update.Address); address != "" {
			c.Address = address
		}
		c.UpdatedAt = time.Now()
		return nil
	})
}

func (s *service) UpdateDelinquency(ctx context.Context, clientID uuid.UUID, delinquent bool) error {
	_, err := s.repo.Update(ctx, clientID, func(c *Client) error {
		c.SetDelinquencyStatus(delinquent)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update client delinquency",
			slog.String("clientID", clientID.String()), slog.Bool("delinquent", delinquent), slog.Any("error", err))
		return err
	}
	s.logger.InfoContext(ctx, "Client delinquency updated",
		slog.String("clientID", clientID.String()), slog.Bool("delinquent", delinquent))
	return nil
}

func (s *service) DeactivateClient(ctx context.Context, clientID uuid.UUID) error {
	_, err := s.repo.Update(ctx, clientID, func(c *Client) error {
		c.Deactivate()
		return nil
	})
	return err
}

func (s *service) ReactivateClient(ctx context.Context, clientID uuid.UUID) error {
	_, err := s.repo.Update(ctx, clientID, func(c *Client) error {
		c.Reactivate()
		return nil
	})
	return err
}
