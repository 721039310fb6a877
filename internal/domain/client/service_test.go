package client

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"crediflow/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeClientRepository struct {
	clients map[uuid.UUID]*Client
	byDNI   map[string]uuid.UUID
}

func newFakeClientRepository() *fakeClientRepository {
	return &fakeClientRepository{
		clients: make(map[uuid.UUID]*Client),
		byDNI:   make(map[string]uuid.UUID),
	}
}

func (r *fakeClientRepository) Save(ctx context.Context, c *Client) error {
	if _, exists := r.byDNI[c.DNI]; exists {
		return ErrDuplicateDNI
	}
	r.clients[c.ID] = c.Clone()
	r.byDNI[c.DNI] = c.ID
	return nil
}

func (r *fakeClientRepository) FindByID(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (r *fakeClientRepository) FindByDNI(ctx context.Context, dni string) (*Client, error) {
	id, ok := r.byDNI[dni]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clients[id].Clone(), nil
}

func (r *fakeClientRepository) FindAll(ctx context.Context, activeOnly bool) ([]*Client, error) {
	var result []*Client
	for _, c := range r.clients {
		if activeOnly && !c.Active {
			continue
		}
		result = append(result, c.Clone())
	}
	return result, nil
}

func (r *fakeClientRepository) Update(ctx context.Context, clientID uuid.UUID, mutate func(c *Client) error) (*Client, error) {
	stored, ok := r.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	working := stored.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	r.clients[clientID] = working
	return working.Clone(), nil
}

func validInput() NewClientInput {
	return NewClientInput{
		Name:          "Maria Lopez",
		DNI:           "40211234567",
		Phone:         "+1 809 555 0101",
		Email:         "maria@example.com",
		MonthlyIncome: 1500,
		CreditScore:   75,
	}
}

func TestServiceCreateClient(t *testing.T) {
	t.Run("creates an active non-delinquent client", func(t *testing.T) {
		svc := NewService(newFakeClientRepository(), nil, testLogger)

		created, err := svc.CreateClient(context.Background(), validInput())
		assert.NoError(t, err)
		assert.True(t, created.Active)
		assert.False(t, created.Delinquent)
		assert.Equal(t, "Maria Lopez", created.Name)
		assert.Equal(t, 75, created.CreditScore)
	})

	t.Run("rejects a duplicate identity document", func(t *testing.T) {
		svc := NewService(newFakeClientRepository(), nil, testLogger)

		_, err := svc.CreateClient(context.Background(), validInput())
		assert.NoError(t, err)
		_, err = svc.CreateClient(context.Background(), validInput())
		assert.ErrorIs(t, err, ErrDuplicateDNI)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := NewService(newFakeClientRepository(), nil, testLogger)

		cases := []struct {
			name   string
			mutate func(*NewClientInput)
		}{
			{"empty name", func(i *NewClientInput) { i.Name = "  " }},
			{"empty dni", func(i *NewClientInput) { i.DNI = "" }},
			{"negative income", func(i *NewClientInput) { i.MonthlyIncome = -1 }},
			{"credit score above 100", func(i *NewClientInput) { i.CreditScore = 101 }},
			{"negative credit score", func(i *NewClientInput) { i.CreditScore = -5 }},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				input := validInput()
				tc.mutate(&input)

				_, err := svc.CreateClient(context.Background(), input)
				var validationErr *apperrors.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			})
		}
	})
}

func TestServiceGetClient(t *testing.T) {
	svc := NewService(newFakeClientRepository(), nil, testLogger)
	created, err := svc.CreateClient(context.Background(), validInput())
	assert.NoError(t, err)

	found, err := svc.GetClient(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetClient(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListClients(t *testing.T) {
	svc := NewService(newFakeClientRepository(), nil, testLogger)

	first, err := svc.CreateClient(context.Background(), validInput())
	assert.NoError(t, err)

	second := validInput()
	second.DNI = "40219876543"
	_, err = svc.CreateClient(context.Background(), second)
	assert.NoError(t, err)

	assert.NoError(t, svc.DeactivateClient(context.Background(), first.ID))

	all, err := svc.ListClients(context.Background(), false)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListClients(context.Background(), true)
	assert.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestServiceUpdateContact(t *testing.T) {
	svc := NewService(newFakeClientRepository(), nil, testLogger)
	created, err := svc.CreateClient(context.Background(), validInput())
	assert.NoError(t, err)

	updated, err := svc.UpdateContact(context.Background(), created.ID, ContactUpdate{
		Phone: "+1 809 555 0202",
	})
	assert.NoError(t, err)
	assert.Equal(t, "+1 809 555 0202", updated.Phone)
	assert.Equal(t, created.Email, updated.Email)
}

func TestServiceDelinquencyAndActivation(t *testing.T) {
	svc := NewService(newFakeClientRepository(), nil, testLogger)
	created, err := svc.CreateClient(context.Background(), validInput())
	assert.NoError(t, err)

	assert.NoError(t, svc.UpdateDelinquency(context.Background(), created.ID, true))
	found, err := svc.GetClient(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.True(t, found.Delinquent)

	assert.NoError(t, svc.DeactivateClient(context.Background(), created.ID))
	found, err = svc.GetClient(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.False(t, found.Active)

	assert.NoError(t, svc.ReactivateClient(context.Background(), created.ID))
	found, err = svc.GetClient(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.True(t, found.Active)

	assert.ErrorIs(t, svc.UpdateDelinquency(context.Background(), uuid.New(), true), ErrNotFound)
}
