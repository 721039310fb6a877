package loan

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"crediflow/internal/domain/client"
	"crediflow/internal/event"
	"crediflow/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeLoanRepository struct {
	mu    sync.Mutex
	loans map[uuid.UUID]*Loan
}

func newFakeLoanRepository() *fakeLoanRepository {
	return &fakeLoanRepository{loans: make(map[uuid.UUID]*Loan)}
}

func (r *fakeLoanRepository) Save(ctx context.Context, l *Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[l.ID] = l.Clone()
	return nil
}

func (r *fakeLoanRepository) FindByID(ctx context.Context, loanID uuid.UUID) (*Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[loanID]
	if !ok {
		return nil, ErrLoanNotFound
	}
	return l.Clone(), nil
}

func (r *fakeLoanRepository) FindAll(ctx context.Context) ([]*Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*Loan, 0, len(r.loans))
	for _, l := range r.loans {
		result = append(result, l.Clone())
	}
	return result, nil
}

func (r *fakeLoanRepository) FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Loan
	for _, l := range r.loans {
		if l.ClientID == clientID {
			result = append(result, l.Clone())
		}
	}
	return result, nil
}

func (r *fakeLoanRepository) Update(ctx context.Context, loanID uuid.UUID, mutate func(l *Loan) error) (*Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.loans[loanID]
	if !ok {
		return nil, ErrLoanNotFound
	}
	working := stored.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	r.loans[loanID] = working
	return working.Clone(), nil
}

type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) CreateClient(ctx context.Context, input client.NewClientInput) (*client.Client, error) {
	args := m.Called(ctx, input)
	if c, ok := args.Get(0).(*client.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClientService) GetClient(ctx context.Context, clientID uuid.UUID) (*client.Client, error) {
	args := m.Called(ctx, clientID)
	if c, ok := args.Get(0).(*client.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClientService) ListClients(ctx context.Context, activeOnly bool) ([]*client.Client, error) {
	args := m.Called(ctx, activeOnly)
	if cs, ok := args.Get(0).([]*client.Client); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClientService) UpdateContact(ctx context.Context, clientID uuid.UUID, update client.ContactUpdate) (*client.Client, error) {
	args := m.Called(ctx, clientID, update)
	if c, ok := args.Get(0).(*client.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClientService) UpdateDelinquency(ctx context.Context, clientID uuid.UUID, delinquent bool) error {
	args := m.Called(ctx, clientID, delinquent)
	return args.Error(0)
}

func (m *MockClientService) DeactivateClient(ctx context.Context, clientID uuid.UUID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *MockClientService) ReactivateClient(ctx context.Context, clientID uuid.UUID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

type stubAdvisoryProvider struct {
	advisory *RiskAdvisory
	called   chan struct{}
}

func (s *stubAdvisoryProvider) AnalyzeLoanRisk(ctx context.Context, c *client.Client, amount float64, termCount int) (*RiskAdvisory, error) {
	defer close(s.called)
	return s.advisory, nil
}

func activeTestClient() *client.Client {
	c := client.NewClient("Maria Lopez", "40211234567")
	c.MonthlyIncome = 1500
	c.CreditScore = 75
	return c
}

func newTestService(repo Repository, clients client.Service, opts ServiceOptions) Service {
	return NewService(repo, clients, event.NoopPublisher{}, opts, testLogger)
}

func TestServiceCreateLoan(t *testing.T) {
	t.Run("creates an active loan with a full schedule", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		cust := activeTestClient()
		clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)

		svc := newTestService(repo, clients, ServiceOptions{})
		created, err := svc.CreateLoan(context.Background(), cust.ID, baseTerms())

		assert.NoError(t, err)
		assert.Equal(t, StatusActive, created.Status)
		assert.Len(t, created.Installments, 3)
		assert.InDelta(t, 101.63, created.TotalInterest, 0.01)

		stored, err := repo.FindByID(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Equal(t, created.ID, stored.ID)
		clients.AssertExpectations(t)
	})

	t.Run("rejects an unknown client", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		unknownID := uuid.New()
		clients.On("GetClient", mock.Anything, unknownID).Return(nil, client.ErrNotFound)

		svc := newTestService(repo, clients, ServiceOptions{})
		created, err := svc.CreateLoan(context.Background(), unknownID, baseTerms())

		assert.ErrorIs(t, err, ErrUnknownClient)
		assert.Nil(t, created)
	})

	t.Run("rejects a deactivated client", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		cust := activeTestClient()
		cust.Deactivate()
		clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)

		svc := newTestService(repo, clients, ServiceOptions{})
		_, err := svc.CreateLoan(context.Background(), cust.ID, baseTerms())

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects invalid terms before touching the client directory", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)

		svc := newTestService(repo, clients, ServiceOptions{})
		terms := baseTerms()
		terms.Principal = -5
		_, err := svc.CreateLoan(context.Background(), uuid.New(), terms)

		assert.ErrorIs(t, err, ErrInvalidLoanTerms)
		clients.AssertNotCalled(t, "GetClient", mock.Anything, mock.Anything)
	})

	t.Run("attaches a risk advisory asynchronously", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		cust := activeTestClient()
		clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)

		provider := &stubAdvisoryProvider{
			advisory: &RiskAdvisory{RiskLevel: "LOW", Score: 85, Recommendation: "APPROVE", GeneratedAt: time.Now()},
			called:   make(chan struct{}),
		}
		svc := newTestService(repo, clients, ServiceOptions{Advisory: provider})

		created, err := svc.CreateLoan(context.Background(), cust.ID, baseTerms())
		assert.NoError(t, err)
		assert.Nil(t, created.Advisory)

		select {
		case <-provider.called:
		case <-time.After(2 * time.Second):
			t.Fatal("advisory provider was never called")
		}

		assert.Eventually(t, func() bool {
			stored, err := repo.FindByID(context.Background(), created.ID)
			return err == nil && stored.Advisory != nil && stored.Advisory.RiskLevel == "LOW"
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestServicePreviewSchedule(t *testing.T) {
	svc := newTestService(newFakeLoanRepository(), new(MockClientService), ServiceOptions{})

	schedule, err := svc.PreviewSchedule(baseTerms())
	assert.NoError(t, err)
	assert.Len(t, schedule.Installments, 3)

	loans, err := svc.ListLoans(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, loans)
}

func createTestLoan(t *testing.T, svc Service, clients *MockClientService) *Loan {
	t.Helper()
	cust := activeTestClient()
	clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)
	created, err := svc.CreateLoan(context.Background(), cust.ID, baseTerms())
	assert.NoError(t, err)
	return created
}

func TestServiceRegisterPayment(t *testing.T) {
	t.Run("settles the installment in full", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{})
		created := createTestLoan(t, svc, clients)

		updated, err := svc.RegisterPayment(context.Background(), created.ID, 1)
		assert.NoError(t, err)

		inst := updated.Installments[0]
		assert.Equal(t, InstallmentPaid, inst.Status)
		assert.Equal(t, inst.Amount, inst.PaidAmount)
		assert.NotNil(t, inst.PaidDate)
		assert.Equal(t, StatusActive, updated.Status)
	})

	t.Run("is idempotent per installment", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{})
		created := createTestLoan(t, svc, clients)

		_, err := svc.RegisterPayment(context.Background(), created.ID, 1)
		assert.NoError(t, err)
		_, err = svc.RegisterPayment(context.Background(), created.ID, 1)
		assert.ErrorIs(t, err, ErrAlreadySettled)

		stored, err := repo.FindByID(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Equal(t, stored.Installments[0].Amount, stored.Installments[0].PaidAmount)
	})

	t.Run("completes the loan with the final payment", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{})
		created := createTestLoan(t, svc, clients)

		var updated *Loan
		var err error
		for n := 1; n <= created.TermCount; n++ {
			updated, err = svc.RegisterPayment(context.Background(), created.ID, n)
			assert.NoError(t, err)
		}
		assert.Equal(t, StatusCompleted, updated.Status)

		progress, err := svc.GetProgress(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Equal(t, 100.0, progress)

		outstanding, err := svc.GetOutstanding(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, outstanding)
	})

	t.Run("rejects unknown loan and installment", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{})
		created := createTestLoan(t, svc, clients)

		_, err := svc.RegisterPayment(context.Background(), uuid.New(), 1)
		assert.ErrorIs(t, err, ErrLoanNotFound)

		_, err = svc.RegisterPayment(context.Background(), created.ID, 99)
		assert.ErrorIs(t, err, ErrInstallmentNotFound)
	})
}

func TestServiceMarkOverdue(t *testing.T) {
	t.Run("defaults loans whose installments passed the grace window", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{GraceDays: 5})

		cust := activeTestClient()
		clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)
		terms := baseTerms()
		terms.StartDate = time.Now().AddDate(0, 0, -80)
		created, err := svc.CreateLoan(context.Background(), cust.ID, terms)
		assert.NoError(t, err)

		count, err := svc.MarkOverdue(context.Background(), time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		stored, err := svc.GetLoan(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Equal(t, StatusDefaulted, stored.Status)
		assert.Equal(t, InstallmentOverdue, stored.Installments[0].Status)
		assert.Equal(t, InstallmentOverdue, stored.Installments[1].Status)

		count, err = svc.MarkOverdue(context.Background(), time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("leaves installments inside the grace window alone", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{GraceDays: 5})

		cust := activeTestClient()
		clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)
		terms := baseTerms()
		terms.StartDate = time.Now().AddDate(0, 0, -32)
		created, err := svc.CreateLoan(context.Background(), cust.ID, terms)
		assert.NoError(t, err)

		count, err := svc.MarkOverdue(context.Background(), time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 0, count)

		stored, err := svc.GetLoan(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Equal(t, StatusActive, stored.Status)
	})

	t.Run("a defaulted loan cures when its overdue installments are paid", func(t *testing.T) {
		repo := newFakeLoanRepository()
		clients := new(MockClientService)
		svc := newTestService(repo, clients, ServiceOptions{GraceDays: 0})

		cust := activeTestClient()
		clients.On("GetClient", mock.Anything, cust.ID).Return(cust, nil)
		terms := baseTerms()
		terms.StartDate = time.Now().AddDate(0, 0, -35)
		created, err := svc.CreateLoan(context.Background(), cust.ID, terms)
		assert.NoError(t, err)

		count, err := svc.MarkOverdue(context.Background(), time.Now())
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		updated, err := svc.RegisterPayment(context.Background(), created.ID, 1)
		assert.NoError(t, err)
		assert.Equal(t, StatusActive, updated.Status)
	})
}

func TestServiceListLoansByClient(t *testing.T) {
	repo := newFakeLoanRepository()
	clients := new(MockClientService)
	svc := newTestService(repo, clients, ServiceOptions{})

	first := activeTestClient()
	second := activeTestClient()
	clients.On("GetClient", mock.Anything, first.ID).Return(first, nil)
	clients.On("GetClient", mock.Anything, second.ID).Return(second, nil)

	_, err := svc.CreateLoan(context.Background(), first.ID, baseTerms())
	assert.NoError(t, err)
	_, err = svc.CreateLoan(context.Background(), first.ID, baseTerms())
	assert.NoError(t, err)
	_, err = svc.CreateLoan(context.Background(), second.ID, baseTerms())
	assert.NoError(t, err)

	mine, err := svc.ListLoansByClient(context.Background(), first.ID)
	assert.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.ListLoans(context.Background())
	assert.NoError(t, err)
	assert.Len(t, all, 3)
}
