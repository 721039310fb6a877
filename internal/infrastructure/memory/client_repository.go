package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"crediflow/internal/domain/client"
)

type ClientRepository struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client.Client
	byDNI   map[string]uuid.UUID
	logger  *slog.Logger
}

var _ client.Repository = (*ClientRepository)(nil)

func NewClientRepository(logger *slog.Logger) *ClientRepository {
	return &ClientRepository{
		clients: make(map[uuid.UUID]*client.Client),
		byDNI:   make(map[string]uuid.UUID),
		logger:  logger.With(slog.String("component", "memoryClientRepository")),
	}
}

func (r *ClientRepository) Save(ctx context.Context, c *client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return fmt.Errorf("client %s already exists", c.ID)
	}
	if _, exists := r.byDNI[c.DNI]; exists {
		return client.ErrDuplicateDNI
	}
	r.clients[c.ID] = c.Clone()
	r.byDNI[c.DNI] = c.ID
	r.logger.DebugContext(ctx, "Client saved", slog.String("clientID", c.ID.String()))
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, clientID uuid.UUID) (*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[clientID]
	if !ok {
		return nil, client.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *ClientRepository) FindByDNI(ctx context.Context, dni string) (*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDNI[dni]
	if !ok {
		return nil, client.ErrNotFound
	}
	return r.clients[id].Clone(), nil
}

func (r *ClientRepository) FindAll(ctx context.Context, activeOnly bool) ([]*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*client.Client, 0, len(r.clients))
	for _, c := range r.clients {
		if activeOnly && !c.Active {
			continue
		}
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *ClientRepository) Update(ctx context.Context, clientID uuid.UUID, mutate func(c *client.Client) error) (*client.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.clients[clientID]
	if !ok {
		return nil, client.ErrNotFound
	}

	working := stored.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	if working.DNI != stored.DNI {
		if _, exists := r.byDNI[working.DNI]; exists {
			return nil, client.ErrDuplicateDNI
		}
		delete(r.byDNI, stored.DNI)
		r.byDNI[working.DNI] = clientID
	}
	r.clients[clientID] = working
	return working.Clone(), nil
}
