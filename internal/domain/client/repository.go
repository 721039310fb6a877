package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("client not found")

	ErrDuplicateDNI = errors.New("identity document already registered")
)

type Repository interface {
	Save(ctx context.Context, c *Client) error

	FindByID(ctx context.Context, clientID uuid.UUID) (*Client, error)

	FindByDNI(ctx context.Context, dni string) (*Client, error)

	FindAll(ctx context.Context, activeOnly bool) ([]*Client, error)

	Update(ctx context.Context, clientID uuid.UUID, mutate func(c *Client) error) (*Client, error)
}
