package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"crediflow/internal/domain/client"
)

func TestClientRepositorySaveAndFind(t *testing.T) {
	repo := NewClientRepository(testLogger)
	c := client.NewClient("Maria Lopez", "40211234567")

	assert.NoError(t, repo.Save(context.Background(), c))

	found, err := repo.FindByID(context.Background(), c.ID)
	assert.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	byDNI, err := repo.FindByDNI(context.Background(), "40211234567")
	assert.NoError(t, err)
	assert.Equal(t, c.ID, byDNI.ID)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, client.ErrNotFound)
	_, err = repo.FindByDNI(context.Background(), "00000000000")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestClientRepositoryRejectsDuplicateDNI(t *testing.T) {
	repo := NewClientRepository(testLogger)

	assert.NoError(t, repo.Save(context.Background(), client.NewClient("Maria Lopez", "40211234567")))

	err := repo.Save(context.Background(), client.NewClient("Juan Perez", "40211234567"))
	assert.ErrorIs(t, err, client.ErrDuplicateDNI)
}

func TestClientRepositoryFindAll(t *testing.T) {
	repo := NewClientRepository(testLogger)

	active := client.NewClient("Maria Lopez", "40211234567")
	inactive := client.NewClient("Juan Perez", "40219876543")
	inactive.Deactivate()

	assert.NoError(t, repo.Save(context.Background(), active))
	assert.NoError(t, repo.Save(context.Background(), inactive))

	all, err := repo.FindAll(context.Background(), false)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := repo.FindAll(context.Background(), true)
	assert.NoError(t, err)
	assert.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)
}

func TestClientRepositoryUpdate(t *testing.T) {
	t.Run("reindexes on identity document change", func(t *testing.T) {
		repo := NewClientRepository(testLogger)
		c := client.NewClient("Maria Lopez", "40211234567")
		assert.NoError(t, repo.Save(context.Background(), c))

		_, err := repo.Update(context.Background(), c.ID, func(c *client.Client) error {
			c.DNI = "40210000000"
			return nil
		})
		assert.NoError(t, err)

		_, err = repo.FindByDNI(context.Background(), "40211234567")
		assert.ErrorIs(t, err, client.ErrNotFound)
		found, err := repo.FindByDNI(context.Background(), "40210000000")
		assert.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
	})

	t.Run("rejects an identity document change that collides", func(t *testing.T) {
		repo := NewClientRepository(testLogger)
		first := client.NewClient("Maria Lopez", "40211234567")
		second := client.NewClient("Juan Perez", "40219876543")
		assert.NoError(t, repo.Save(context.Background(), first))
		assert.NoError(t, repo.Save(context.Background(), second))

		_, err := repo.Update(context.Background(), second.ID, func(c *client.Client) error {
			c.DNI = "40211234567"
			return nil
		})
		assert.ErrorIs(t, err, client.ErrDuplicateDNI)
	})

	t.Run("read results never alias the store", func(t *testing.T) {
		repo := NewClientRepository(testLogger)
		c := client.NewClient("Maria Lopez", "40211234567")
		assert.NoError(t, repo.Save(context.Background(), c))

		found, err := repo.FindByID(context.Background(), c.ID)
		assert.NoError(t, err)
		found.Name = "Someone Else"

		again, err := repo.FindByID(context.Background(), c.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Maria Lopez", again.Name)
	})
}
