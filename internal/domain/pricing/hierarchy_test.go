package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain creates n customers where each one's parent is the next
func chain(store *memoryStore, n int) []Customer {
	customers := make([]Customer, n)
	for i := range customers {
		customers[i] = testCustomer(TierC)
	}
	for i := 0; i < n-1; i++ {
		customers[i].ParentID = uuidPtr(customers[i+1].ID)
	}
	for _, c := range customers {
		store.addCustomer(c)
	}
	return customers
}

func TestCustomerHierarchyResolver_Ancestors(t *testing.T) {
	ctx := context.Background()

	t.Run("root customer has no ancestors", func(t *testing.T) {
		store := newMemoryStore()
		resolver := NewCustomerHierarchyResolver(store, 0)
		ancestors, err := resolver.Ancestors(ctx, testCustomer(TierA))
		require.NoError(t, err)
		assert.Empty(t, ancestors)
		assert.Equal(t, DefaultHierarchyMaxDepth, resolver.MaxDepth())
	})

	t.Run("nearest first", func(t *testing.T) {
		store := newMemoryStore()
		customers := chain(store, 3)
		resolver := NewCustomerHierarchyResolver(store, 5)

		ancestors, err := resolver.Ancestors(ctx, customers[0])
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{customers[1].ID, customers[2].ID}, ancestors)
	})

	t.Run("bounded by max depth", func(t *testing.T) {
		store := newMemoryStore()
		customers := chain(store, 10)
		resolver := NewCustomerHierarchyResolver(store, 5)

		ancestors, err := resolver.Ancestors(ctx, customers[0])
		require.NoError(t, err)
		assert.Len(t, ancestors, 5)
		assert.Equal(t, customers[5].ID, ancestors[4])
	})

	t.Run("cycle terminates", func(t *testing.T) {
		store := newMemoryStore()
		a := testCustomer(TierA)
		b := testCustomer(TierA)
		a.ParentID = uuidPtr(b.ID)
		b.ParentID = uuidPtr(a.ID)
		store.addCustomer(a)
		store.addCustomer(b)
		resolver := NewCustomerHierarchyResolver(store, 50)

		ancestors, err := resolver.Ancestors(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID}, ancestors)
		assert.Equal(t, 1, store.customerLookups)
	})

	t.Run("self reference terminates", func(t *testing.T) {
		store := newMemoryStore()
		a := testCustomer(TierA)
		a.ParentID = uuidPtr(a.ID)
		store.addCustomer(a)
		resolver := NewCustomerHierarchyResolver(store, 5)

		ancestors, err := resolver.Ancestors(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, ancestors)
	})

	t.Run("dangling parent stops the walk", func(t *testing.T) {
		store := newMemoryStore()
		a := testCustomer(TierA)
		a.ParentID = uuidPtr(uuid.New())
		resolver := NewCustomerHierarchyResolver(store, 5)

		ancestors, err := resolver.Ancestors(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, ancestors)
	})

	t.Run("store failures are returned", func(t *testing.T) {
		resolver := NewCustomerHierarchyResolver(failingCustomers{}, 5)
		a := testCustomer(TierA)
		a.ParentID = uuidPtr(uuid.New())

		_, err := resolver.Ancestors(ctx, a)
		assert.Error(t, err)
	})
}

func TestCustomerHierarchyResolver_Headquarters(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	customers := chain(store, 3)
	resolver := NewCustomerHierarchyResolver(store, 5)

	hq, err := resolver.Headquarters(ctx, customers[0])
	require.NoError(t, err)
	assert.Equal(t, customers[2].ID, hq)

	hq, err = resolver.Headquarters(ctx, customers[2])
	require.NoError(t, err)
	assert.Equal(t, customers[2].ID, hq)

	isAncestor, err := resolver.IsAncestor(ctx, customers[0], customers[1].ID)
	require.NoError(t, err)
	assert.True(t, isAncestor)

	isAncestor, err = resolver.IsAncestor(ctx, customers[2], customers[0].ID)
	require.NoError(t, err)
	assert.False(t, isAncestor)
}

type failingCustomers struct{}

func (failingCustomers) FindCustomer(context.Context, uuid.UUID) (*Customer, error) {
	return nil, errors.New("connection refused")
}
