package pricing

import (
	"context"
	"errors"
	"slices"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultHierarchyMaxDepth bounds how many parent links are followed
const DefaultHierarchyMaxDepth = 5

// CustomerHierarchyResolver walks the headquarters/branch chain of customers.
// The walk is an explicit loop bounded by maxDepth with a visited set, so
// cyclic parent data terminates.
type CustomerHierarchyResolver struct {
	customers CustomerReader
	maxDepth  int
}

// NewCustomerHierarchyResolver creates a resolver. A non-positive maxDepth
// falls back to DefaultHierarchyMaxDepth.
func NewCustomerHierarchyResolver(customers CustomerReader, maxDepth int) *CustomerHierarchyResolver {
	if maxDepth <= 0 {
		maxDepth = DefaultHierarchyMaxDepth
	}
	return &CustomerHierarchyResolver{
		customers: customers,
		maxDepth:  maxDepth,
	}
}

// MaxDepth returns the configured depth bound
func (r *CustomerHierarchyResolver) MaxDepth() int {
	return r.maxDepth
}

// Ancestors returns the parent chain of a customer, nearest first.
// The walk stops at the root, after maxDepth parents, when a customer id
// repeats, or when a parent reference points at a missing customer.
func (r *CustomerHierarchyResolver) Ancestors(ctx context.Context, customer Customer) ([]uuid.UUID, error) {
	ancestors := make([]uuid.UUID, 0, r.maxDepth)
	visited := make([]uuid.UUID, 0, r.maxDepth+1)
	visited = append(visited, customer.ID)

	current := customer
	for depth := 0; depth < r.maxDepth; depth++ {
		if !current.HasParent() {
			break
		}
		parentID := *current.ParentID
		if slices.Contains(visited, parentID) {
			break
		}
		visited = append(visited, parentID)

		parent, err := r.customers.FindCustomer(ctx, parentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				break
			}
			return nil, err
		}
		ancestors = append(ancestors, parentID)
		current = *parent
	}

	return ancestors, nil
}

// IsAncestor reports whether candidateID appears in the customer's parent chain
func (r *CustomerHierarchyResolver) IsAncestor(ctx context.Context, customer Customer, candidateID uuid.UUID) (bool, error) {
	ancestors, err := r.Ancestors(ctx, customer)
	if err != nil {
		return false, err
	}
	return slices.Contains(ancestors, candidateID), nil
}

// Headquarters returns the topmost reachable ancestor, or the customer's own
// id when it has no parent
func (r *CustomerHierarchyResolver) Headquarters(ctx context.Context, customer Customer) (uuid.UUID, error) {
	ancestors, err := r.Ancestors(ctx, customer)
	if err != nil {
		return uuid.Nil, err
	}
	if len(ancestors) == 0 {
		return customer.ID, nil
	}
	return ancestors[len(ancestors)-1], nil
}
