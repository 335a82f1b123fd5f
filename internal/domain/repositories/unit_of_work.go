package repositories

import (
	"context"
)

// UnitOfWork defines the interface for atomic operations. Key/value stores
// that implement it run list rewrites inside one transaction.
type UnitOfWork interface {
	// Do executes the given function within a transaction scope
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
