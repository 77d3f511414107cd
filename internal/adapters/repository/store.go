// Package repository holds the process-wide cache of scoring tables and the
// loader that reads them from the data directory.
package repository

import (
	"context"

	"github.com/okian/scoretable/internal/domain/model"
)

// Loader produces a freshly built table for a category.
type Loader interface {
	Load(ctx context.Context, category string) (*model.Table, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, category string) (*model.Table, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, category string) (*model.Table, error) {
	return f(ctx, category)
}

// Store provides read access to loaded tables and forces reloads.
type Store interface {
	// Get returns the table for category, loading it on first use.
	// Returns ErrTableNotFound if no table file exists.
	Get(ctx context.Context, category string) (*model.Table, error)

	// Reload rebuilds the table from its source and swaps it in atomically.
	Reload(ctx context.Context, category string) (*model.Table, error)

	// Categories lists the loaded categories in name order.
	Categories() []string
}
