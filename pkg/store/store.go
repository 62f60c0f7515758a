// Package store persists inlay configurations.
//
// A [Store] is consulted once when the settings manager hydrates and again
// after every change that must be persisted. [FileStore] keeps the
// configuration in a YAML file, [MemoryStore] keeps it in memory.
package store

import (
	"context"
	"errors"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
)

// ErrNotFound is returned by [Store.Load] when nothing has been persisted yet.
var ErrNotFound = errors.New("inlay configuration not found")

// Store loads and saves the inlay configuration.
type Store interface {
	// Load returns the persisted configuration, or [ErrNotFound].
	Load(ctx context.Context) (*inlays.Config, error)
	// Save replaces the persisted configuration.
	Save(ctx context.Context, c *inlays.Config) error
}
