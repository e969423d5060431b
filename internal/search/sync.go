package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chchsunny/PcWeb/internal/catalog"
)

// Bootstrapper is the part of an index the startup sync needs.
type Bootstrapper interface {
	EnsureIndex(ctx context.Context) (bool, error)
	IndexMany(ctx context.Context, parts []catalog.Part) error
}

type Lister interface {
	List(ctx context.Context) ([]catalog.Part, error)
}

// Sync makes sure the index exists and loads every stored part into it. It
// runs once at startup; there is no ongoing reconciliation.
func Sync(ctx context.Context, idx Bootstrapper, src Lister, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	created, err := idx.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if created {
		log.Info("search index created")
	}

	parts, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list parts: %w", err)
	}
	if err := idx.IndexMany(ctx, parts); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}

	log.Info("search index synced", zap.Int("parts", len(parts)))
	return nil
}
