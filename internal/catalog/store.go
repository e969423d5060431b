package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the shape the storefront already consumes.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	ErrNotFound   = errors.New("part not found")
	ErrBadRequest = errors.New("bad request")
)

// Part is the only catalog entity. ID is assigned by the store; zero means
// not yet persisted.
type Part struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// Store is the authoritative record of parts.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Part, error)
	Get(ctx context.Context, id int) (Part, bool, error)
	GetMany(ctx context.Context, ids []int) ([]Part, error)
	Insert(ctx context.Context, p Part) (Part, error)
	Update(ctx context.Context, p Part) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	SearchText(ctx context.Context, q string) ([]Part, error)
	Categories(ctx context.Context) ([]string, error)
}
