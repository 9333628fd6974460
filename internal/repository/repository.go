// Package repository declares the persistence ports of the storefront.
package repository

import (
	"context"
	"errors"

	"github.com/utafrali/electroshop/internal/domain"
)

// ErrCorruptMirror is returned by CartMirror.Load when the stored value is
// not a JSON array of records.
var ErrCorruptMirror = errors.New("corrupt cart mirror")

// CartMirror is the persistent copy of a session's cart.
type CartMirror interface {
	// Load returns the stored records of the session's cart, loosely typed so
	// older or foreign shapes can be normalized by the caller. A missing key
	// yields an empty result and no error.
	Load(ctx context.Context, sessionID string) ([]map[string]any, error)

	// Save replaces the stored cart.
	Save(ctx context.Context, sessionID string, items []domain.LineItem) error

	// Clear removes the stored cart.
	Clear(ctx context.Context, sessionID string) error
}

// ProductFilter narrows a listing. Empty strings mean no constraint.
type ProductFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// ProductRepository is the products collection.
type ProductRepository interface {
	// List returns one page of matches, newest first.
	List(ctx context.Context, filter ProductFilter) ([]domain.ProductSummary, error)

	// Count returns the number of matches ignoring Limit and Offset.
	Count(ctx context.Context, filter ProductFilter) (int, error)

	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error

	// Categories returns the distinct category names in use.
	Categories(ctx context.Context) ([]string, error)
}
