// Package domain holds the storefront's core types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row of the products collection.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	OfferPrice  *decimal.Decimal `json:"offerPrice,omitempty"`
	Category    string           `json:"category"`
	Image       string           `json:"image,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Stock       int              `json:"stock"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ProductSummary is the canonical listing shape. ID and Name are always
// populated regardless of which name field the row was stored with.
type ProductSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	OfferPrice *float64  `json:"offerPrice,omitempty"`
	Category   string    `json:"category"`
	Image      string    `json:"image"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DisplayName returns Name, falling back to Title.
func (p *Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Title
}

// PrimaryImage returns Image, then the first of Images, then the placeholder.
func (p *Product) PrimaryImage() string {
	if p.Image != "" {
		return p.Image
	}
	for _, img := range p.Images {
		if img != "" {
			return img
		}
	}
	return PlaceholderImage
}

// Summary canonicalizes the product for listing responses.
func (p *Product) Summary() ProductSummary {
	s := ProductSummary{
		ID:        p.ID,
		Name:      p.DisplayName(),
		Price:     p.Price.InexactFloat64(),
		Category:  p.Category,
		Image:     p.PrimaryImage(),
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
	}
	if p.OfferPrice != nil {
		v := p.OfferPrice.InexactFloat64()
		s.OfferPrice = &v
	}
	return s
}
