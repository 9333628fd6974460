package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItem_DisplayKey(t *testing.T) {
	assert.Equal(t, "p1", LineItem{ID: "p1"}.DisplayKey())
	assert.Equal(t, "p1::XL", LineItem{ID: "p1", Size: "XL"}.DisplayKey())
}

func TestLineItem_Visible(t *testing.T) {
	assert.True(t, LineItem{Price: 0.01}.Visible())
	assert.False(t, LineItem{Price: 0}.Visible())
	assert.False(t, LineItem{Price: -3}.Visible())
}

func TestProduct_Summary(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	offer := decimal.RequireFromString("899.00")

	tests := []struct {
		name      string
		product   Product
		wantName  string
		wantImage string
	}{
		{
			name:      "name and image",
			product:   Product{ID: "1", Name: "Phone", Title: "ignored", Image: "/a.png", Images: []string{"/b.png"}},
			wantName:  "Phone",
			wantImage: "/a.png",
		},
		{
			name:      "title fallback and first gallery image",
			product:   Product{ID: "2", Title: "Laptop", Images: []string{"", "/b.png"}},
			wantName:  "Laptop",
			wantImage: "/b.png",
		},
		{
			name:      "placeholder",
			product:   Product{ID: "3", Name: "Cable"},
			wantName:  "Cable",
			wantImage: PlaceholderImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.product.Summary()
			assert.Equal(t, tt.product.ID, s.ID)
			assert.Equal(t, tt.wantName, s.Name)
			assert.Equal(t, tt.wantImage, s.Image)
		})
	}

	p := Product{ID: "4", Name: "TV", Price: decimal.RequireFromString("999.99"), OfferPrice: &offer, CreatedAt: created}
	s := p.Summary()
	assert.Equal(t, 999.99, s.Price)
	require.NotNil(t, s.OfferPrice)
	assert.Equal(t, 899.0, *s.OfferPrice)
	assert.Equal(t, created, s.CreatedAt)
}
