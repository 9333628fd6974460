// Package service holds the storefront's business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/repository"
	apperrors "github.com/utafrali/electroshop/pkg/errors"
	"github.com/utafrali/electroshop/pkg/pagination"
)

// CatalogService implements the product listing and catalog administration.
type CatalogService struct {
	repo   repository.ProductRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListQuery is a listing request. Page and Limit are normalized with
// pagination.New, so zero values select the defaults.
type ListQuery struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// ListResult is one page of a listing together with the size of the whole
// result set.
type ListResult struct {
	Items      []domain.ProductSummary
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// ListProducts returns the requested page of products matching q, newest
// first. The total is counted with the same filter but without the page
// window, so a page past the end reports the true total and no items.
func (s *CatalogService) ListProducts(ctx context.Context, q ListQuery) (*ListResult, error) {
	params := pagination.New(q.Page, q.Limit)
	filter := repository.ProductFilter{
		Search:   strings.TrimSpace(q.Search),
		Category: strings.TrimSpace(q.Category),
		Limit:    params.Limit,
		Offset:   params.Skip,
	}

	var (
		items []domain.ProductSummary
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if items == nil {
		items = []domain.ProductSummary{}
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string           `json:"name" validate:"required_without=Title,max=200"`
	Title       string           `json:"title" validate:"max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Price       decimal.Decimal  `json:"price"`
	OfferPrice  *decimal.Decimal `json:"offerPrice"`
	Category    string           `json:"category" validate:"required,max=100"`
	Image       string           `json:"image" validate:"omitempty,max=500"`
	Images      []string         `json:"images" validate:"omitempty,max=20,dive,max=500"`
	Stock       int              `json:"stock" validate:"gte=0"`
}

// UpdateProductInput holds the parameters for a partial product update.
// Nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Title       *string          `json:"title" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	OfferPrice  *decimal.Decimal `json:"offerPrice"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Image       *string          `json:"image" validate:"omitempty,max=500"`
	Images      []string         `json:"images" validate:"omitempty,max=20,dive,max=500"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// CreateProduct creates a new product with the given input.
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if err := validatePrices(input.Price, input.OfferPrice); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		OfferPrice:  input.OfferPrice,
		Category:    strings.TrimSpace(input.Category),
		Image:       input.Image,
		Images:      input.Images,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.DisplayName() == "" {
		return nil, apperrors.InvalidInput("product name or title is required")
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category", product.Category),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// UpdateProduct applies partial updates to an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if product.DisplayName() == "" {
		return nil, apperrors.InvalidInput("product name or title must not be empty")
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.OfferPrice != nil {
		product.OfferPrice = input.OfferPrice
	}
	if err := validatePrices(product.Price, product.OfferPrice); err != nil {
		return nil, err
	}
	if input.Category != nil {
		if strings.TrimSpace(*input.Category) == "" {
			return nil, apperrors.InvalidInput("category must not be empty")
		}
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Image != nil {
		product.Image = *input.Image
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))

	return product, nil
}

// DeleteProduct removes a product by its ID.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	return nil
}

// Categories returns the distinct categories in use.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func validatePrices(price decimal.Decimal, offer *decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if offer != nil && (offer.IsNegative() || offer.GreaterThan(price)) {
		return apperrors.InvalidInput("offer price must be between 0 and price")
	}
	return nil
}
