// Package postgres implements the product repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/repository"
	"github.com/utafrali/electroshop/pkg/database"
	apperrors "github.com/utafrali/electroshop/pkg/errors"
)

const productColumns = `id, name, title, description, price::text, offer_price::text, category,
		image, COALESCE(images, '{}'), stock, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// List returns one page of products matching filter, newest first. Rows with
// equal created_at are ordered by id so pages never overlap.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.ProductSummary, err error) {
	where, args := whereClause(filter)
	n := len(args)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, where, n+1, n+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.ProductSummary{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Count returns the number of products matching filter, ignoring the page
// window.
func (r *ProductRepository) Count(ctx context.Context, filter repository.ProductFilter) (total int, err error) {
	where, args := whereClause(filter)
	query := "SELECT COUNT(*) FROM products " + where

	ctx, end := database.TraceQuery(ctx, "CountProducts", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, name, title, description, price, offer_price, category, image, images, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Title,
		p.Description,
		p.Price.String(),
		offerText(p.OfferPrice),
		p.Category,
		p.Image,
		images(p.Images),
		p.Stock,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, err
	}
	return p, nil
}

// Update overwrites every mutable column of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, title = $2, description = $3, price = $4, offer_price = $5,
		    category = $6, image = $7, images = $8, stock = $9, updated_at = $10
		WHERE id = $11`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Title,
		p.Description,
		p.Price.String(),
		offerText(p.OfferPrice),
		p.Category,
		p.Image,
		images(p.Images),
		p.Stock,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// Categories returns the distinct non-empty categories in alphabetical order.
func (r *ProductRepository) Categories(ctx context.Context) (_ []string, err error) {
	query := `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

// whereClause builds the shared filter of List and Count. Search matches
// name or title case-insensitively; its wildcard characters are literal.
func whereClause(filter repository.ProductFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR title ILIKE $%d ESCAPE '\')`, n, n))
	}

	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
		offer *string
	)

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Title,
		&p.Description,
		&price,
		&offer,
		&p.Category,
		&p.Image,
		&p.Images,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price of product %s: %w", p.ID, err)
	}
	if offer != nil {
		v, err := decimal.NewFromString(*offer)
		if err != nil {
			return nil, fmt.Errorf("parse offer price of product %s: %w", p.ID, err)
		}
		p.OfferPrice = &v
	}
	return &p, nil
}

func offerText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func images(imgs []string) []string {
	if imgs == nil {
		return []string{}
	}
	return imgs
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
