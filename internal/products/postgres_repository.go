package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads the catalog from the products table.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository wraps a pgx pool (or anything with the same query
// methods).
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("products: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const productColumns = `id::text, name, brand, price, category, description, processor, ram, storage, screen, graphics, image_url, in_stock, rating, color, tags`

// List pushes the filter into SQL. Catalog order is insertion order.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, "%"+filter.Category+"%")
		where = append(where, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	if filter.Brand != nil && filter.Brand.Pattern != "" {
		args = append(args, "%"+filter.Brand.Pattern+"%")
		op := "ILIKE"
		if filter.Brand.Negate {
			op = "NOT ILIKE"
		}
		where = append(where, fmt.Sprintf("brand %s $%d", op, len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY position"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("products: list failed: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products: list failed: %w", err)
	}
	return out, nil
}

// GetByID fetches one product.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}
	row := r.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Brand,
		&p.Price,
		&p.Category,
		&p.Description,
		&p.Specs.Processor,
		&p.Specs.RAM,
		&p.Specs.Storage,
		&p.Specs.Screen,
		&p.Specs.Graphics,
		&p.ImageURL,
		&p.InStock,
		&p.Rating,
		&p.Color,
		&p.Tags,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("products: scan failed: %w", err)
	}
	return &p, nil
}
