package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores customers in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("customers: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const customerColumns = `id::text, name, email, phone, looking_for, budget, brand_preference, exclude_brand, color_preference, conversation_id, last_seen, status, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, p profile.Profile) (*Customer, error) {
	if err := ValidateNew(p); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO customers (id, name, email, phone, looking_for, budget, brand_preference, exclude_brand, color_preference, conversation_id, last_seen, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + customerColumns
	row := r.db.QueryRow(ctx, query,
		uuid.New(),
		p.Name,
		p.Email,
		p.Phone,
		p.LookingFor,
		p.Budget,
		p.BrandPreference,
		p.ExcludeBrand,
		p.ColorPreference,
		p.ConversationID,
		p.Timestamp,
		string(StatusNew),
	)
	c, err := scanCustomer(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("customers: insert failed: %w", err)
	}
	return c, nil
}

// Update replaces the stored profile columns.
func (r *PostgresRepository) Update(ctx context.Context, id string, p profile.Profile) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	query := `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, looking_for = $5, budget = $6, brand_preference = $7,
			exclude_brand = $8, color_preference = $9, conversation_id = $10, last_seen = $11, updated_at = now()
		WHERE id = $1
		RETURNING ` + customerColumns
	row := r.db.QueryRow(ctx, query,
		id,
		p.Name,
		p.Email,
		p.Phone,
		p.LookingFor,
		p.Budget,
		p.BrandPreference,
		p.ExcludeBrand,
		p.ColorPreference,
		p.ConversationID,
		p.Timestamp,
	)
	c, err := scanCustomer(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrCustomerNotFound
	case isUniqueViolation(err):
		return nil, ErrDuplicateEmail
	case err != nil:
		return nil, fmt.Errorf("customers: update failed: %w", err)
	}
	return c, nil
}

// GetByID fetches a customer by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return r.one(row, "get")
}

// GetByEmail fetches a customer by case-insensitive email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower($1)`, email)
	return r.one(row, "get by email")
}

// UpdateStatus sets the funnel status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Customer, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	row := r.db.QueryRow(ctx, `
		UPDATE customers SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+customerColumns, id, string(status))
	return r.one(row, "update status")
}

// List returns customers newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Customer, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + customerColumns + ` FROM customers`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` WHERE status = $1`
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customers: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("customers: list failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customers: list failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) one(row pgx.Row, op string) (*Customer, error) {
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customers: %s failed: %w", op, err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var (
		c      Customer
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.Profile.Name,
		&c.Profile.Email,
		&c.Profile.Phone,
		&c.Profile.LookingFor,
		&c.Profile.Budget,
		&c.Profile.BrandPreference,
		&c.Profile.ExcludeBrand,
		&c.Profile.ColorPreference,
		&c.Profile.ConversationID,
		&c.Profile.Timestamp,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
