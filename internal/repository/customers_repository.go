package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// CustomersRepository handles database operations for the customer directory.
type CustomersRepository struct {
	pool *pgxpool.Pool
}

// NewCustomersRepository creates a new customers repository.
func NewCustomersRepository(pool *pgxpool.Pool) *CustomersRepository {
	return &CustomersRepository{pool: pool}
}

const customerColumns = `c.id, c.name, c.segment, c.acv,
	(SELECT COUNT(*) FROM feedback f WHERE f.customer_name = c.name),
	c.created_at, c.updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var cust models.Customer

	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Segment,
		&cust.ACV,
		&cust.FeedbackCount,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &cust, nil
}

// GetByName retrieves a customer by exact name.
func (r *CustomersRepository) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers c WHERE c.name = $1`, customerColumns)

	cust, err := scanCustomer(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vocerrors.NewNotFoundError("customer", fmt.Sprintf("customer %q not found", name))
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return cust, nil
}

// ListByNames returns the customers whose names appear in names. Missing names
// are simply absent from the result; the caller decides the unknown fallback.
func (r *CustomersRepository) ListByNames(ctx context.Context, names []string) ([]models.Customer, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM customers c WHERE c.name = ANY($1)`, customerColumns)

	rows, err := r.pool.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]models.Customer, 0, len(names))
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *cust)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, nil
}
