package postgres

import (
	"context"
	"fmt"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

type customerRepository struct {
	db Queryable
}

func NewCustomerRepository(db Queryable) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, name, email, tier, lifetime_spend_cents, completed_reservations FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Tier, &c.LifetimeSpendCents, &c.CompletedReservations)
	if err != nil {
		return nil, classify(fmt.Sprintf("get customer %d", id), err)
	}
	return c, nil
}
