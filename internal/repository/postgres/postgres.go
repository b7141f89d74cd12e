package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
)

// Queryable is satisfied by both *sql.DB and *sql.Tx.
type Queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repos binds every repository to the same Queryable.
type repos struct {
	assets       repository.AssetRepository
	reservations repository.ReservationRepository
	customers    repository.CustomerRepository
	catalog      repository.CatalogRepository
}

func newRepos(q Queryable) repos {
	return repos{
		assets:       NewAssetRepository(q),
		reservations: NewReservationRepository(q),
		customers:    NewCustomerRepository(q),
		catalog:      NewCatalogRepository(q),
	}
}

func (r repos) Assets() repository.AssetRepository             { return r.assets }
func (r repos) Reservations() repository.ReservationRepository { return r.reservations }
func (r repos) Customers() repository.CustomerRepository       { return r.customers }
func (r repos) Catalog() repository.CatalogRepository          { return r.catalog }

type Store struct {
	db *sql.DB
	repos
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		repos: newRepos(db),
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside a READ COMMITTED transaction. Writers serialize on the
// asset row lock taken by LockForBooking; the exclusion constraint is the backstop.
// database/sql rolls the transaction back by itself if ctx ends before Commit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	logger.DatabaseCall("begin", "BEGIN")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.DatabaseResult("begin", 0, err)
		return classify("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("commit", 0, err)
		return classify("commit transaction", err)
	}
	return nil
}

// Postgres SQLSTATE codes the store distinguishes.
const (
	codeExclusionViolation   = "23P01"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// classify maps a driver error onto the domain error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsClassified(err) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Error{Kind: domain.ErrNotFound, Op: op, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeExclusionViolation:
			return &domain.Error{Kind: domain.ErrConflict, Op: op, Message: "overlapping reservation exists", Err: err}
		case codeForeignKeyViolation:
			return &domain.Error{Kind: domain.ErrNotFound, Op: op, Message: "referenced record does not exist", Err: err}
		case codeCheckViolation:
			return &domain.Error{Kind: domain.ErrValidation, Op: op, Message: fmt.Sprintf("constraint %s violated", pqErr.Constraint), Err: err}
		case codeNumericOutOfRange:
			return &domain.Error{Kind: domain.ErrValidation, Op: op, Message: "numeric value out of range", Err: err}
		case codeSerializationFailure, codeDeadlockDetected:
			return domain.NewTransientError(op, err)
		}
	}
	return domain.NewTransientError(op, err)
}

func activeStatusArray() any {
	statuses := make([]string, len(domain.ActiveReservationStatuses))
	for i, s := range domain.ActiveReservationStatuses {
		statuses[i] = string(s)
	}
	return pq.Array(statuses)
}
