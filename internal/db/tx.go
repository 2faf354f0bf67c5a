package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgreSQL SQLSTATE codes mapped to domain errors by the services.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// TxFunc receives the transaction handle every repository call in the unit of work must use.
type TxFunc func(ctx context.Context, tx bun.IDB) error

// Transactor scopes a unit of work to a single transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type transactor struct {
	db *bun.DB
}

func NewTransactor(db *bun.DB) Transactor {
	return &transactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
func (t *transactor) WithinTx(ctx context.Context, fn TxFunc) error {
	return t.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
// The constraint name is returned so callers can tell which unique key fired.
func IsUniqueViolation(err error) (string, bool) {
	return pgCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err carries SQLSTATE 23503.
func IsForeignKeyViolation(err error) (string, bool) {
	return pgCode(err, codeForeignKeyViolation)
}

func pgCode(err error, code string) (string, bool) {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Field('C') != code {
		return "", false
	}
	return pgErr.Field('n'), true
}

// IsNoRows reports whether a select found nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
