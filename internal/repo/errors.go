package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
)

var (
	ErrorNotFound  = apperr.New(apperr.CodeNotFound, "not found")
	ErrorConflict  = apperr.New(apperr.CodeConflict, "conflict")
	ErrorForbidden = apperr.New(apperr.CodeForbidden, "forbidden")
)

func notFound(kind, id string) error {
	return apperr.Newf(apperr.CodeNotFound, "%s %s not found", kind, id)
}

func forbidden(kind, id string) error {
	return apperr.Newf(apperr.CodeForbidden, "%s %s belongs to another user", kind, id)
}

func conflict(kind, id string) error {
	return apperr.Newf(apperr.CodeConflict, "%s %s was modified concurrently", kind, id)
}

func unknownLabel(id string) error {
	return apperr.Newf(apperr.CodeValidation, "label %s does not exist", id)
}

func labelInUse(n int) error {
	return apperr.Newf(apperr.CodeValidation, "label is used by %d tasks, delete with force to detach it", n)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return apperr.Wrap(apperr.CodeConflict, err, "duplicate record")
		case "23503": // foreign_key_violation
			return apperr.Wrap(apperr.CodeValidation, err, "referenced record does not exist")
		}
	}
	return err
}

// querier is what pgxpool.Pool and pgx.Tx have in common.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify explains why an owner-scoped statement matched no rows: the row
// is missing, belongs to someone else, or (for versioned writes) is stale.
func classify(ctx context.Context, q querier, table, kind, id, ownerID string) error {
	var owner string
	err := q.QueryRow(ctx, fmt.Sprintf("SELECT owner_id FROM %s WHERE id = $1", table), id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(kind, id)
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return forbidden(kind, id)
	}
	return conflict(kind, id)
}
