package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/aisleron/aisleron-server/internal/domain"
)

// MapError maps storage failures into the domain error taxonomy. Specific
// duplicate codes come from use-case preconditions; anything the database
// itself rejects surfaces as generic (or not_found) so no gorm or pg error
// type ever crosses the service boundary.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domain.Error); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Wrap(domain.CodeNotFound, op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Wrap(domain.CodeGeneric, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return domain.Wrap(domain.CodeGeneric, op, err)
		case "23503": // foreign_key_violation
			return domain.Wrap(domain.CodeGeneric, op, err)
		}
	}
	return domain.Wrap(domain.CodeGeneric, op, err)
}
