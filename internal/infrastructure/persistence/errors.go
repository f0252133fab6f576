package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// TranslateError maps driver and gorm errors to domain errors. Constraint
// violations become conflicts; anything unknown is wrapped as internal.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.ErrConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return shared.ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation, pgerrcode.RestrictViolation:
			return shared.ErrConflict
		}
		return fmt.Errorf("postgres error [%s]: %s: %w", pgErr.Code, pgErr.Message, joinInternal(err))
	}

	// sqlite reports constraints only through the message text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return shared.ErrAlreadyExists
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return shared.ErrConflict
	}

	return fmt.Errorf("database error: %w", joinInternal(err))
}

func joinInternal(err error) error {
	return errors.Join(shared.ErrInternal, err)
}
