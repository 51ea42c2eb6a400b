package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Key (email)=(john@example.com) already exists.
var pgDetailRegex = regexp.MustCompile(`Key \(([^)]+)\)=\((.*)\) already exists`)

// translateError turns unique-constraint violations into a Conflict that
// names the offending field and value. Other errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if m := pgDetailRegex.FindStringSubmatch(pgErr.Detail); m != nil {
			return conflict(m[1], m[2], err)
		}
		return &apperror.Error{Kind: apperror.KindConflict, Message: "Resource already exists", Err: err}
	}

	// SQLite: "UNIQUE constraint failed: users.email"
	if _, cols, ok := strings.Cut(err.Error(), "UNIQUE constraint failed: "); ok {
		var fields []string
		for _, col := range strings.Split(cols, ", ") {
			_, field, _ := strings.Cut(col, ".")
			fields = append(fields, field)
		}
		return conflict(strings.Join(fields, ", "), "", err)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperror.Error{Kind: apperror.KindConflict, Message: "Resource already exists", Err: err}
	}

	return err
}

func conflict(field, value string, cause error) *apperror.Error {
	msg := fmt.Sprintf("%s already exists", field)
	if value != "" {
		msg = fmt.Sprintf("%s '%s' already exists", field, value)
	}
	return &apperror.Error{
		Kind:    apperror.KindConflict,
		Message: msg,
		Details: map[string]string{"field": field, "value": value},
		Err:     cause,
	}
}

// notFoundAsNil maps gorm.ErrRecordNotFound to (nil, nil)
func notFoundAsNil[T any](v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
