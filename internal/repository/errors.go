package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"articlehub/db"

	"github.com/lib/pq"
)

var (
	ErrNotFound      = errors.New("article not found")
	ErrMissingID     = errors.New("article has no id")
	ErrDuplicateLink = errors.New("direct link already used by another article")
	ErrConstraint    = errors.New("article violates a table constraint")
)

const (
	codeUniqueViolation  = "23505"
	codeNotNullViolation = "23502"
	codeCheckViolation   = "23514"
	codeValueTooLong     = "22001"
	classConnection      = "08"
)

// classify maps driver errors onto the package sentinels so callers can use
// errors.Is without knowing about lib/pq.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicateLink, pqErr.Message)
		case pqErr.Code == codeNotNullViolation,
			pqErr.Code == codeCheckViolation,
			pqErr.Code == codeValueTooLong:
			return fmt.Errorf("%w: %s", ErrConstraint, pqErr.Message)
		case pqErr.Code.Class() == classConnection:
			return fmt.Errorf("%w: %w", db.ErrConnection, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", db.ErrConnection, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", db.ErrConnection, err)
	}

	return err
}
