package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate reports an insert that lost a race against a unique
// constraint. Services translate it to a conflict for the caller.
var ErrDuplicate = errors.New("duplicate record")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
