package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// postgres error codes
const (
	codeUniqueViolation     = "23505"
	codeInvalidTextRepr     = "22P02" // e.g. malformed uuid
	codeForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}
