// Package sqlxrepos implements the domain repositories on Postgres via sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// 23505 = unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		if fallback == "" {
			return ""
		}
		return " ORDER BY " + fallback
	}
	terms := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		terms = append(terms, ord.String())
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
