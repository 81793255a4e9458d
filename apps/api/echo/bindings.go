package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

const orderingParam = "ordering"

// Ordering binds the `ordering` query param: a comma-separated field list
// where a "-" prefix flips the field to descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, raw := range strings.Split(val, ",") {
		field, descending := strings.CutPrefix(strings.TrimSpace(raw), "-")
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
