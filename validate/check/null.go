package check

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// NotNull verifies the configured critical columns contain no nulls.
type NotNull struct {
	Columns []string
}

func (c *NotNull) Name() string { return "Null Check" }

func (c *NotNull) Evaluate(ds, _ *dataset.Dataset) (Result, error) {
	if len(c.Columns) == 0 {
		return Result{}, errors.New("null check requires at least one column")
	}
	var details []string
	for _, name := range c.Columns {
		col, ok := ds.Column(name)
		if !ok {
			return Result{}, errors.Newf("null check: column %q not in dataset", name)
		}
		var rows []int
		for i, v := range col.Values {
			if v.IsNull() {
				rows = append(rows, i+1)
			}
		}
		if len(rows) > 0 {
			details = append(details, fmt.Sprintf(
				"column %q: %d nulls at rows %s", name, len(rows), formatRows(rows),
			))
		}
	}
	if len(details) == 0 {
		return pass(c, "no nulls in critical columns"), nil
	}
	offending := len(details)
	if offending > maxDetails {
		details = withOverflow(details[:maxDetails], offending)
	}
	return fail(c, details, "found nulls in %d of %d critical columns",
		offending, len(c.Columns)), nil
}

// formatRows renders 1-based row numbers, capped at maxDetails examples.
func formatRows(rows []int) string {
	out := ""
	for i, r := range rows {
		if i == maxDetails {
			return out + ", ..."
		}
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(r)
	}
	return out
}
