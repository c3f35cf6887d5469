package check

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// UniqueKey verifies no combination of key-column values repeats across
// rows. Null key parts compare equal to each other. The verdict does not
// depend on row order; example keys are reported in first-occurrence order.
type UniqueKey struct {
	Columns []string
}

func (c *UniqueKey) Name() string { return "Duplicate Check" }

func (c *UniqueKey) Evaluate(ds, _ *dataset.Dataset) (Result, error) {
	if len(c.Columns) == 0 {
		return Result{}, errors.New("duplicate check requires at least one key column")
	}
	cols := make([]*dataset.Column, len(c.Columns))
	for i, name := range c.Columns {
		col, ok := ds.Column(name)
		if !ok {
			return Result{}, errors.Newf("duplicate check: column %q not in dataset", name)
		}
		cols[i] = col
	}

	counts := make(map[string]int, ds.NumRows())
	var order []string
	display := make(map[string]string)
	for r := 0; r < ds.NumRows(); r++ {
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = col.Values[r].String()
		}
		// Join on a unit separator so keys like (a, bc) and (ab, c)
		// stay distinct.
		key := strings.Join(parts, "\x1f")
		if counts[key] == 0 {
			order = append(order, key)
			display[key] = "(" + strings.Join(parts, ", ") + ")"
		}
		counts[key]++
	}

	groups := 0
	var details []string
	for _, key := range order {
		if counts[key] < 2 {
			continue
		}
		groups++
		if len(details) < maxDetails {
			details = append(details, fmt.Sprintf(
				"key %s occurs %d times", display[key], counts[key],
			))
		}
	}
	keyDesc := strings.Join(c.Columns, ", ")
	if groups == 0 {
		return pass(c, "no duplicate keys over (%s)", keyDesc), nil
	}
	return fail(c, withOverflow(details, groups),
		"%d duplicate keys over (%s)", groups, keyDesc), nil
}
