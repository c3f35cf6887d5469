package check

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// Range verifies every numeric value in one column falls inside an
// inclusive [min, max] bound. Each configured column is its own Range
// check and its own report entry. Nulls are exempt, and values that are
// not numeric at all are left to the data type check.
type Range struct {
	Column string
	// Min and Max are inclusive; nil leaves that side unbounded. At least
	// one side must be set.
	Min *apd.Decimal
	Max *apd.Decimal
}

func (c *Range) Name() string { return fmt.Sprintf("Range Check (%s)", c.Column) }

func (c *Range) Evaluate(ds, _ *dataset.Dataset) (Result, error) {
	if c.Column == "" {
		return Result{}, errors.New("range check requires a column")
	}
	if c.Min == nil && c.Max == nil {
		return Result{}, errors.Newf("range check on %q requires a min or max bound", c.Column)
	}
	col, ok := ds.Column(c.Column)
	if !ok {
		return Result{}, errors.Newf("range check: column %q not in dataset", c.Column)
	}

	bounds := c.boundsString()
	total := 0
	var details []string
	for i, v := range col.Values {
		d, ok := v.Decimal()
		if !ok {
			continue
		}
		if (c.Min != nil && d.Cmp(c.Min) < 0) || (c.Max != nil && d.Cmp(c.Max) > 0) {
			total++
			if len(details) < maxDetails {
				details = append(details, fmt.Sprintf(
					"row %d: %s outside %s", i+1, v.String(), bounds,
				))
			}
		}
	}
	if total == 0 {
		return pass(c, "all values within %s", bounds), nil
	}
	return fail(c, withOverflow(details, total),
		"%d values outside %s", total, bounds), nil
}

func (c *Range) boundsString() string {
	min, max := "-inf", "+inf"
	if c.Min != nil {
		min = c.Min.String()
	}
	if c.Max != nil {
		max = c.Max.String()
	}
	return fmt.Sprintf("[%s, %s]", min, max)
}
