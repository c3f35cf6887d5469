package check

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// DataType verifies every value in each configured column is consistent
// with its expected logical type. A value conforms when its kind matches
// the type or converts losslessly (integers widen to float, floats narrow
// to integer only when integral, text only when it parses). Nulls are
// exempt; missing values are the null check's concern.
type DataType struct {
	Columns map[string]dataset.Type
}

func (c *DataType) Name() string { return "Data Type Check" }

func (c *DataType) Evaluate(ds, _ *dataset.Dataset) (Result, error) {
	if len(c.Columns) == 0 {
		return Result{}, errors.New("data type check requires at least one column")
	}

	// Map order is not stable; evaluate columns alphabetically so details
	// render the same way on every run.
	names := make([]string, 0, len(c.Columns))
	for name := range c.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	var details []string
	for _, name := range names {
		col, ok := ds.Column(name)
		if !ok {
			return Result{}, errors.Newf("data type check: column %q not in dataset", name)
		}
		want := c.Columns[name]
		for i, v := range col.Values {
			if v.IsNull() || v.ConvertibleTo(want) {
				continue
			}
			total++
			if len(details) < maxDetails {
				details = append(details, fmt.Sprintf(
					"column %q row %d: %s %s cannot be read as %s",
					name, i+1, v.Kind(), displayValue(v), want,
				))
			}
		}
	}
	if total == 0 {
		return pass(c, "all %d typed columns conform", len(c.Columns)), nil
	}
	return fail(c, withOverflow(details, total),
		"%d values do not conform to declared types", total), nil
}

// displayValue quotes text so stray whitespace is visible in reports;
// other kinds render canonically.
func displayValue(v dataset.Value) string {
	if s, ok := v.Text(); ok {
		return strconv.Quote(s)
	}
	return v.String()
}
