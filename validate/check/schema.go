package check

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// Schema verifies the dataset's column-name set equals the expected set
// exactly. Missing and unexpected columns both fail the check.
type Schema struct {
	Columns []string
}

func (c *Schema) Name() string { return "Schema Check" }

func (c *Schema) Evaluate(ds, _ *dataset.Dataset) (Result, error) {
	if len(c.Columns) == 0 {
		return Result{}, errors.New("schema check requires at least one expected column")
	}

	expected := make(map[string]struct{}, len(c.Columns))
	for _, name := range c.Columns {
		expected[name] = struct{}{}
	}
	actual := make(map[string]struct{}, ds.NumColumns())
	for _, name := range ds.ColumnNames() {
		actual[name] = struct{}{}
	}

	var missing, unexpected []string
	for name := range expected {
		if _, ok := actual[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range actual {
		if _, ok := expected[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return pass(c, "all %d expected columns present", len(c.Columns)), nil
	}

	sort.Strings(missing)
	sort.Strings(unexpected)
	var details []string
	for _, name := range missing {
		details = append(details, fmt.Sprintf("missing column %q", name))
	}
	for _, name := range unexpected {
		details = append(details, fmt.Sprintf("unexpected column %q", name))
	}
	if total := len(details); total > maxDetails {
		details = withOverflow(details[:maxDetails], total)
	}
	return fail(
		c, details, "column set mismatch: %d missing, %d unexpected",
		len(missing), len(unexpected),
	), nil
}
