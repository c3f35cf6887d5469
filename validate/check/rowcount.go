package check

import (
	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// RowCount verifies the transformed dataset kept exactly the reference
// dataset's row count. Transforms must not silently drop or duplicate rows.
type RowCount struct{}

func (c *RowCount) Name() string { return "Row Count Check" }

func (c *RowCount) Evaluate(ds, ref *dataset.Dataset) (Result, error) {
	if ref == nil {
		return Result{}, errors.New("row count check requires a reference dataset")
	}
	got, want := ds.NumRows(), ref.NumRows()
	if got == want {
		return pass(c, "row count %d matches the reference", got), nil
	}
	return fail(c, nil, "row count %d does not match reference count %d", got, want), nil
}
