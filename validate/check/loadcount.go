package check

import (
	"github.com/cockroachdb/errors"
)

// LoadCount verifies the target store persisted exactly the rows submitted
// for loading. It runs after Load and compares two counts; see LoadCheck.
type LoadCount struct{}

func (c *LoadCount) Name() string { return "Load Count Check" }

func (c *LoadCount) EvaluateCount(submitted, persisted int) (Result, error) {
	if submitted < 0 || persisted < 0 {
		return Result{}, errors.AssertionFailedf(
			"negative row counts: submitted=%d persisted=%d", submitted, persisted)
	}
	if submitted == persisted {
		return pass(c, "persisted row count %d matches submitted count", persisted), nil
	}
	return fail(c, nil, "persisted row count %d does not match submitted count %d",
		persisted, submitted), nil
}
