// Package check defines the data-quality checks, their shared Result type
// and the ordered Registry the validation engine executes. Checks are pure:
// they read datasets and produce Results, never mutating their inputs.
//
// A check reports ordinary data problems as a Result with Passed=false.
// The error return is reserved for configuration defects — a configured
// column missing from the dataset, a missing reference dataset, an empty
// key list — which callers treat as fatal.
package check

import (
	"fmt"

	"github.com/quarrydata/sift/dataset"
)

// maxDetails bounds the example lines a single Result carries.
const maxDetails = 5

// Check is the common capability: every check has a stable display name,
// which is also its identity in reports.
type Check interface {
	Name() string
}

// DatasetCheck evaluates against the transformed dataset, with the
// pre-transform reference dataset available for comparison. Checks that do
// not need the reference ignore it.
type DatasetCheck interface {
	Check
	Evaluate(ds, ref *dataset.Dataset) (Result, error)
}

// LoadCheck evaluates row counts after a load has happened. It is scalar
// shaped on purpose: forcing the dataset signature onto it would mean
// fabricating a dataset out of two integers.
type LoadCheck interface {
	Check
	EvaluateCount(submitted, persisted int) (Result, error)
}

// Result is the outcome of one check evaluation.
type Result struct {
	Check   string   `json:"check"`
	Passed  bool     `json:"passed"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func pass(c Check, format string, args ...any) Result {
	return Result{Check: c.Name(), Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(c Check, details []string, format string, args ...any) Result {
	return Result{
		Check:   c.Name(),
		Passed:  false,
		Message: fmt.Sprintf(format, args...),
		Details: details,
	}
}

// withOverflow appends a summary line when more problems were found than
// detail examples collected.
func withOverflow(details []string, total int) []string {
	if total > len(details) {
		details = append(details, fmt.Sprintf("... and %d more", total-len(details)))
	}
	return details
}
