package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quarrydata/sift/validate/check"
)

// Report is the ordered outcome of a validation run: one result per
// executed check, in registration order. Aggregates are derived from the
// result sequence on every call, so they can never drift from the details.
type Report struct {
	results []check.Result
}

// Append adds results to the end of the report. The pipeline uses this to
// attach the post-load result to the pre-load report.
func (r *Report) Append(results ...check.Result) {
	r.results = append(r.results, results...)
}

// Results returns the results in order. The slice is a copy.
func (r *Report) Results() []check.Result {
	out := make([]check.Result, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Report) Total() int {
	return len(r.results)
}

func (r *Report) NumPassed() int {
	n := 0
	for _, res := range r.results {
		if res.Passed {
			n++
		}
	}
	return n
}

func (r *Report) NumFailed() int {
	return r.Total() - r.NumPassed()
}

// AllPassed is the conjunction of every result. An empty report passes
// vacuously.
func (r *Report) AllPassed() bool {
	for _, res := range r.results {
		if !res.Passed {
			return false
		}
	}
	return true
}

const renderRule = "-------------------"

// Render produces the stable text artifact: one PASS/FAIL line per check
// with indented details, then a summary block and the verdict. Output is
// deterministic so successive runs can be diffed.
func (r *Report) Render() string {
	var sb strings.Builder
	sb.WriteString("data quality report\n")
	sb.WriteString(renderRule + "\n")
	for _, res := range r.results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", status, res.Check, res.Message)
		for _, d := range res.Details {
			fmt.Fprintf(&sb, "  - %s\n", d)
		}
	}
	sb.WriteString(renderRule + "\n")
	fmt.Fprintf(&sb, "total checks: %d\n", r.Total())
	fmt.Fprintf(&sb, "passed: %d\n", r.NumPassed())
	fmt.Fprintf(&sb, "failed: %d\n", r.NumFailed())
	verdict := "PASSED"
	if !r.AllPassed() {
		verdict = "FAILED"
	}
	fmt.Fprintf(&sb, "verdict: %s\n", verdict)
	return sb.String()
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Results   []check.Result `json:"results"`
		Total     int            `json:"total"`
		Passed    int            `json:"passed"`
		Failed    int            `json:"failed"`
		AllPassed bool           `json:"all_passed"`
	}{
		Results:   r.results,
		Total:     r.Total(),
		Passed:    r.NumPassed(),
		Failed:    r.NumFailed(),
		AllPassed: r.AllPassed(),
	})
}
