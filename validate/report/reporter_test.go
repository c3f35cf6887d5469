package report

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/sift/validate/check"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := LogReporter{Logger: zerolog.New(&buf)}

	r.Report(Status{Info: "running checks"})
	r.Report(check.Result{Check: "Null Check", Passed: true, Message: "no nulls in critical columns"})
	r.Report(check.Result{
		Check:   "Duplicate Check",
		Passed:  false,
		Message: "1 duplicate keys over (order_id)",
		Details: []string{"key (1001) occurs 2 times"},
	})
	r.Close()

	out := buf.String()
	require.Contains(t, out, `"message":"running checks"`)
	require.Contains(t, out, `"level":"info"`)
	require.Contains(t, out, `"check":"Null Check"`)
	require.Contains(t, out, `"level":"warn"`)
	require.Contains(t, out, `"details":["key (1001) occurs 2 times"]`)
}

type capturingReporter struct {
	objects []ReportableObject
	closed  int
}

func (c *capturingReporter) Report(obj ReportableObject) { c.objects = append(c.objects, obj) }
func (c *capturingReporter) Close()                      { c.closed++ }

func TestCombinedReporter(t *testing.T) {
	a, b := &capturingReporter{}, &capturingReporter{}
	combined := CombinedReporter{Reporters: []Reporter{a, b}}

	combined.Report(Status{Info: "x"})
	combined.Close()

	require.Len(t, a.objects, 1)
	require.Len(t, b.objects, 1)
	require.Equal(t, 1, a.closed)
	require.Equal(t, 1, b.closed)
}
