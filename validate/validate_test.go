package validate

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/validate/check"
	"github.com/quarrydata/sift/validate/report"
)

type capturingReporter struct {
	objects []report.ReportableObject
}

func (c *capturingReporter) Report(obj report.ReportableObject) { c.objects = append(c.objects, obj) }
func (c *capturingReporter) Close()                             {}

// tenRowDataset builds the canonical clean scenario: ten rows of
// {id, price, quantity} plus a correctly derived total.
func tenRowDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	var ids, prices, quantities, totals []dataset.Value
	for i := 1; i <= 10; i++ {
		price := float64(i) * 99.5
		qty := int64(i)
		ids = append(ids, dataset.NewInt(int64(i)))
		prices = append(prices, dataset.NewFloat(price))
		quantities = append(quantities, dataset.NewInt(qty))
		totals = append(totals, dataset.NewFloat(price*float64(qty)))
	}
	ds, err := dataset.New(
		dataset.Column{Name: "id", Type: dataset.TypeInt, Values: ids},
		dataset.Column{Name: "price", Type: dataset.TypeFloat, Values: prices},
		dataset.Column{Name: "quantity", Type: dataset.TypeInt, Values: quantities},
		dataset.Column{Name: "total", Type: dataset.TypeFloat, Values: totals},
	)
	require.NoError(t, err)
	return ds
}

func tenRowRegistry() *check.Registry {
	reg := check.NewRegistry()
	reg.Register(&check.Schema{Columns: []string{"id", "price", "quantity", "total"}})
	reg.Register(&check.RowCount{})
	reg.Register(&check.NotNull{Columns: []string{"id", "price", "quantity"}})
	reg.Register(&check.DataType{Columns: map[string]dataset.Type{
		"id":       dataset.TypeInt,
		"price":    dataset.TypeFloat,
		"quantity": dataset.TypeInt,
	}})
	reg.Register(&check.UniqueKey{Columns: []string{"id"}})
	reg.Register(&check.Range{Column: "price", Min: apd.New(0, 0), Max: apd.New(1000, 0)})
	reg.Register(&check.Range{Column: "quantity", Min: apd.New(1, 0), Max: apd.New(100, 0)})
	reg.Register(&check.Derived{Column: "total", Op: check.OpProduct, Operands: []string{"quantity", "price"}})
	return reg
}

func TestEngineCleanScenario(t *testing.T) {
	ds := tenRowDataset(t)
	engine := New(tenRowRegistry(), zerolog.Nop())
	reporter := &capturingReporter{}

	rep, err := engine.Run(ds, ds, reporter)
	require.NoError(t, err)
	require.Equal(t, 8, rep.Total())
	require.Equal(t, 8, rep.NumPassed())
	require.Zero(t, rep.NumFailed())
	require.True(t, rep.AllPassed())

	// Every result streams to the reporter, in registration order.
	require.Len(t, reporter.objects, 8)
	expectedOrder := []string{
		"Schema Check", "Row Count Check", "Null Check", "Data Type Check",
		"Duplicate Check", "Range Check (price)", "Range Check (quantity)",
		"Transformation Accuracy (total)",
	}
	for i, obj := range reporter.objects {
		res, ok := obj.(check.Result)
		require.True(t, ok)
		require.Equal(t, expectedOrder[i], res.Check)
		require.True(t, res.Passed)
	}
}

func TestEngineSingleRangeViolation(t *testing.T) {
	ds := tenRowDataset(t)
	qty, ok := ds.Column("quantity")
	require.True(t, ok)
	qty.Values[4] = dataset.NewInt(0) // below the min=1 bound
	total, ok := ds.Column("total")
	require.True(t, ok)
	total.Values[4] = dataset.NewFloat(0) // derivation stays consistent

	rep, err := New(tenRowRegistry(), zerolog.Nop()).Run(ds, ds, nil)
	require.NoError(t, err)
	require.False(t, rep.AllPassed())
	require.Equal(t, 1, rep.NumFailed())
	for _, res := range rep.Results() {
		if res.Check == "Range Check (quantity)" {
			require.False(t, res.Passed)
			require.Equal(t, []string{"row 5: 0 outside [1, 100]"}, res.Details)
			continue
		}
		require.True(t, res.Passed, "unexpected failure in %s", res.Check)
	}
}

func TestEngineFailuresDoNotStopTheRun(t *testing.T) {
	ds := tenRowDataset(t)
	idCol, ok := ds.Column("id")
	require.True(t, ok)
	idCol.Values[0] = dataset.NewInt(2) // duplicates row 2's key

	rep, err := New(tenRowRegistry(), zerolog.Nop()).Run(ds, ds, nil)
	require.NoError(t, err)
	require.Equal(t, 8, rep.Total(), "all checks ran despite failures")
	require.False(t, rep.AllPassed())
}

func TestEngineLoadCheck(t *testing.T) {
	ds := tenRowDataset(t)
	reg := check.NewRegistry()
	reg.Register(&check.LoadCount{})
	engine := New(reg, zerolog.Nop())

	rep, err := engine.Run(ds, nil, nil, WithLoadCount(10))
	require.NoError(t, err)
	require.True(t, rep.AllPassed())

	rep, err = engine.Run(ds, nil, nil, WithLoadCount(9))
	require.NoError(t, err)
	require.False(t, rep.AllPassed())
	require.Equal(t, "persisted row count 9 does not match submitted count 10", rep.Results()[0].Message)

	_, err = engine.Run(ds, nil, nil)
	require.ErrorContains(t, err, "needs a persisted row count")
}

func TestEngineFatalErrors(t *testing.T) {
	ds := tenRowDataset(t)

	t.Run("nil dataset", func(t *testing.T) {
		_, err := New(check.NewRegistry(), zerolog.Nop()).Run(nil, nil, nil)
		require.ErrorContains(t, err, "requires a dataset")
	})

	t.Run("check against missing column aborts with no partial report", func(t *testing.T) {
		reg := check.NewRegistry()
		reg.Register(&check.RowCount{})
		reg.Register(&check.NotNull{Columns: []string{"no_such_column"}})
		reporter := &capturingReporter{}
		rep, err := New(reg, zerolog.Nop()).Run(ds, ds, reporter)
		require.ErrorContains(t, err, `running check "Null Check"`)
		require.ErrorContains(t, err, `column "no_such_column" not in dataset`)
		require.Nil(t, rep)
	})

	t.Run("inconsistent dataset", func(t *testing.T) {
		ragged := tenRowDataset(t)
		col, ok := ragged.Column("price")
		require.True(t, ok)
		col.Values = col.Values[:3]
		_, err := New(check.NewRegistry(), zerolog.Nop()).Run(ragged, nil, nil)
		require.ErrorContains(t, err, "failed consistency check")
	})
}

type bareCheck struct{}

func (bareCheck) Name() string { return "bare" }

func TestEngineRejectsBareCheck(t *testing.T) {
	reg := check.NewRegistry()
	reg.Register(bareCheck{})
	_, err := New(reg, zerolog.Nop()).Run(tenRowDataset(t), nil, nil)
	require.ErrorContains(t, err, "no evaluation capability")
}

func TestAllPassedIsAlwaysTheConjunction(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		passed  []bool
		allPass bool
	}{
		{desc: "empty", passed: nil, allPass: true},
		{desc: "single pass", passed: []bool{true}, allPass: true},
		{desc: "single fail", passed: []bool{false}, allPass: false},
		{desc: "all pass", passed: []bool{true, true, true}, allPass: true},
		{desc: "first fails", passed: []bool{false, true, true}, allPass: false},
		{desc: "middle fails", passed: []bool{true, false, true}, allPass: false},
		{desc: "last fails", passed: []bool{true, true, false}, allPass: false},
		{desc: "all fail", passed: []bool{false, false}, allPass: false},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			rep := &Report{}
			passCount := 0
			for _, p := range tc.passed {
				rep.Append(check.Result{Check: "c", Passed: p, Message: "m"})
				if p {
					passCount++
				}
			}
			require.Equal(t, tc.allPass, rep.AllPassed())
			require.Equal(t, passCount, rep.NumPassed())
			require.Equal(t, len(tc.passed)-passCount, rep.NumFailed())
			require.Equal(t, len(tc.passed), rep.Total())
		})
	}
}

func TestReportRender(t *testing.T) {
	rep := &Report{}
	rep.Append(
		check.Result{Check: "Schema Check", Passed: true, Message: "all 4 expected columns present"},
		check.Result{
			Check:   "Null Check",
			Passed:  false,
			Message: "found nulls in 1 of 3 critical columns",
			Details: []string{`column "price": 1 nulls at rows 2`},
		},
	)
	const expected = `data quality report
-------------------
PASS Schema Check: all 4 expected columns present
FAIL Null Check: found nulls in 1 of 3 critical columns
  - column "price": 1 nulls at rows 2
-------------------
total checks: 2
passed: 1
failed: 1
verdict: FAILED
`
	require.Equal(t, expected, rep.Render())
	// Rendering twice yields identical bytes.
	require.Equal(t, rep.Render(), rep.Render())
}

func TestReportMarshalJSON(t *testing.T) {
	rep := &Report{}
	rep.Append(
		check.Result{Check: "Row Count Check", Passed: true, Message: "row count 2 matches the reference"},
		check.Result{Check: "Duplicate Check", Passed: false, Message: "1 duplicate keys over (id)",
			Details: []string{"key (7) occurs 2 times"}},
	)
	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded struct {
		Results []struct {
			Check   string   `json:"check"`
			Passed  bool     `json:"passed"`
			Message string   `json:"message"`
			Details []string `json:"details"`
		} `json:"results"`
		Total     int  `json:"total"`
		Passed    int  `json:"passed"`
		Failed    int  `json:"failed"`
		AllPassed bool `json:"all_passed"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Results, 2)
	require.Equal(t, "Row Count Check", decoded.Results[0].Check)
	require.Equal(t, []string{"key (7) occurs 2 times"}, decoded.Results[1].Details)
	require.Equal(t, 2, decoded.Total)
	require.Equal(t, 1, decoded.Passed)
	require.Equal(t, 1, decoded.Failed)
	require.False(t, decoded.AllPassed)
}
