package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrydata/sift/dataset"
)

func TestSuiteUnmarshal(t *testing.T) {
	const doc = `
checks:
  - expect_columns: {columns: [order_id, price, total]}
  - row_count:
  - not_null: {columns: [order_id]}
  - data_type: {columns: {order_id: integer, price: float}}
  - unique_key: {columns: [order_id]}
  - range: {column: price, min: 0, max: 10000}
  - range: {column: quantity, min: 1, max: 100}
  - derived: {column: total, op: product, operands: [quantity, price], tolerance: 1e-9}
  - load_count: {}
`
	suite, err := ParseSuite([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 9, suite.Len())

	require.Equal(t, []string{
		"Schema Check",
		"Row Count Check",
		"Null Check",
		"Data Type Check",
		"Duplicate Check",
		"Range Check (price)",
		"Range Check (quantity)",
		"Transformation Accuracy (total)",
		"Load Count Check",
	}, checkNames(suite.Registry().Checks()))

	// Spot-check parsed configuration survives the trip.
	checks := suite.Registry().Checks()
	rangeCheck, ok := checks[5].(*Range)
	require.True(t, ok)
	require.Equal(t, "0", rangeCheck.Min.String())
	require.Equal(t, "10000", rangeCheck.Max.String())

	derived, ok := checks[7].(*Derived)
	require.True(t, ok)
	require.Equal(t, OpProduct, derived.Op)
	require.Equal(t, []string{"quantity", "price"}, derived.Operands)
	require.NotNil(t, derived.Tolerance)

	typeCheck, ok := checks[3].(*DataType)
	require.True(t, ok)
	require.Equal(t, dataset.TypeFloat, typeCheck.Columns["price"])
}

func TestSuiteUnmarshalErrors(t *testing.T) {
	for _, tc := range []struct {
		desc        string
		doc         string
		expectedErr string
	}{
		{
			desc:        "unknown check kind",
			doc:         "checks:\n  - bogus: {}\n",
			expectedErr: `check "bogus": unknown check kind`,
		},
		{
			desc:        "entry with two keys",
			doc:         "checks:\n  - row_count: {}\n    load_count: {}\n",
			expectedErr: "exactly one key",
		},
		{
			desc:        "checks not a list",
			doc:         "checks:\n  row_count: {}\n",
			expectedErr: "checks must be a list",
		},
		{
			desc:        "empty checks list",
			doc:         "checks: []\n",
			expectedErr: "checks list is empty",
		},
		{
			desc:        "no checks key",
			doc:         "other: 1\n",
			expectedErr: "no checks",
		},
		{
			desc:        "expect_columns without columns",
			doc:         "checks:\n  - expect_columns: {}\n",
			expectedErr: `check "expect_columns": requires a columns list`,
		},
		{
			desc:        "range without bounds",
			doc:         "checks:\n  - range: {column: price}\n",
			expectedErr: "requires a min or max bound",
		},
		{
			desc:        "range without column",
			doc:         "checks:\n  - range: {min: 0}\n",
			expectedErr: "requires a column",
		},
		{
			desc:        "range min above max",
			doc:         "checks:\n  - range: {column: price, min: 10, max: 1}\n",
			expectedErr: "min 10 exceeds max 1",
		},
		{
			desc:        "data_type with bad type name",
			doc:         "checks:\n  - data_type: {columns: {price: floaty}}\n",
			expectedErr: `unknown column type "floaty"`,
		},
		{
			desc:        "derived with unknown op",
			doc:         "checks:\n  - derived: {column: t, op: modulo, operands: [a, b]}\n",
			expectedErr: `unknown op "modulo"`,
		},
		{
			desc:        "derived with one operand",
			doc:         "checks:\n  - derived: {column: t, op: product, operands: [a]}\n",
			expectedErr: "at least two operands",
		},
		{
			desc:        "derived with negative tolerance",
			doc:         "checks:\n  - derived: {column: t, op: sum, operands: [a, b], tolerance: -0.1}\n",
			expectedErr: "tolerance must not be negative",
		},
		{
			desc:        "unique_key without columns",
			doc:         "checks:\n  - unique_key: {}\n",
			expectedErr: "requires a columns list",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ParseSuite([]byte(tc.doc))
			require.ErrorContains(t, err, tc.expectedErr)
		})
	}
}

func TestDefaultSuite(t *testing.T) {
	suite := DefaultSuite()
	require.Equal(t, []string{
		"Schema Check",
		"Row Count Check",
		"Null Check",
		"Data Type Check",
		"Duplicate Check",
		"Range Check (price)",
		"Range Check (quantity)",
		"Transformation Accuracy (total_amount)",
		"Load Count Check",
	}, checkNames(suite.Registry().Checks()))
}
