package transform

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/sift/dataset"
)

func mustDataset(t *testing.T, cols ...dataset.Column) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(cols...)
	require.NoError(t, err)
	return ds
}

func TestCleanText(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		in       string
		expected string
	}{
		{desc: "trim", in: "  widget  ", expected: "Widget"},
		{desc: "collapse inner whitespace", in: "widget   pro  max", expected: "Widget Pro Max"},
		{desc: "title case", in: "wireless mouse", expected: "Wireless Mouse"},
		{desc: "already clean", in: "Widget", expected: "Widget"},
		{desc: "empty", in: "", expected: ""},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, cleanText(tc.in))
		})
	}
}

func TestApply(t *testing.T) {
	ds := mustDataset(t,
		dataset.Column{Name: "order_id", Type: dataset.TypeInt, Values: []dataset.Value{
			dataset.NewInt(1), dataset.NewInt(2), dataset.NewInt(3),
		}},
		dataset.Column{Name: "product_name", Type: dataset.TypeText, Values: []dataset.Value{
			dataset.NewText("  widget pro "), dataset.NewText("gadget"), dataset.Null(),
		}},
		dataset.Column{Name: "quantity", Type: dataset.TypeInt, Values: []dataset.Value{
			dataset.NewInt(2), dataset.NewText("3"), dataset.Null(),
		}},
		dataset.Column{Name: "price", Type: dataset.TypeFloat, Values: []dataset.Value{
			dataset.NewFloat(19.99), dataset.NewText("n/a"), dataset.NewFloat(5),
		}},
	)

	cfg := Config{
		CleanText: []string{"product_name"},
		Coerce:    []string{"quantity", "price"},
		Derived: []DerivedColumn{
			{Name: "total_amount", Op: OpProduct, Operands: []string{"quantity", "price"}},
		},
	}
	out, err := Apply(zerolog.Nop(), ds, cfg)
	require.NoError(t, err)

	// The input dataset is untouched.
	origName, ok := ds.Column("product_name")
	require.True(t, ok)
	require.True(t, dataset.NewText("  widget pro ").Equal(origName.Values[0]))
	origQty, ok := ds.Column("quantity")
	require.True(t, ok)
	require.True(t, dataset.NewText("3").Equal(origQty.Values[1]))
	require.Equal(t, 4, ds.NumColumns())

	names, ok := out.Column("product_name")
	require.True(t, ok)
	require.True(t, dataset.NewText("Widget Pro").Equal(names.Values[0]))
	require.True(t, names.Values[2].IsNull(), "nulls pass through cleaning")

	// Coercion converts parseable text and nulls the rest.
	qty, ok := out.Column("quantity")
	require.True(t, ok)
	require.True(t, dataset.NewInt(3).Equal(qty.Values[1]))
	price, ok := out.Column("price")
	require.True(t, ok)
	require.True(t, price.Values[1].IsNull())

	// Derivation: row 1 computable, rows 2 and 3 have null operands.
	total, ok := out.Column("total_amount")
	require.True(t, ok)
	require.Equal(t, dataset.TypeFloat, total.Type)
	require.True(t, dataset.NewFloat(2*19.99).Equal(total.Values[0]))
	require.True(t, total.Values[1].IsNull())
	require.True(t, total.Values[2].IsNull())
	require.Equal(t, []string{"order_id", "product_name", "quantity", "price", "total_amount"},
		out.ColumnNames())
}

func TestApplyDerivedOps(t *testing.T) {
	base := func() *dataset.Dataset {
		return mustDataset(t,
			dataset.Column{Name: "a", Type: dataset.TypeFloat, Values: []dataset.Value{
				dataset.NewFloat(10), dataset.NewFloat(7.5),
			}},
			dataset.Column{Name: "b", Type: dataset.TypeFloat, Values: []dataset.Value{
				dataset.NewFloat(4), dataset.NewFloat(0),
			}},
		)
	}
	for _, tc := range []struct {
		desc     string
		op       Op
		expected []dataset.Value
	}{
		{desc: "sum", op: OpSum, expected: []dataset.Value{dataset.NewFloat(14), dataset.NewFloat(7.5)}},
		{desc: "difference", op: OpDifference, expected: []dataset.Value{dataset.NewFloat(6), dataset.NewFloat(7.5)}},
		{desc: "quotient nulls on zero divisor", op: OpQuotient, expected: []dataset.Value{dataset.NewFloat(2.5), dataset.Null()}},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			out, err := Apply(zerolog.Nop(), base(), Config{
				Derived: []DerivedColumn{{Name: "c", Op: tc.op, Operands: []string{"a", "b"}}},
			})
			require.NoError(t, err)
			col, ok := out.Column("c")
			require.True(t, ok)
			for i, expected := range tc.expected {
				require.True(t, expected.Equal(col.Values[i]),
					"row %d: expected %s, got %s", i+1, expected, col.Values[i])
			}
		})
	}
}

func TestApplyDedupe(t *testing.T) {
	ds := mustDataset(t,
		dataset.Column{Name: "order_id", Type: dataset.TypeInt, Values: []dataset.Value{
			dataset.NewInt(1), dataset.NewInt(2), dataset.NewInt(1), dataset.NewInt(3),
		}},
		dataset.Column{Name: "region", Type: dataset.TypeText, Values: []dataset.Value{
			dataset.NewText("n"), dataset.NewText("s"), dataset.NewText("w"), dataset.NewText("e"),
		}},
	)
	out, err := Apply(zerolog.Nop(), ds, Config{DedupeKey: []string{"order_id"}})
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())

	// First occurrence wins.
	regions, ok := out.Column("region")
	require.True(t, ok)
	require.True(t, dataset.NewText("n").Equal(regions.Values[0]))
	require.Equal(t, 4, ds.NumRows(), "input dataset keeps its rows")
}

func TestApplyConfigErrors(t *testing.T) {
	ds := mustDataset(t,
		dataset.Column{Name: "a", Type: dataset.TypeFloat, Values: []dataset.Value{dataset.NewFloat(1)}},
	)
	for _, tc := range []struct {
		desc        string
		cfg         Config
		expectedErr string
	}{
		{
			desc:        "clean_text on missing column",
			cfg:         Config{CleanText: []string{"nope"}},
			expectedErr: `clean_text: column "nope" not in dataset`,
		},
		{
			desc:        "coerce on missing column",
			cfg:         Config{Coerce: []string{"nope"}},
			expectedErr: `coerce: column "nope" not in dataset`,
		},
		{
			desc: "derived with missing operand",
			cfg: Config{Derived: []DerivedColumn{
				{Name: "c", Op: OpSum, Operands: []string{"a", "nope"}},
			}},
			expectedErr: `operand "nope" not in dataset`,
		},
		{
			desc: "derived with unknown op",
			cfg: Config{Derived: []DerivedColumn{
				{Name: "c", Op: Op("modulo"), Operands: []string{"a", "a"}},
			}},
			expectedErr: `unknown op "modulo"`,
		},
		{
			desc: "derived without name",
			cfg: Config{Derived: []DerivedColumn{
				{Op: OpSum, Operands: []string{"a", "a"}},
			}},
			expectedErr: "derived column has no name",
		},
		{
			desc:        "dedupe on missing column",
			cfg:         Config{DedupeKey: []string{"nope"}},
			expectedErr: `dedupe_key: column "nope" not in dataset`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Apply(zerolog.Nop(), ds, tc.cfg)
			require.ErrorContains(t, err, tc.expectedErr)
		})
	}
}
