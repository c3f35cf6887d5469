package check

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"

	"github.com/quarrydata/sift/dataset"
)

// Op is the arithmetic relation a derived column is expected to satisfy.
type Op string

const (
	OpProduct    Op = "product"
	OpSum        Op = "sum"
	OpDifference Op = "difference"
	OpQuotient   Op = "quotient"
)

// Validate checks the op is known and the operand count fits it. Product
// and sum fold any number of operands; difference and quotient are binary.
func (o Op) Validate(operands int) error {
	switch o {
	case OpProduct, OpSum:
		if operands < 2 {
			return errors.Newf("op %q requires at least two operands", o)
		}
	case OpDifference, OpQuotient:
		if operands != 2 {
			return errors.Newf("op %q requires exactly two operands", o)
		}
	default:
		return errors.Newf("unknown op %q", o)
	}
	return nil
}

// decimal context for recomputation; generous precision so money-scale
// folds never round.
var derivedCtx = apd.BaseContext.WithPrecision(30)

// Derived verifies a transformation: it recomputes the expected value of a
// derived column per row from operand columns in the reference dataset and
// compares against the transformed dataset's value within a tolerance.
//
// Rows where any operand is null or non-numeric are skipped (the null and
// type checks own those findings). A null or non-numeric derived value on
// a computable row is a mismatch: the transform should have produced it.
type Derived struct {
	Column   string
	Op       Op
	Operands []string
	// Tolerance for the absolute difference; nil means 1e-9.
	Tolerance *apd.Decimal
}

func (c *Derived) Name() string {
	return fmt.Sprintf("Transformation Accuracy (%s)", c.Column)
}

func (c *Derived) Evaluate(ds, ref *dataset.Dataset) (Result, error) {
	if c.Column == "" {
		return Result{}, errors.New("transformation accuracy check requires a column")
	}
	if err := c.Op.Validate(len(c.Operands)); err != nil {
		return Result{}, errors.Wrap(err, "transformation accuracy check")
	}
	if ref == nil {
		return Result{}, errors.Newf(
			"transformation accuracy check on %q requires a reference dataset", c.Column)
	}
	derivedCol, ok := ds.Column(c.Column)
	if !ok {
		return Result{}, errors.Newf(
			"transformation accuracy check: column %q not in dataset", c.Column)
	}
	operandCols := make([]*dataset.Column, len(c.Operands))
	for i, name := range c.Operands {
		col, ok := ref.Column(name)
		if !ok {
			return Result{}, errors.Newf(
				"transformation accuracy check: operand column %q not in reference", name)
		}
		operandCols[i] = col
	}
	opDesc := fmt.Sprintf("%s(%s)", c.Op, strings.Join(c.Operands, ", "))

	// Row-aligned comparison is meaningless if the transform changed the
	// row count; report that as a failure rather than comparing garbage.
	if ds.NumRows() != ref.NumRows() {
		return fail(c, nil, "cannot verify %s: row count %d differs from reference count %d",
			opDesc, ds.NumRows(), ref.NumRows()), nil
	}

	tolerance := c.Tolerance
	if tolerance == nil {
		tolerance = apd.New(1, -9)
	}

	compared, mismatches := 0, 0
	var details []string
	addDetail := func(format string, args ...any) {
		if len(details) < maxDetails {
			details = append(details, fmt.Sprintf(format, args...))
		}
	}
	for r := 0; r < ds.NumRows(); r++ {
		operands := make([]*apd.Decimal, len(operandCols))
		computable := true
		for i, col := range operandCols {
			d, ok := col.Values[r].Decimal()
			if !ok {
				computable = false
				break
			}
			operands[i] = d
		}
		if !computable {
			continue
		}
		compared++

		expected, err := c.fold(operands)
		if err != nil {
			mismatches++
			addDetail("row %d: cannot recompute %s: %v", r+1, opDesc, err)
			continue
		}
		actual, ok := derivedCol.Values[r].Decimal()
		if !ok {
			mismatches++
			addDetail("row %d: expected %s, got %s",
				r+1, decString(expected), displayValue(derivedCol.Values[r]))
			continue
		}
		var diff apd.Decimal
		if _, err := derivedCtx.Sub(&diff, expected, actual); err != nil {
			return Result{}, errors.Wrapf(err, "comparing row %d", r+1)
		}
		diff.Abs(&diff)
		if diff.Cmp(tolerance) > 0 {
			mismatches++
			addDetail("row %d: expected %s, got %s",
				r+1, decString(expected), derivedCol.Values[r].String())
		}
	}
	if mismatches == 0 {
		return pass(c, "recomputed %s matches %q on %d rows", opDesc, c.Column, compared), nil
	}
	return fail(c, withOverflow(details, mismatches),
		"%d of %d compared rows deviate from %s", mismatches, compared, opDesc), nil
}

func (c *Derived) fold(operands []*apd.Decimal) (*apd.Decimal, error) {
	acc := new(apd.Decimal).Set(operands[0])
	for _, next := range operands[1:] {
		var err error
		switch c.Op {
		case OpProduct:
			_, err = derivedCtx.Mul(acc, acc, next)
		case OpSum:
			_, err = derivedCtx.Add(acc, acc, next)
		case OpDifference:
			_, err = derivedCtx.Sub(acc, acc, next)
		case OpQuotient:
			_, err = derivedCtx.Quo(acc, acc, next)
		default:
			return nil, errors.AssertionFailedf("unknown op %q", c.Op)
		}
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// decString renders a computed decimal plainly, trailing zeros stripped,
// so expected values match the canonical rendering of dataset values.
func decString(d *apd.Decimal) string {
	var reduced apd.Decimal
	reduced.Reduce(d)
	return reduced.Text('f')
}
