// Package transform applies cleaning and derivation rules to a dataset.
// Apply returns a new dataset; the input is never mutated.
package transform

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/quarrydata/sift/dataset"
)

// Op is the arithmetic used to derive a column from operand columns.
type Op string

const (
	OpProduct    Op = "product"
	OpSum        Op = "sum"
	OpDifference Op = "difference"
	OpQuotient   Op = "quotient"
)

func (o Op) validate(operands int) error {
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

func (o Op) fold(vals []float64) (float64, bool) {
	acc := vals[0]
	for _, v := range vals[1:] {
		switch o {
		case OpProduct:
			acc *= v
		case OpSum:
			acc += v
		case OpDifference:
			acc -= v
		case OpQuotient:
			if v == 0 {
				return 0, false
			}
			acc /= v
		}
	}
	return acc, true
}

// DerivedColumn computes a new float column from operand columns row by
// row. Rows where any operand is null or non-numeric derive to null.
type DerivedColumn struct {
	Name     string   `yaml:"name"`
	Op       Op       `yaml:"op"`
	Operands []string `yaml:"operands"`
}

// Config is the ordered rule set: text cleaning first, then coercion, then
// derivation, then the optional dedupe.
type Config struct {
	// CleanText columns are trimmed, inner whitespace collapsed, and
	// title-cased.
	CleanText []string `yaml:"clean_text"`
	// Coerce columns have stray text converted to the column's declared
	// type; values that cannot convert become null.
	Coerce []string `yaml:"coerce"`
	// Derived columns are appended (or replaced) in order.
	Derived []DerivedColumn `yaml:"derived"`
	// DedupeKey drops later rows repeating a key tuple. Off when empty.
	// Dropped rows change the row count, which the row count check reports.
	DedupeKey []string `yaml:"dedupe_key"`
}

var titleCaser = cases.Title(language.English)

// Apply runs the configured rules over a copy of ds and returns it.
// Configured columns that do not exist are configuration errors.
func Apply(logger zerolog.Logger, ds *dataset.Dataset, cfg Config) (*dataset.Dataset, error) {
	out := ds.Clone()

	for _, name := range cfg.CleanText {
		col, ok := out.Column(name)
		if !ok {
			return nil, errors.Newf("clean_text: column %q not in dataset", name)
		}
		cleaned := 0
		for i, v := range col.Values {
			s, ok := v.Text()
			if !ok {
				continue
			}
			col.Values[i] = dataset.NewText(cleanText(s))
			cleaned++
		}
		logger.Debug().Str("column", name).Int("cells", cleaned).Msgf("cleaned text")
	}

	for _, name := range cfg.Coerce {
		col, ok := out.Column(name)
		if !ok {
			return nil, errors.Newf("coerce: column %q not in dataset", name)
		}
		nulled := 0
		for i, v := range col.Values {
			if v.IsNull() {
				continue
			}
			converted, ok := v.Convert(col.Type)
			if !ok {
				converted = dataset.Null()
				nulled++
			}
			col.Values[i] = converted
		}
		if nulled > 0 {
			logger.Warn().
				Str("column", name).
				Int("cells", nulled).
				Msgf("cells could not coerce to %s and became null", col.Type)
		}
	}

	for _, d := range cfg.Derived {
		if err := derive(out, d); err != nil {
			return nil, err
		}
		logger.Debug().Str("column", d.Name).Msgf("derived column")
	}

	if len(cfg.DedupeKey) > 0 {
		deduped, dropped, err := dedupe(out, cfg.DedupeKey)
		if err != nil {
			return nil, err
		}
		if dropped > 0 {
			logger.Info().
				Int("dropped", dropped).
				Strs("key", cfg.DedupeKey).
				Msgf("deduplicated rows")
		}
		out = deduped
	}
	return out, nil
}

// cleanText trims, collapses runs of inner whitespace, and title-cases.
func cleanText(s string) string {
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

func derive(ds *dataset.Dataset, d DerivedColumn) error {
	if d.Name == "" {
		return errors.New("derived column has no name")
	}
	if err := d.Op.validate(len(d.Operands)); err != nil {
		return errors.Wrapf(err, "derived column %q", d.Name)
	}
	operandCols := make([]*dataset.Column, len(d.Operands))
	for i, name := range d.Operands {
		col, ok := ds.Column(name)
		if !ok {
			return errors.Newf("derived column %q: operand %q not in dataset", d.Name, name)
		}
		operandCols[i] = col
	}
	values := make([]dataset.Value, ds.NumRows())
	for r := range values {
		operands := make([]float64, len(operandCols))
		computable := true
		for i, col := range operandCols {
			f, ok := col.Values[r].Float()
			if !ok {
				computable = false
				break
			}
			operands[i] = f
		}
		if !computable {
			values[r] = dataset.Null()
			continue
		}
		result, ok := d.Op.fold(operands)
		if !ok {
			values[r] = dataset.Null()
			continue
		}
		values[r] = dataset.NewFloat(result)
	}
	return ds.SetColumn(dataset.Column{Name: d.Name, Type: dataset.TypeFloat, Values: values})
}

func dedupe(ds *dataset.Dataset, key []string) (*dataset.Dataset, int, error) {
	cols := make([]*dataset.Column, len(key))
	for i, name := range key {
		col, ok := ds.Column(name)
		if !ok {
			return nil, 0, errors.Newf("dedupe_key: column %q not in dataset", name)
		}
		cols[i] = col
	}
	seen := make(map[string]struct{}, ds.NumRows())
	keep := make([]bool, ds.NumRows())
	dropped := 0
	for r := 0; r < ds.NumRows(); r++ {
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = col.Values[r].String()
		}
		k := strings.Join(parts, "\x1f")
		if _, ok := seen[k]; ok {
			dropped++
			continue
		}
		seen[k] = struct{}{}
		keep[r] = true
	}
	out, err := ds.FilterRows(keep)
	if err != nil {
		return nil, 0, err
	}
	return out, dropped, nil
}
