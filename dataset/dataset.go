// Package dataset holds the in-memory, column-oriented table that flows
// between extract, transform, validate and load. Datasets are rectangular:
// every column carries exactly one value per row.
package dataset

import (
	"github.com/cockroachdb/errors"
)

// Column is one named, typed column of cells. Type is the declared type
// from the pipeline config; individual cells can disagree with it (see
// Kind) when parsing failed upstream.
type Column struct {
	Name   string
	Type   Type
	Values []Value
}

// Dataset is an ordered set of columns of equal length.
type Dataset struct {
	cols   []Column
	byName map[string]int
}

// New builds a dataset from columns, rejecting duplicate names and ragged
// column lengths.
func New(cols ...Column) (*Dataset, error) {
	d := &Dataset{
		cols:   cols,
		byName: make(map[string]int, len(cols)),
	}
	for i, col := range cols {
		if col.Name == "" {
			return nil, errors.Newf("column %d has an empty name", i)
		}
		if _, ok := d.byName[col.Name]; ok {
			return nil, errors.Newf("duplicate column %q", col.Name)
		}
		d.byName[col.Name] = i
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks rectangularity. New datasets are validated on
// construction; callers that mutate columns in place can re-check here.
func (d *Dataset) Validate() error {
	if len(d.cols) == 0 {
		return nil
	}
	want := len(d.cols[0].Values)
	for _, col := range d.cols[1:] {
		if len(col.Values) != want {
			return errors.Newf(
				"ragged dataset: column %q has %d values, %q has %d",
				col.Name, len(col.Values), d.cols[0].Name, want,
			)
		}
	}
	return nil
}

func (d *Dataset) NumRows() int {
	if len(d.cols) == 0 {
		return 0
	}
	return len(d.cols[0].Values)
}

func (d *Dataset) NumColumns() int {
	return len(d.cols)
}

// Column returns the named column, or false if absent. The returned
// pointer aliases internal state; treat it as read only.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return &d.cols[i], true
}

// Columns returns the columns in order. The slice aliases internal state.
func (d *Dataset) Columns() []Column {
	return d.cols
}

// ColumnNames returns the column names in declaration order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, col := range d.cols {
		names[i] = col.Name
	}
	return names
}

// Row materializes row i across all columns, in column order.
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.cols))
	for c, col := range d.cols {
		row[c] = col.Values[i]
	}
	return row
}

// Clone deep-copies the dataset so transforms can rewrite cells without
// touching the caller's copy.
func (d *Dataset) Clone() *Dataset {
	cols := make([]Column, len(d.cols))
	for i, col := range d.cols {
		vals := make([]Value, len(col.Values))
		copy(vals, col.Values)
		cols[i] = Column{Name: col.Name, Type: col.Type, Values: vals}
	}
	clone, err := New(cols...)
	if err != nil {
		// The source was valid; a copy of it must be too.
		panic(err)
	}
	return clone
}

// SetColumn replaces the named column's contents, or appends a new column.
// The value count must match the dataset's row count unless the dataset
// has no columns yet.
func (d *Dataset) SetColumn(col Column) error {
	if col.Name == "" {
		return errors.New("column has an empty name")
	}
	if len(d.cols) > 0 && len(col.Values) != d.NumRows() {
		return errors.Newf(
			"column %q has %d values; dataset has %d rows",
			col.Name, len(col.Values), d.NumRows(),
		)
	}
	if i, ok := d.byName[col.Name]; ok {
		d.cols[i] = col
		return nil
	}
	d.byName[col.Name] = len(d.cols)
	d.cols = append(d.cols, col)
	return nil
}

// FilterRows keeps only the rows whose flag is true. The flag slice must
// cover every row.
func (d *Dataset) FilterRows(keep []bool) (*Dataset, error) {
	if len(keep) != d.NumRows() {
		return nil, errors.Newf(
			"filter has %d flags; dataset has %d rows", len(keep), d.NumRows(),
		)
	}
	cols := make([]Column, len(d.cols))
	for i, col := range d.cols {
		vals := make([]Value, 0, len(col.Values))
		for r, v := range col.Values {
			if keep[r] {
				vals = append(vals, v)
			}
		}
		cols[i] = Column{Name: col.Name, Type: col.Type, Values: vals}
	}
	return New(cols...)
}
