package check

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/quarrydata/sift/dataset"
)

// Suite is an ordered, declarative list of checks. It unmarshals from the
// `checks` section of a config file, where every entry is a single-key
// mapping naming the check kind:
//
//	checks:
//	  - expect_columns: {columns: [order_id, price]}
//	  - row_count: {}
//	  - not_null: {columns: [order_id]}
//	  - data_type: {columns: {price: float}}
//	  - unique_key: {columns: [order_id]}
//	  - range: {column: price, min: 0, max: 10000}
//	  - derived: {column: total, op: product, operands: [quantity, price]}
//	  - load_count: {}
//
// Entry order is preserved: it becomes registration order and therefore
// report order. Unknown kinds and malformed bodies fail at parse time.
type Suite struct {
	checks []Check
}

// NewSuite builds a suite programmatically, in the given order.
func NewSuite(checks ...Check) *Suite {
	return &Suite{checks: checks}
}

func (s *Suite) Len() int {
	return len(s.checks)
}

// Registry builds a fresh registry with the suite's checks in order.
func (s *Suite) Registry() *Registry {
	reg := NewRegistry()
	for _, c := range s.checks {
		reg.Register(c)
	}
	return reg
}

func (s *Suite) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return errors.Newf("line %d: checks must be a list", value.Line)
	}
	s.checks = nil
	for _, item := range value.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return errors.Newf("line %d: each check entry must have exactly one key", item.Line)
		}
		kind := item.Content[0].Value
		c, err := buildCheck(kind, item.Content[1])
		if err != nil {
			return errors.Wrapf(err, "line %d: check %q", item.Line, kind)
		}
		s.checks = append(s.checks, c)
	}
	if len(s.checks) == 0 {
		return errors.New("checks list is empty")
	}
	return nil
}

func buildCheck(kind string, body *yaml.Node) (Check, error) {
	decode := func(into any) error {
		if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
			return nil
		}
		return body.Decode(into)
	}
	switch kind {
	case "expect_columns":
		var cfg struct {
			Columns []string `yaml:"columns"`
		}
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		if len(cfg.Columns) == 0 {
			return nil, errors.New("requires a columns list")
		}
		return &Schema{Columns: cfg.Columns}, nil

	case "row_count":
		if err := decode(&struct{}{}); err != nil {
			return nil, err
		}
		return &RowCount{}, nil

	case "not_null":
		var cfg struct {
			Columns []string `yaml:"columns"`
		}
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		if len(cfg.Columns) == 0 {
			return nil, errors.New("requires a columns list")
		}
		return &NotNull{Columns: cfg.Columns}, nil

	case "data_type":
		var cfg struct {
			Columns map[string]string `yaml:"columns"`
		}
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		if len(cfg.Columns) == 0 {
			return nil, errors.New("requires a columns map")
		}
		typed := make(map[string]dataset.Type, len(cfg.Columns))
		for name, typeName := range cfg.Columns {
			t, err := dataset.ParseType(typeName)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q", name)
			}
			typed[name] = t
		}
		return &DataType{Columns: typed}, nil

	case "unique_key":
		var cfg struct {
			Columns []string `yaml:"columns"`
		}
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		if len(cfg.Columns) == 0 {
			return nil, errors.New("requires a columns list")
		}
		return &UniqueKey{Columns: cfg.Columns}, nil

	case "range":
		var cfg struct {
			Column string   `yaml:"column"`
			Min    *float64 `yaml:"min"`
			Max    *float64 `yaml:"max"`
		}
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		if cfg.Column == "" {
			return nil, errors.New("requires a column")
		}
		if cfg.Min == nil && cfg.Max == nil {
			return nil, errors.New("requires a min or max bound")
		}
		out := &Range{Column: cfg.Column}
		var err error
		if cfg.Min != nil {
			if out.Min, err = decimalFromFloat(*cfg.Min); err != nil {
				return nil, errors.Wrap(err, "min")
			}
		}
		if cfg.Max != nil {
			if out.Max, err = decimalFromFloat(*cfg.Max); err != nil {
				return nil, errors.Wrap(err, "max")
			}
		}
		if out.Min != nil && out.Max != nil && out.Min.Cmp(out.Max) > 0 {
			return nil, errors.Newf("min %s exceeds max %s", out.Min, out.Max)
		}
		return out, nil

	case "derived":
		var cfg struct {
			Column    string   `yaml:"column"`
			Op        string   `yaml:"op"`
			Operands  []string `yaml:"operands"`
			Tolerance *float64 `yaml:"tolerance"`
		}
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		if cfg.Column == "" {
			return nil, errors.New("requires a column")
		}
		op := Op(cfg.Op)
		if err := op.Validate(len(cfg.Operands)); err != nil {
			return nil, err
		}
		out := &Derived{Column: cfg.Column, Op: op, Operands: cfg.Operands}
		if cfg.Tolerance != nil {
			if *cfg.Tolerance < 0 {
				return nil, errors.Newf("tolerance must not be negative")
			}
			var err error
			if out.Tolerance, err = decimalFromFloat(*cfg.Tolerance); err != nil {
				return nil, errors.Wrap(err, "tolerance")
			}
		}
		return out, nil

	case "load_count":
		if err := decode(&struct{}{}); err != nil {
			return nil, err
		}
		return &LoadCount{}, nil
	}
	return nil, errors.New("unknown check kind")
}

func decimalFromFloat(f float64) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(strconv.FormatFloat(f, 'g', -1, 64))
	if err != nil || d.Form != apd.Finite {
		return nil, errors.Newf("invalid numeric value %v", f)
	}
	return d, nil
}

// ParseSuite reads a standalone YAML document with a top-level checks key.
func ParseSuite(data []byte) (*Suite, error) {
	var doc struct {
		Checks *Suite `yaml:"checks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing check suite")
	}
	if doc.Checks == nil || doc.Checks.Len() == 0 {
		return nil, errors.New("check suite has no checks")
	}
	return doc.Checks, nil
}

// DefaultSuite is the stock battery for the sales pipeline: schema, row
// count, critical nulls, declared types, order-id uniqueness, price and
// quantity ranges, the total_amount derivation, and the post-load count.
func DefaultSuite() *Suite {
	return NewSuite(
		&Schema{Columns: []string{
			"order_id", "customer_id", "product_name", "quantity",
			"price", "order_date", "region", "total_amount",
		}},
		&RowCount{},
		&NotNull{Columns: []string{
			"order_id", "customer_id", "product_name", "quantity", "price",
		}},
		&DataType{Columns: map[string]dataset.Type{
			"order_id":     dataset.TypeInt,
			"quantity":     dataset.TypeInt,
			"price":        dataset.TypeFloat,
			"total_amount": dataset.TypeFloat,
		}},
		&UniqueKey{Columns: []string{"order_id"}},
		&Range{Column: "price", Min: apd.New(0, 0), Max: apd.New(10000, 0)},
		&Range{Column: "quantity", Min: apd.New(1, 0), Max: apd.New(100, 0)},
		&Derived{Column: "total_amount", Op: OpProduct, Operands: []string{"quantity", "price"}},
		&LoadCount{},
	)
}
