package pipeline

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/transform"
	"github.com/quarrydata/sift/validate/check"
)

const defaultPreviewRows = 5

// SinkConfig names the warehouse to load into.
type SinkConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// Config is one pipeline run, usually read from a YAML file: where the raw
// data lives, how its columns are typed, the transform rules, the check
// suite guarding the load, and the sink. An absent or empty checks list
// falls back to the default battery.
type Config struct {
	Source    string            `yaml:"source"`
	Columns   map[string]string `yaml:"columns"`
	Sink      SinkConfig        `yaml:"sink"`
	Transform transform.Config  `yaml:"transform"`
	Checks    *check.Suite      `yaml:"checks"`
	Preview   int               `yaml:"preview_rows"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return &cfg, nil
}

// Validate checks the parts every command needs. Sink settings are only
// required when loading, so the full pipeline checks those itself.
func (cfg *Config) Validate() error {
	if cfg.Source == "" {
		return errors.New("config has no source")
	}
	if _, err := cfg.ColumnTypes(); err != nil {
		return err
	}
	return nil
}

// ColumnTypes resolves the declared column type names.
func (cfg *Config) ColumnTypes() (map[string]dataset.Type, error) {
	types := make(map[string]dataset.Type, len(cfg.Columns))
	for name, typeName := range cfg.Columns {
		t, err := dataset.ParseType(typeName)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
		types[name] = t
	}
	return types, nil
}

// Suite returns the configured check suite, or the default battery when
// the config carries none.
func (cfg *Config) Suite() *check.Suite {
	if cfg.Checks == nil || cfg.Checks.Len() == 0 {
		return check.DefaultSuite()
	}
	return cfg.Checks
}

// PreviewRows returns how many loaded rows to read back after a load.
func (cfg *Config) PreviewRows() int {
	if cfg.Preview <= 0 {
		return defaultPreviewRows
	}
	return cfg.Preview
}

// DefaultConfig mirrors the stock sales pipeline: a local CSV source, the
// sales transform rules, the default check battery and a local sqlite
// warehouse.
func DefaultConfig() *Config {
	return &Config{
		Source: "sales.csv",
		Columns: map[string]string{
			"order_id":     "integer",
			"customer_id":  "text",
			"product_name": "text",
			"quantity":     "integer",
			"price":        "float",
			"order_date":   "date",
			"region":       "text",
		},
		Sink: SinkConfig{
			URL:   "sqlite://sift.db",
			Table: "sales",
		},
		Transform: transform.Config{
			CleanText: []string{"product_name", "region"},
			Coerce:    []string{"quantity", "price"},
			Derived: []transform.DerivedColumn{
				{Name: "total_amount", Op: transform.OpProduct, Operands: []string{"quantity", "price"}},
			},
		},
	}
}
