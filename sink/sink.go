// Package sink persists validated datasets to warehouse tables. Backends
// exist for sqlite, postgres and mysql; Connect picks one by connection
// string scheme.
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/retry"
)

var loadedRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sift",
	Subsystem: "sink",
	Name:      "rows_loaded",
	Help:      "Number of rows written to sink tables",
}, []string{"table"})

// Sink is a warehouse table writer.
type Sink interface {
	// Replace creates or replaces the table and bulk-inserts every row of
	// ds, returning the number of rows written.
	Replace(ctx context.Context, table string, ds *dataset.Dataset) (int, error)
	// Count returns the number of rows currently in the table.
	Count(ctx context.Context, table string) (int, error)
	// Preview reads back up to limit rows from the table. Column types are
	// inferred from the driver's values, so backends that store booleans or
	// dates as integers or text preview as such.
	Preview(ctx context.Context, table string, limit int) (*dataset.Dataset, error)
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Connect dials the sink for a connection string, picking the backend by
// scheme: sqlite://, postgres:// or mysql://.
func Connect(ctx context.Context, logger zerolog.Logger, connStr string) (Sink, error) {
	if len(connStr) == 0 {
		return nil, errors.Newf("empty connection string")
	}

	before := strings.SplitN(connStr, "://", 2)

	switch {
	case strings.Contains(before[0], "sqlite"):
		return ConnectSQLite(ctx, logger, connStr)
	case strings.Contains(before[0], "postgres"):
		return ConnectPostgres(ctx, logger, connStr)
	case strings.Contains(before[0], "mysql"):
		return ConnectMySQL(ctx, logger, connStr)
	}
	return nil, errors.Newf("unrecognised scheme %s from %s", before[0], connStr)
}

// replaceWithRetry runs one backend's write attempt under bounded retry,
// recording the loaded-row metric on success.
func replaceWithRetry(
	ctx context.Context,
	logger zerolog.Logger,
	settings retry.Settings,
	table string,
	write func() (int, error),
) (int, error) {
	r, err := retry.NewRetry(settings)
	if err != nil {
		return 0, err
	}
	var written int
	if err := r.Do(ctx, func() error {
		n, err := write()
		if err != nil {
			return err
		}
		written = n
		return nil
	}, func(err error) {
		logger.Err(err).Msgf("error writing to table %s, retrying", table)
	}); err != nil {
		return 0, errors.Wrapf(err, "replacing table %s", table)
	}
	loadedRows.WithLabelValues(table).Add(float64(written))
	logger.Info().
		Int("rows", written).
		Str("table", table).
		Msgf("table replaced")
	return written, nil
}

// datasetFromRows rebuilds a dataset from scanned rows, inferring each
// column's logical type from its first non-null value.
func datasetFromRows(names []string, rows [][]any) (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(names))
	for c, name := range names {
		typ := dataset.TypeText
		for _, row := range rows {
			if t, ok := inferType(row[c]); ok {
				typ = t
				break
			}
		}
		vals := make([]dataset.Value, len(rows))
		for r, row := range rows {
			vals[r] = cellFromSQL(row[c], typ)
		}
		cols[c] = dataset.Column{Name: name, Type: typ, Values: vals}
	}
	return dataset.New(cols...)
}

func inferType(raw any) (dataset.Type, bool) {
	switch raw.(type) {
	case int64:
		return dataset.TypeInt, true
	case float64:
		return dataset.TypeFloat, true
	case bool:
		return dataset.TypeBool, true
	case time.Time:
		return dataset.TypeDate, true
	case string, []byte:
		return dataset.TypeText, true
	}
	return dataset.TypeText, false
}

func cellFromSQL(raw any, typ dataset.Type) dataset.Value {
	switch v := raw.(type) {
	case nil:
		return dataset.Null()
	case int64:
		if typ == dataset.TypeBool {
			return dataset.NewBool(v != 0)
		}
		return dataset.NewInt(v)
	case float64:
		return dataset.NewFloat(v)
	case bool:
		return dataset.NewBool(v)
	case time.Time:
		return dataset.NewDate(v)
	case []byte:
		return textCell(string(v), typ)
	case string:
		return textCell(v, typ)
	}
	return dataset.NewText(fmt.Sprintf("%v", raw))
}

func textCell(s string, typ dataset.Type) dataset.Value {
	if typ == dataset.TypeText {
		return dataset.NewText(s)
	}
	parsed, err := dataset.ParseAs(s, typ)
	if err != nil {
		return dataset.NewText(s)
	}
	return parsed
}
