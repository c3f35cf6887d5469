package sink

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/retry"
)

// dialect captures the SQL differences between backends: identifier
// quoting, storage types and placeholder style.
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
	dialectMySQL
)

func (d dialect) String() string {
	switch d {
	case dialectSQLite:
		return "sqlite"
	case dialectPostgres:
		return "postgres"
	case dialectMySQL:
		return "mysql"
	}
	return "unknown"
}

func (d dialect) quoteIdent(name string) string {
	if d == dialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnType maps a logical type onto the dialect's storage type. SQLite
// has no boolean or date storage classes, so those land in INTEGER and
// TEXT.
func (d dialect) columnType(t dataset.Type) string {
	switch d {
	case dialectSQLite:
		switch t {
		case dataset.TypeInt, dataset.TypeBool:
			return "INTEGER"
		case dataset.TypeFloat:
			return "REAL"
		}
		return "TEXT"
	case dialectPostgres:
		switch t {
		case dataset.TypeInt:
			return "BIGINT"
		case dataset.TypeFloat:
			return "DOUBLE PRECISION"
		case dataset.TypeBool:
			return "BOOLEAN"
		case dataset.TypeDate:
			return "TIMESTAMP"
		}
		return "TEXT"
	case dialectMySQL:
		switch t {
		case dataset.TypeInt:
			return "BIGINT"
		case dataset.TypeFloat:
			return "DOUBLE"
		case dataset.TypeBool:
			return "BOOLEAN"
		case dataset.TypeDate:
			return "DATETIME"
		}
		return "TEXT"
	}
	return "TEXT"
}

func (d dialect) placeholder(i int) string {
	if d == dialectPostgres {
		return "$" + strconv.Itoa(i+1)
	}
	return "?"
}

func (d dialect) dropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.quoteIdent(table)
}

func (d dialect) createTableSQL(table string, cols []dataset.Column) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(d.quoteIdent(table))
	sb.WriteString(" (")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.quoteIdent(col.Name))
		sb.WriteByte(' ')
		sb.WriteString(d.columnType(col.Type))
	}
	sb.WriteString(")")
	return sb.String()
}

func (d dialect) insertSQL(table string, cols []dataset.Column) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.quoteIdent(table))
	sb.WriteString(" (")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.quoteIdent(col.Name))
	}
	sb.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.placeholder(i))
	}
	sb.WriteString(")")
	return sb.String()
}

func (d dialect) countSQL(table string) string {
	return "SELECT count(*) FROM " + d.quoteIdent(table)
}

func (d dialect) previewSQL(table string, limit int) string {
	return "SELECT * FROM " + d.quoteIdent(table) + " LIMIT " + strconv.Itoa(limit)
}

// arg converts a cell to a driver argument. SQLite gets integers for
// booleans and canonical text for dates, matching its storage classes.
func (d dialect) arg(v dataset.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case dataset.KindInt:
		i, _ := v.Int()
		return i
	case dataset.KindFloat:
		f, _ := v.Float()
		return f
	case dataset.KindBool:
		b, _ := v.Bool()
		if d == dialectSQLite {
			if b {
				return int64(1)
			}
			return int64(0)
		}
		return b
	case dataset.KindDate:
		if d == dialectSQLite {
			return v.String()
		}
		t, _ := v.Time()
		return t
	}
	return v.String()
}

// sqlSink implements Sink over database/sql. The sqlite and mysql
// backends share it; postgres goes through pgx directly.
type sqlSink struct {
	logger        zerolog.Logger
	db            *sql.DB
	d             dialect
	retrySettings retry.Settings
}

func (s *sqlSink) Replace(ctx context.Context, table string, ds *dataset.Dataset) (int, error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}
	return replaceWithRetry(ctx, s.logger, s.retrySettings, table, func() (int, error) {
		return s.writeRows(ctx, table, ds)
	})
}

// writeRows is one write attempt: drop, create, insert every row in a
// transaction. Recreating the table makes the attempt safe to repeat.
func (s *sqlSink) writeRows(ctx context.Context, table string, ds *dataset.Dataset) (int, error) {
	cols := ds.Columns()
	if _, err := s.db.ExecContext(ctx, s.d.dropTableSQL(table)); err != nil {
		return 0, errors.Wrapf(err, "dropping table %s", table)
	}
	if _, err := s.db.ExecContext(ctx, s.d.createTableSQL(table, cols)); err != nil {
		return 0, errors.Wrapf(err, "creating table %s", table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning insert transaction")
	}
	stmt, err := tx.PrepareContext(ctx, s.d.insertSQL(table, cols))
	if err != nil {
		return 0, errors.CombineErrors(errors.Wrap(err, "preparing insert"), tx.Rollback())
	}
	written := 0
	for i := 0; i < ds.NumRows(); i++ {
		args := make([]any, len(cols))
		for c, col := range cols {
			args[c] = s.d.arg(col.Values[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			err = errors.Wrapf(err, "inserting row %d", i+1)
			return 0, errors.CombineErrors(err, tx.Rollback())
		}
		written++
	}
	if err := stmt.Close(); err != nil {
		return 0, errors.CombineErrors(errors.Wrap(err, "closing insert statement"), tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing insert transaction")
	}
	return written, nil
}

func (s *sqlSink) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.d.countSQL(table)).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting rows in table %s", table)
	}
	return n, nil
}

func (s *sqlSink) Preview(ctx context.Context, table string, limit int) (*dataset.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, s.d.previewSQL(table, limit))
	if err != nil {
		return nil, errors.Wrapf(err, "previewing table %s", table)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "reading preview columns")
	}
	var raw [][]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scanning preview row")
		}
		raw = append(raw, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "previewing table %s", table)
	}
	return datasetFromRows(names, raw)
}

func (s *sqlSink) Close(ctx context.Context) error {
	return s.db.Close()
}
