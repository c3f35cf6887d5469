package sink

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/retry"
)

// PostgresSink writes to a postgres database. Rows go in through the COPY
// protocol rather than per-row inserts.
type PostgresSink struct {
	logger        zerolog.Logger
	conn          *pgx.Conn
	retrySettings retry.Settings
}

var _ Sink = (*PostgresSink)(nil)

func ConnectPostgres(
	ctx context.Context, logger zerolog.Logger, connStr string,
) (*PostgresSink, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}
	logger.Debug().Msgf("connected to postgres sink")
	return &PostgresSink{
		logger:        logger,
		conn:          conn,
		retrySettings: retry.DefaultSettings(),
	}, nil
}

func (s *PostgresSink) Replace(
	ctx context.Context, table string, ds *dataset.Dataset,
) (int, error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}
	return replaceWithRetry(ctx, s.logger, s.retrySettings, table, func() (int, error) {
		return s.writeRows(ctx, table, ds)
	})
}

func (s *PostgresSink) writeRows(
	ctx context.Context, table string, ds *dataset.Dataset,
) (int, error) {
	d := dialectPostgres
	cols := ds.Columns()
	if _, err := s.conn.Exec(ctx, d.dropTableSQL(table)); err != nil {
		return 0, errors.Wrapf(err, "dropping table %s", table)
	}
	if _, err := s.conn.Exec(ctx, d.createTableSQL(table, cols)); err != nil {
		return 0, errors.Wrapf(err, "creating table %s", table)
	}

	rows := make([][]any, ds.NumRows())
	for i := range rows {
		args := make([]any, len(cols))
		for c, col := range cols {
			args[c] = d.arg(col.Values[i])
		}
		rows[i] = args
	}
	n, err := s.conn.CopyFrom(
		ctx,
		pgx.Identifier{table},
		ds.ColumnNames(),
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, errors.Wrapf(err, "copying into table %s", table)
	}
	return int(n), nil
}

func (s *PostgresSink) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.conn.QueryRow(ctx, dialectPostgres.countSQL(table)).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting rows in table %s", table)
	}
	return n, nil
}

func (s *PostgresSink) Preview(
	ctx context.Context, table string, limit int,
) (*dataset.Dataset, error) {
	rows, err := s.conn.Query(ctx, dialectPostgres.previewSQL(table, limit))
	if err != nil {
		return nil, errors.Wrapf(err, "previewing table %s", table)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	var raw [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, "scanning preview row")
		}
		raw = append(raw, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "previewing table %s", table)
	}
	return datasetFromRows(names, raw)
}

func (s *PostgresSink) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
