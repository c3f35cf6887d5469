package sink

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/quarrydata/sift/retry"
)

// SQLiteSink writes to a sqlite database file (or :memory:). It is the
// default backend: no server, CGo-free driver.
type SQLiteSink struct {
	sqlSink
	path string
}

var _ Sink = (*SQLiteSink)(nil)

func ConnectSQLite(
	ctx context.Context, logger zerolog.Logger, connStr string,
) (*SQLiteSink, error) {
	path, err := sqlitePath(connStr)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite database %q", path)
	}
	// In-memory databases exist per connection; cap the pool so every
	// statement sees the same database.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.CombineErrors(
			errors.Wrapf(err, "opening sqlite database %q", path),
			db.Close(),
		)
	}
	logger.Debug().Str("path", path).Msgf("connected to sqlite sink")
	return &SQLiteSink{
		sqlSink: sqlSink{
			logger:        logger,
			db:            db,
			d:             dialectSQLite,
			retrySettings: retry.DefaultSettings(),
		},
		path: path,
	}, nil
}

// Path returns the database file path the sink writes to.
func (s *SQLiteSink) Path() string {
	return s.path
}

func sqlitePath(connStr string) (string, error) {
	before, rest, ok := strings.Cut(connStr, "://")
	if !ok {
		return connStr, nil
	}
	if rest == "" {
		return "", errors.Newf("connection string %s://%s has no database path", before, rest)
	}
	return rest, nil
}
