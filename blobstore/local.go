package blobstore

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type localStore struct {
	logger zerolog.Logger
}

func NewLocalStore(logger zerolog.Logger) *localStore {
	return &localStore{logger: logger}
}

func (l *localStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(
				errors.Wrapf(err, "source %q does not exist", path),
				ErrSourceNotFound,
			)
		}
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	l.logger.Debug().Str("path", path).Msgf("opened local source")
	return f, nil
}
