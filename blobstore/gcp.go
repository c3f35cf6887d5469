package blobstore

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
)

type gcpStore struct {
	logger zerolog.Logger
	bucket string
	client *storage.Client
}

func NewGCPStore(logger zerolog.Logger, client *storage.Client, bucket string) *gcpStore {
	return &gcpStore{
		bucket: bucket,
		client: client,
		logger: logger,
	}
}

func dialGCP(ctx context.Context, logger zerolog.Logger, bucket string) (*gcpStore, error) {
	// The storage client defers credential problems to the first request;
	// resolving default credentials up front surfaces them at dial time.
	if _, err := google.FindDefaultCredentials(ctx); err != nil {
		return nil, errors.Wrap(err, "finding gcp credentials")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "creating gcs client")
	}
	return NewGCPStore(logger, client, bucket), nil
}

func (s *gcpStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Msgf("fetching gcs object")
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errors.Mark(
				errors.Wrapf(err, "source gs://%s/%s does not exist", s.bucket, key),
				ErrSourceNotFound,
			)
		}
		return nil, errors.Wrapf(err, "fetching gs://%s/%s", s.bucket, key)
	}
	return r, nil
}
