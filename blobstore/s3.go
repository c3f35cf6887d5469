package blobstore

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type s3Store struct {
	logger  zerolog.Logger
	bucket  string
	session *session.Session
}

func NewS3Store(logger zerolog.Logger, session *session.Session, bucket string) *s3Store {
	return &s3Store{
		bucket:  bucket,
		session: session,
		logger:  logger,
	}
}

func dialS3(logger zerolog.Logger, bucket string) (*s3Store, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}
	if _, err := sess.Config.Credentials.Get(); err != nil {
		return nil, errors.Wrap(err, "loading aws credentials")
	}
	return NewS3Store(logger, sess, bucket), nil
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Msgf("fetching s3 object")
	out, err := s3.New(s.session).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, errors.Mark(
				errors.Wrapf(err, "source s3://%s/%s does not exist", s.bucket, key),
				ErrSourceNotFound,
			)
		}
		return nil, errors.Wrapf(err, "fetching s3://%s/%s", s.bucket, key)
	}
	return out.Body, nil
}
