// Package blobstore opens raw pipeline sources. A source is named by URL:
// bare paths and file:// read the local filesystem, s3:// and gs:// read
// object storage. Stores only read; writing belongs to the sink.
package blobstore

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ErrSourceNotFound marks errors caused by a source that does not exist,
// as opposed to one that could not be read. Test with errors.Is.
var ErrSourceNotFound = errors.New("source not found")

// Store reads objects from one backing location.
type Store interface {
	// Open returns a reader over the named object. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type sourceRef struct {
	scheme string
	bucket string
	key    string
}

func parseSource(source string) (sourceRef, error) {
	if source == "" {
		return sourceRef{}, errors.New("source is empty")
	}
	scheme, rest, ok := strings.Cut(source, "://")
	if !ok {
		return sourceRef{key: source}, nil
	}
	switch scheme {
	case "file":
		if rest == "" {
			return sourceRef{}, errors.Newf("source %q names no path", source)
		}
		return sourceRef{scheme: scheme, key: rest}, nil
	case "s3", "gs":
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return sourceRef{}, errors.Newf("source %q must look like %s://bucket/key", source, scheme)
		}
		return sourceRef{scheme: scheme, bucket: bucket, key: key}, nil
	}
	return sourceRef{}, errors.Newf("unknown source scheme %q", scheme)
}

// Dial picks a store for the source URL and returns it along with the
// in-store path to open. Object store credentials are resolved eagerly so
// a misconfigured environment fails here, not mid-extract.
func Dial(ctx context.Context, logger zerolog.Logger, source string) (Store, string, error) {
	ref, err := parseSource(source)
	if err != nil {
		return nil, "", err
	}
	switch ref.scheme {
	case "", "file":
		return NewLocalStore(logger), ref.key, nil
	case "s3":
		store, err := dialS3(logger, ref.bucket)
		if err != nil {
			return nil, "", err
		}
		return store, ref.key, nil
	case "gs":
		store, err := dialGCP(ctx, logger, ref.bucket)
		if err != nil {
			return nil, "", err
		}
		return store, ref.key, nil
	}
	return nil, "", errors.AssertionFailedf("unhandled scheme %q", ref.scheme)
}
