// Package b2blob implements core.BlobStore over Backblaze B2.
package b2blob

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

// DefaultDownloadURL is used for public URLs until a bucket has been resolved.
const DefaultDownloadURL = "https://f000.backblazeb2.com"

type Store struct {
	client     *b2.Client
	publicBase string

	mu      sync.RWMutex
	buckets map[string]*b2.Bucket
}

var _ core.BlobStore = (*Store)(nil) // interface compliance check

// New authorizes against B2. publicBase, when set, replaces the download URL B2 reports
// (e.g. a CDN in front of the buckets).
func New(ctx context.Context, accountID, appKey, publicBase string) (*Store, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	return &Store{
		client:     client,
		publicBase: strings.TrimRight(publicBase, "/"),
		buckets:    make(map[string]*b2.Bucket),
	}, nil
}

func (s *Store) bucket(ctx context.Context, name string) (*b2.Bucket, error) {
	s.mu.RLock()
	b, ok := s.buckets[name]
	s.mu.RUnlock()
	if ok {
		return b, nil
	}

	b, err := s.client.Bucket(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving bucket %s", name)
	}
	s.mu.Lock()
	s.buckets[name] = b
	s.mu.Unlock()
	return b, nil
}

func (s *Store) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}
	w := b.Object(key).NewWriter(ctx).WithAttrs(&b2.Attrs{ContentType: contentType})
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "writing %s/%s", bucket, key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "closing %s/%s", bucket, key)
	}
	return nil
}

func (s *Store) PublicURL(bucket, key string) string {
	base := s.publicBase
	if base == "" {
		base = DefaultDownloadURL
		s.mu.RLock()
		if b, ok := s.buckets[bucket]; ok {
			base = strings.TrimRight(b.BaseURL(), "/")
		}
		s.mu.RUnlock()
	}
	return downloadURL(base, bucket, key)
}

func downloadURL(base, bucket, key string) string {
	return base + "/file/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

// Remove deletes every key, continuing past failures; the first error is returned.
func (s *Store) Remove(ctx context.Context, bucket string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}
	var first error
	for _, key := range keys {
		if err := b.Object(key).Delete(ctx); err != nil && !b2.IsNotExist(err) && first == nil {
			first = errors.Wrapf(err, "removing %s/%s", bucket, key)
		}
	}
	return first
}
