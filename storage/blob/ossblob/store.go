// Package ossblob implements core.BlobStore over Alibaba Cloud OSS.
package ossblob

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

type Store struct {
	client     *oss.Client
	endpoint   string // host only
	publicBase string
}

var _ core.BlobStore = (*Store)(nil) // interface compliance check

// New builds an OSS client. publicBase, when set, replaces the virtual-hosted bucket URL.
func New(endpoint, accessKey, secretKey, publicBase string) (*Store, error) {
	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating oss client")
	}
	return &Store{
		client:     client,
		endpoint:   endpointHost(endpoint),
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func endpointHost(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimRight(endpoint, "/")
}

func (s *Store) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	b, err := s.client.Bucket(bucket)
	if err != nil {
		return errors.Wrapf(err, "resolving bucket %s", bucket)
	}
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := b.PutObject(key, r, opts...); err != nil {
		return errors.Wrapf(err, "writing %s/%s", bucket, key)
	}
	return nil
}

func (s *Store) PublicURL(bucket, key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
	}
	return "https://" + bucket + "." + s.endpoint + "/" + url.PathEscape(key)
}

func (s *Store) Remove(ctx context.Context, bucket string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	b, err := s.client.Bucket(bucket)
	if err != nil {
		return errors.Wrapf(err, "resolving bucket %s", bucket)
	}
	if _, err := b.DeleteObjects(keys, oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "removing from %s", bucket)
	}
	return nil
}
