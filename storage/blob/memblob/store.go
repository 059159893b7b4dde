// Package memblob is an in-process core.BlobStore, used for local runs and tests.
package memblob

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

// DefaultBaseURL prefixes public URLs when none is configured.
const DefaultBaseURL = "http://localhost:8000/blobs"

type (
	Object struct {
		Data        []byte
		ContentType string
	}

	Store struct {
		baseURL string

		mu            sync.RWMutex
		buckets       map[string]map[string]Object
		removed       map[string][]string // {bucket: keys, in call order}
		removeCalls   int
		uploadFailure error
		removeFailure error
	}
)

var _ core.BlobStore = (*Store)(nil) // interface compliance check

func New(baseURL string) *Store {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		buckets: make(map[string]map[string]Object),
		removed: make(map[string][]string),
	}
}

// FailUploads makes every upload fail with err; nil restores uploads.
func (s *Store) FailUploads(err error) {
	s.mu.Lock()
	s.uploadFailure = err
	s.mu.Unlock()
}

// FailRemovals makes every removal fail with err; nil restores removals.
func (s *Store) FailRemovals(err error) {
	s.mu.Lock()
	s.removeFailure = err
	s.mu.Unlock()
}

func (s *Store) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	s.mu.RLock()
	failure := s.uploadFailure
	s.mu.RUnlock()
	if failure != nil {
		return failure
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return errors.Wrap(err, "reading blob")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string]Object)
		s.buckets[bucket] = b
	}
	b[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (s *Store) PublicURL(bucket, key string) string {
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

func (s *Store) Remove(ctx context.Context, bucket string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCalls++
	s.removed[bucket] = append(s.removed[bucket], keys...)
	if s.removeFailure != nil {
		return s.removeFailure
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range keys {
		delete(s.buckets[bucket], key) // missing keys are fine
	}
	return nil
}

// Get returns a stored object.
func (s *Store) Get(bucket, key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][key]
	return obj, ok
}

// Keys returns the sorted keys stored in a bucket.
func (s *Store) Keys(bucket string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Removed returns every key submitted for removal from a bucket, in call order.
func (s *Store) Removed(bucket string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.removed[bucket]...)
}

// RemoveCalls returns how many times Remove was called.
func (s *Store) RemoveCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removeCalls
}
