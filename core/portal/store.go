package portal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/schoolportal/core"
)

var (
	// errors
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyReplied = errors.New("suggestion already has a reply")
	ErrInvalidStatus  = errors.New("invalid admission status")
)

// NowFunc stamps blob keys and replies.
var NowFunc = time.Now // mockable

type (
	// Store mirrors the remote collections locally.
	// Local state only changes once the matching remote call succeeded.
	Store struct {
		remote  core.RemoteStore
		blobs   core.BlobStore
		logger  core.Logger
		mailer  core.EmailService
		appName string

		mu               sync.RWMutex
		loading          bool
		resources        []Resource
		uploads          []Upload
		announcements    []Announcement
		suggestions      []Suggestion
		admissions       []Admission
		attendance       []AttendanceRecord
		viewedResources  map[string]struct{}
		viewedTimetables map[string]struct{}
	}

	Option func(*Store)
)

// WithMailer enables reply notifications to suggestion submitters.
func WithMailer(mailer core.EmailService, appName string) Option {
	return func(s *Store) {
		s.mailer = mailer
		s.appName = appName
	}
}

func NewStore(remote core.RemoteStore, blobs core.BlobStore, logger core.Logger, opts ...Option) *Store {
	s := &Store{
		remote:           remote,
		blobs:            blobs,
		logger:           logger,
		loading:          true,
		resources:        []Resource{},
		uploads:          []Upload{},
		announcements:    []Announcement{},
		suggestions:      []Suggestion{},
		admissions:       []Admission{},
		attendance:       []AttendanceRecord{},
		viewedResources:  make(map[string]struct{}),
		viewedTimetables: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every collection concurrently.
// When any fetch fails, all results are discarded and the error is logged.
// The loading flag clears in all cases.
func (s *Store) Load(ctx context.Context) {
	var (
		g                             errgroup.Group
		resources                     []Resource
		uploads                       []Upload
		announcements                 []Announcement
		suggestions                   []Suggestion
		admissions                    []Admission
		attendance                    []AttendanceRecord
		viewedResources, viewedTables map[string]struct{}
	)

	g.Go(func() (err error) {
		resources, err = queryAll[Resource](ctx, s.remote, core.TableResources, "uploaded_at")
		return err
	})
	g.Go(func() (err error) {
		uploads, err = queryAll[Upload](ctx, s.remote, core.TableUploads, "uploaded_at")
		return err
	})
	g.Go(func() (err error) {
		announcements, err = queryAll[Announcement](ctx, s.remote, core.TableAnnouncements, "created_at")
		return err
	})
	g.Go(func() (err error) {
		suggestions, err = queryAll[Suggestion](ctx, s.remote, core.TableSuggestions, "submitted_at")
		return err
	})
	g.Go(func() (err error) {
		admissions, err = queryAll[Admission](ctx, s.remote, core.TableAdmissions, "submitted_at")
		return err
	})
	g.Go(func() (err error) {
		attendance, err = queryAll[AttendanceRecord](ctx, s.remote, core.TableAttendance, "date")
		return err
	})
	g.Go(func() (err error) {
		viewedResources, err = queryViewed(ctx, s.remote, core.TableViewedResources)
		return err
	})
	g.Go(func() (err error) {
		viewedTables, err = queryViewed(ctx, s.remote, core.TableViewedTimetables)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Error(fmt.Sprintf("loading data: %v", err), err)
		return
	}
	s.resources = resources
	s.uploads = uploads
	s.announcements = announcements
	s.suggestions = suggestions
	s.admissions = admissions
	s.attendance = attendance
	s.viewedResources = viewedResources
	s.viewedTimetables = viewedTables
}

func queryAll[T any](ctx context.Context, remote core.RemoteStore, table, orderBy string) ([]T, error) {
	rows, err := remote.Query(ctx, table, core.Desc(orderBy))
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := decode[T](row)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", table)
		}
		items = append(items, item)
	}
	return items, nil
}

func queryViewed(ctx context.Context, remote core.RemoteStore, table string) (map[string]struct{}, error) {
	rows, err := remote.Query(ctx, table)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	viewed := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		var v struct {
			ResourceID string `mapstructure:"resource_id"`
		}
		if err := core.DecodeRow(row, &v); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", table)
		}
		viewed[v.ResourceID] = struct{}{}
	}
	return viewed, nil
}

func decode[T any](row core.Row) (T, error) {
	var item T
	err := core.DecodeRow(row, &item)
	return item, err
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// fail logs a failed operation and returns the wrapped error.
func (s *Store) fail(err error, action string) error {
	err = errors.Wrap(err, action)
	s.logger.Error(err.Error(), err)
	return err
}

func prepend[T any](item T, items []T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

func without[T any](items []T, drop func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !drop(item) {
			out = append(out, item)
		}
	}
	return out
}

func patched[T any](items []T, match func(T) bool, patch func(*T)) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if match(out[i]) {
			patch(&out[i])
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
