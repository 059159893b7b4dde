package portal

import (
	"context"
	"fmt"

	"github.com/trezcool/schoolportal/core"
)

func (s *Store) Resources() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Resource(nil), s.resources...)
}

// ResourcesByCategory returns the resources of one logical collection.
func (s *Store) ResourcesByCategory(cat ResourceCategory) []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if r.Category == cat {
			res = append(res, r)
		}
	}
	return res
}

func (s *Store) findResource(id string) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}

// AddResource uploads the file, then records the resource pointing at its public URL.
// A failed upload records nothing; a failed insert leaves the uploaded blob behind.
func (s *Store) AddResource(ctx context.Context, nr NewResource, file File) (Resource, error) {
	if nr.FileName == "" {
		nr.FileName = file.Name
	}
	key := newBlobKey(file.Name)
	if err := s.blobs.Upload(ctx, core.BucketResources, key, file.Body, file.ContentType); err != nil {
		return Resource{}, s.fail(err, "uploading resource file")
	}

	row, err := s.remote.Insert(ctx, core.TableResources, core.Row{
		"title":       nr.Title,
		"file_name":   nr.FileName,
		"file_url":    s.blobs.PublicURL(core.BucketResources, key),
		"file_type":   string(nr.Type),
		"uploaded_by": nr.UploadedBy,
		"category":    string(nr.Category),
	})
	if err != nil {
		return Resource{}, s.fail(err, "adding resource")
	}
	res, err := decode[Resource](row)
	if err != nil {
		return Resource{}, s.fail(err, "decoding resource")
	}

	s.mu.Lock()
	s.resources = prepend(res, s.resources)
	s.mu.Unlock()
	return res, nil
}

// DeleteResource removes the resource file (best effort) and then its record.
func (s *Store) DeleteResource(ctx context.Context, id string) error {
	res, ok := s.findResource(id)
	if !ok {
		s.logger.Error(fmt.Sprintf("deleting resource %s: %v", id, ErrNotFound), ErrNotFound)
		return ErrNotFound
	}

	if key := blobKeyFromURL(res.FileURL); key != "" {
		if err := s.blobs.Remove(ctx, core.BucketResources, key); err != nil {
			s.logger.Warn(fmt.Sprintf("removing resource file %s: %v", key, err), err)
		}
	}

	if err := s.remote.Delete(ctx, core.TableResources, core.Eq(core.ColumnID, id)); err != nil {
		return s.fail(err, "deleting resource")
	}

	s.mu.Lock()
	s.resources = without(s.resources, func(r Resource) bool { return r.ID == id })
	s.mu.Unlock()
	return nil
}

// ViewedResources returns the ids of the general resources already seen.
func (s *Store) ViewedResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.viewedResources)
}

// ViewedTimetables returns the ids of the timetables already seen.
func (s *Store) ViewedTimetables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.viewedTimetables)
}

// MarkResourceViewed records that a general resource was seen; it is a no-op when already recorded.
func (s *Store) MarkResourceViewed(ctx context.Context, id string) error {
	return s.markViewed(ctx, core.TableViewedResources, func() map[string]struct{} { return s.viewedResources }, id)
}

// MarkTimetableViewed records that a timetable was seen; it is a no-op when already recorded.
func (s *Store) MarkTimetableViewed(ctx context.Context, id string) error {
	return s.markViewed(ctx, core.TableViewedTimetables, func() map[string]struct{} { return s.viewedTimetables }, id)
}

// set is read through a func since Load may swap the maps.
func (s *Store) markViewed(ctx context.Context, table string, set func() map[string]struct{}, id string) error {
	s.mu.RLock()
	_, seen := set()[id]
	s.mu.RUnlock()
	if seen {
		return nil
	}

	if _, err := s.remote.Insert(ctx, table, core.Row{"resource_id": id}); err != nil {
		return s.fail(err, "marking "+table)
	}

	s.mu.Lock()
	set()[id] = struct{}{}
	s.mu.Unlock()
	return nil
}
