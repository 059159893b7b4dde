package portal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trezcool/schoolportal/core"
)

func (s *Store) Uploads() []Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Upload(nil), s.uploads...)
}

// AddUpload stores a teacher submission as pending.
// A failed file upload records nothing; a failed insert leaves the uploaded blob behind.
func (s *Store) AddUpload(ctx context.Context, nu NewUpload, file File) (Upload, error) {
	if nu.FileName == "" {
		nu.FileName = file.Name
	}
	key := newBlobKey(file.Name)
	if err := s.blobs.Upload(ctx, core.BucketUploads, key, file.Body, file.ContentType); err != nil {
		return Upload{}, s.fail(err, "uploading submission file")
	}

	row, err := s.remote.Insert(ctx, core.TableUploads, core.Row{
		"teacher_id":   nu.TeacherID,
		"teacher_name": nu.TeacherName,
		"type":         nu.Type,
		"file_name":    nu.FileName,
		"file_url":     s.blobs.PublicURL(core.BucketUploads, key),
		"status":       string(UploadPending),
	})
	if err != nil {
		return Upload{}, s.fail(err, "adding upload")
	}
	upl, err := decode[Upload](row)
	if err != nil {
		return Upload{}, s.fail(err, "decoding upload")
	}

	s.mu.Lock()
	s.uploads = prepend(upl, s.uploads)
	s.mu.Unlock()
	return upl, nil
}

// MarkUpload grades a submission. Marking again overwrites the comments (and the grade, when given).
func (s *Store) MarkUpload(ctx context.Context, id, comments, grade string) error {
	patch := core.Row{"status": string(UploadMarked), "comments": comments}
	if grade != "" {
		patch["grade"] = grade
	}
	if err := s.remote.Update(ctx, core.TableUploads, id, patch); err != nil {
		return s.fail(err, "marking upload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = patched(s.uploads, func(u Upload) bool { return u.ID == id }, func(u *Upload) {
		u.Status = UploadMarked
		u.Comments = comments
		if grade != "" {
			u.Grade = grade
		}
	})
	return nil
}

// ClearAllUploads removes every submission file in one batch, then every submission record.
func (s *Store) ClearAllUploads(ctx context.Context) error {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.uploads))
	keys := make([]string, 0, len(s.uploads))
	for _, u := range s.uploads {
		key := blobKeyFromURL(u.FileURL)
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	if len(keys) > 0 {
		if err := s.blobs.Remove(ctx, core.BucketUploads, keys...); err != nil {
			s.logger.Warn(fmt.Sprintf("removing %d submission files: %v", len(keys), err), err)
		}
	}

	if err := s.remote.Delete(ctx, core.TableUploads, core.Neq(core.ColumnID, uuid.Nil.String())); err != nil {
		return s.fail(err, "clearing uploads")
	}

	s.mu.Lock()
	s.uploads = []Upload{}
	s.mu.Unlock()
	return nil
}
