package portal

import (
	"context"

	"github.com/trezcool/schoolportal/core"
)

func (s *Store) Announcements() []Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Announcement(nil), s.announcements...)
}

// PublicAnnouncements returns the announcements targeting the public channel.
func (s *Store) PublicAnnouncements() []Announcement {
	return s.filterAnnouncements(func(a Announcement) bool { return a.Target.IsPublic() })
}

func (s *Store) UnreadPublicAnnouncements() []Announcement {
	return s.filterAnnouncements(func(a Announcement) bool { return a.Target.IsPublic() && !a.IsRead })
}

func (s *Store) filterAnnouncements(keep func(Announcement) bool) []Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) AddAnnouncement(ctx context.Context, na NewAnnouncement) (Announcement, error) {
	row, err := s.remote.Insert(ctx, core.TableAnnouncements, core.Row{
		"title":   na.Title,
		"content": na.Content,
		"author":  na.Author,
		"target":  string(na.Target),
		"is_read": false,
	})
	if err != nil {
		return Announcement{}, s.fail(err, "adding announcement")
	}
	ann, err := decode[Announcement](row)
	if err != nil {
		return Announcement{}, s.fail(err, "decoding announcement")
	}

	s.mu.Lock()
	s.announcements = prepend(ann, s.announcements)
	s.mu.Unlock()
	return ann, nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, core.TableAnnouncements, core.Eq(core.ColumnID, id)); err != nil {
		return s.fail(err, "deleting announcement")
	}

	s.mu.Lock()
	s.announcements = without(s.announcements, func(a Announcement) bool { return a.ID == id })
	s.mu.Unlock()
	return nil
}

func (s *Store) MarkAnnouncementRead(ctx context.Context, id string) error {
	if err := s.remote.Update(ctx, core.TableAnnouncements, id, core.Row{"is_read": true}); err != nil {
		return s.fail(err, "marking announcement read")
	}

	s.mu.Lock()
	s.announcements = patched(s.announcements, func(a Announcement) bool { return a.ID == id }, func(a *Announcement) {
		a.IsRead = true
	})
	s.mu.Unlock()
	return nil
}
