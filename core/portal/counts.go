package portal

// UnreadCounts computes the notification badges from local state.
// Attendance is the raw number of records.
func (s *Store) UnreadCounts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	for _, a := range s.announcements {
		if !a.IsRead {
			c.Announcements++
		}
	}
	for _, sug := range s.suggestions {
		if !sug.IsRead {
			c.Suggestions++
		}
	}
	for _, u := range s.uploads {
		if u.Status == UploadPending {
			c.Uploads++
		}
	}
	for _, a := range s.admissions {
		if a.Status == AdmissionPending {
			c.Admissions++
		}
	}
	c.Attendance = len(s.attendance)
	for _, r := range s.resources {
		switch r.Category {
		case CategoryResource:
			if _, seen := s.viewedResources[r.ID]; !seen {
				c.Resources++
			}
		case CategoryTimetable:
			if _, seen := s.viewedTimetables[r.ID]; !seen {
				c.Timetable++
			}
		}
	}
	return c
}

func (c Counts) ForTeacher() TeacherCounts {
	return TeacherCounts{Resources: c.Resources, Timetable: c.Timetable}
}
