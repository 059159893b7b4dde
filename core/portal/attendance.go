package portal

import (
	"context"

	"github.com/trezcool/schoolportal/core"
)

func (s *Store) AttendanceRecords() []AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AttendanceRecord(nil), s.attendance...)
}

// AddAttendanceRecord appends an attendance record; records are never changed afterwards.
func (s *Store) AddAttendanceRecord(ctx context.Context, nr NewAttendanceRecord) (AttendanceRecord, error) {
	row, err := s.remote.Insert(ctx, core.TableAttendance, core.Row{
		"teacher_id":   nr.TeacherID,
		"teacher_name": nr.TeacherName,
		"date":         nr.Date,
		"time":         nr.Time,
		"status":       nr.Status,
		"location":     nr.Location,
	})
	if err != nil {
		return AttendanceRecord{}, s.fail(err, "adding attendance record")
	}
	rec, err := decode[AttendanceRecord](row)
	if err != nil {
		return AttendanceRecord{}, s.fail(err, "decoding attendance record")
	}

	s.mu.Lock()
	s.attendance = prepend(rec, s.attendance)
	s.mu.Unlock()
	return rec, nil
}
