package portal

import (
	"context"

	"github.com/trezcool/schoolportal/core"
)

func (s *Store) Admissions() []Admission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Admission(nil), s.admissions...)
}

func (s *Store) AddAdmission(ctx context.Context, na NewAdmission) (Admission, error) {
	row, err := s.remote.Insert(ctx, core.TableAdmissions, core.Row{
		"student_name": na.StudentName,
		"parent_name":  na.ParentName,
		"email":        na.Email,
		"phone":        na.Phone,
		"grade":        na.Grade,
		"message":      na.Message,
		"status":       string(AdmissionPending),
	})
	if err != nil {
		return Admission{}, s.fail(err, "adding admission")
	}
	adm, err := decode[Admission](row)
	if err != nil {
		return Admission{}, s.fail(err, "decoding admission")
	}

	s.mu.Lock()
	s.admissions = prepend(adm, s.admissions)
	s.mu.Unlock()
	return adm, nil
}

func (s *Store) UpdateAdmissionStatus(ctx context.Context, id string, status AdmissionStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.remote.Update(ctx, core.TableAdmissions, id, core.Row{"status": string(status)}); err != nil {
		return s.fail(err, "updating admission status")
	}

	s.mu.Lock()
	s.admissions = patched(s.admissions, func(a Admission) bool { return a.ID == id }, func(a *Admission) {
		a.Status = status
	})
	s.mu.Unlock()
	return nil
}
