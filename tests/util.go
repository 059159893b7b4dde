package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
)

func insert(t *testing.T, remote core.RemoteStore, table string, row core.Row, out interface{}) {
	t.Helper()
	inserted, err := remote.Insert(context.Background(), table, row)
	if err != nil {
		t.Fatalf("insert(%s) failed: %v", table, err)
	}
	if err := core.DecodeRow(inserted, out); err != nil {
		t.Fatalf("insert(%s) failed to decode: %v", table, err)
	}
}

func stamp(row core.Row, col string, at []time.Time) core.Row {
	if len(at) > 0 {
		row[col] = at[0].UTC()
	}
	return row
}

func CreateUser(t *testing.T, remote core.RemoteStore, name, uname, pwd string, role auth.Role, createdAt ...time.Time) auth.User {
	var usr auth.User
	insert(t, remote, core.TableUsers, stamp(core.Row{
		"username":       uname,
		"password":       pwd,
		"role":           string(role),
		"name":           name,
		"is_first_login": false,
	}, "created_at", createdAt), &usr)
	return usr
}

func CreateTeacher(t *testing.T, remote core.RemoteStore, name, uname, pwd string, createdAt ...time.Time) auth.Teacher {
	var teacher auth.Teacher
	insert(t, remote, core.TableTeachers, stamp(core.Row{
		"username":           uname,
		"password":           pwd,
		"role":               string(auth.RoleTeacher),
		"name":               name,
		"is_first_login":     true,
		"added_by":           auth.DefaultAddedBy,
		"attendance_history": []interface{}{},
	}, "created_at", createdAt), &teacher)
	return teacher
}

func CreateResource(
	t *testing.T,
	remote core.RemoteStore,
	title, fileURL string,
	category portal.ResourceCategory,
	uploadedAt ...time.Time,
) portal.Resource {
	var res portal.Resource
	insert(t, remote, core.TableResources, stamp(core.Row{
		"title":       title,
		"file_name":   title + ".pdf",
		"file_url":    fileURL,
		"file_type":   string(portal.TypeDocument),
		"uploaded_by": "admin",
		"category":    string(category),
	}, "uploaded_at", uploadedAt), &res)
	return res
}

func CreateUpload(
	t *testing.T,
	remote core.RemoteStore,
	teacher auth.Teacher,
	fileURL string,
	status portal.UploadStatus,
	uploadedAt ...time.Time,
) portal.Upload {
	var upl portal.Upload
	insert(t, remote, core.TableUploads, stamp(core.Row{
		"teacher_id":   teacher.ID,
		"teacher_name": teacher.Name,
		"type":         "lesson-plan",
		"file_name":    "plan.pdf",
		"file_url":     fileURL,
		"status":       string(status),
	}, "uploaded_at", uploadedAt), &upl)
	return upl
}

func CreateAnnouncement(
	t *testing.T,
	remote core.RemoteStore,
	title string,
	target portal.Target,
	isRead bool,
	createdAt ...time.Time,
) portal.Announcement {
	var ann portal.Announcement
	insert(t, remote, core.TableAnnouncements, stamp(core.Row{
		"title":   title,
		"content": title + " content",
		"author":  "admin",
		"target":  string(target),
		"is_read": isRead,
	}, "created_at", createdAt), &ann)
	return ann
}

func CreateSuggestion(
	t *testing.T,
	remote core.RemoteStore,
	name, email string,
	isRead bool,
	submittedAt ...time.Time,
) portal.Suggestion {
	var sug portal.Suggestion
	insert(t, remote, core.TableSuggestions, stamp(core.Row{
		"name":    name,
		"email":   email,
		"message": "Hello from " + name,
		"source":  "contact",
		"is_read": isRead,
	}, "submitted_at", submittedAt), &sug)
	return sug
}

func CreateAdmission(
	t *testing.T,
	remote core.RemoteStore,
	studentName string,
	status portal.AdmissionStatus,
	submittedAt ...time.Time,
) portal.Admission {
	var adm portal.Admission
	insert(t, remote, core.TableAdmissions, stamp(core.Row{
		"student_name": studentName,
		"parent_name":  "Parent of " + studentName,
		"email":        "parent@test.cd",
		"phone":        "+243000000000",
		"grade":        "Grade 5",
		"message":      "",
		"status":       string(status),
	}, "submitted_at", submittedAt), &adm)
	return adm
}

func CreateAttendanceRecord(t *testing.T, remote core.RemoteStore, teacher auth.Teacher, date string) portal.AttendanceRecord {
	var rec portal.AttendanceRecord
	insert(t, remote, core.TableAttendance, core.Row{
		"teacher_id":   teacher.ID,
		"teacher_name": teacher.Name,
		"date":         date,
		"time":         "08:00",
		"status":       "present",
		"location":     "Main campus",
	}, &rec)
	return rec
}

// MarkViewed records `resourceID` in a view-tracking table.
func MarkViewed(t *testing.T, remote core.RemoteStore, table, resourceID string) {
	t.Helper()
	if _, err := remote.Insert(context.Background(), table, core.Row{"resource_id": resourceID}); err != nil {
		t.Fatalf("MarkViewed(%s) failed: %v", table, err)
	}
}
