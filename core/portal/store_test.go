package portal_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
	"github.com/trezcool/schoolportal/services/email"
	"github.com/trezcool/schoolportal/services/logger"
	"github.com/trezcool/schoolportal/storage/blob/memblob"
	"github.com/trezcool/schoolportal/storage/database/memdb"
	"github.com/trezcool/schoolportal/tests"
)

var errBoom = errors.New("connection reset by peer")

type fixture struct {
	store  *portal.Store
	db     *memdb.DB
	blobs  *memblob.Store
	logger *logsvc.ConsoleLogger
	mailer *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) *fixture {
	conf := &core.Config{AppName: "School Portal"}
	conf.Mail.FromAddress = "noreply@school.test"

	f := &fixture{
		db:     memdb.Open(),
		blobs:  memblob.New("https://cdn.school.test/storage"),
		logger: logsvc.NewDiscardLogger(),
	}
	core.ParseEmailTemplates(f.logger)
	f.mailer = emailsvc.NewConsoleServiceMock(conf, f.logger)
	f.store = portal.NewStore(f.db, f.blobs, f.logger, portal.WithMailer(f.mailer, conf.AppName))
	return f
}

func (f *fixture) load(t *testing.T) {
	f.store.Load(context.Background())
	require.False(t, f.store.Loading())
}

func pdf(name string) portal.File {
	return portal.File{Name: name, ContentType: "application/pdf", Body: bytes.NewBufferString("%PDF-1.4")}
}

func TestStore_Load(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("collections are newest first", func(t *testing.T) {
		f := setup(t)
		teacher := testutil.CreateTeacher(t, f.db, "Jane", "jane", "pwd")
		r1 := testutil.CreateResource(t, f.db, "Old", "https://cdn/r1.pdf", portal.CategoryResource, now.Add(-time.Hour))
		r2 := testutil.CreateResource(t, f.db, "New", "https://cdn/r2.pdf", portal.CategoryTimetable, now)
		u1 := testutil.CreateUpload(t, f.db, teacher, "https://cdn/u1.pdf", portal.UploadPending, now.Add(-time.Hour))
		u2 := testutil.CreateUpload(t, f.db, teacher, "https://cdn/u2.pdf", portal.UploadMarked, now)
		a1 := testutil.CreateAnnouncement(t, f.db, "Old", portal.TargetPublic, false, now.Add(-time.Hour))
		a2 := testutil.CreateAnnouncement(t, f.db, "New", portal.TargetInternal, true, now)
		s1 := testutil.CreateSuggestion(t, f.db, "Ann", "ann@test.cd", false, now.Add(-time.Hour))
		s2 := testutil.CreateSuggestion(t, f.db, "Ben", "ben@test.cd", false, now)
		ad1 := testutil.CreateAdmission(t, f.db, "Kid", portal.AdmissionPending, now.Add(-time.Hour))
		ad2 := testutil.CreateAdmission(t, f.db, "Other Kid", portal.AdmissionAccepted, now)
		at1 := testutil.CreateAttendanceRecord(t, f.db, teacher, "2024-05-01")
		at2 := testutil.CreateAttendanceRecord(t, f.db, teacher, "2024-05-02")
		testutil.MarkViewed(t, f.db, core.TableViewedResources, r1.ID)
		testutil.MarkViewed(t, f.db, core.TableViewedTimetables, r2.ID)

		assert.True(t, f.store.Loading())
		f.load(t)

		assert.Equal(t, []portal.Resource{r2, r1}, f.store.Resources())
		assert.Equal(t, []portal.Upload{u2, u1}, f.store.Uploads())
		assert.Equal(t, []portal.Announcement{a2, a1}, f.store.Announcements())
		assert.Equal(t, []portal.Suggestion{s2, s1}, f.store.Suggestions())
		assert.Equal(t, []portal.Admission{ad2, ad1}, f.store.Admissions())
		assert.Equal(t, []portal.AttendanceRecord{at2, at1}, f.store.AttendanceRecords())
		assert.Equal(t, []string{r1.ID}, f.store.ViewedResources())
		assert.Equal(t, []string{r2.ID}, f.store.ViewedTimetables())
	})

	for _, table := range []string{core.TableResources, core.TableAttendance, core.TableViewedTimetables} {
		t.Run("failing "+table+" discards everything", func(t *testing.T) {
			f := setup(t)
			res := testutil.CreateResource(t, f.db, "Doc", "https://cdn/r1.pdf", portal.CategoryResource)
			testutil.CreateAnnouncement(t, f.db, "Hello", portal.TargetBoth, false)
			testutil.MarkViewed(t, f.db, core.TableViewedResources, res.ID)
			f.db.FailOn(memdb.OpQuery, table, errBoom)

			f.load(t)
			assert.Empty(t, f.store.Resources())
			assert.Empty(t, f.store.Announcements())
			assert.Empty(t, f.store.ViewedResources())
			assert.Equal(t, portal.Counts{}, f.store.UnreadCounts())
			assert.Len(t, f.logger.Entries(logsvc.LevelError), 1)

			// every query was still issued
			for _, tbl := range []string{core.TableResources, core.TableUploads, core.TableAnnouncements, core.TableSuggestions,
				core.TableAdmissions, core.TableAttendance, core.TableViewedResources, core.TableViewedTimetables} {
				assert.Equal(t, 1, f.db.Calls(memdb.OpQuery, tbl), tbl)
			}
		})
	}
}

func TestStore_UnreadCounts(t *testing.T) {
	f := setup(t)
	teacher := testutil.CreateTeacher(t, f.db, "Jane", "jane", "pwd")

	testutil.CreateAnnouncement(t, f.db, "A1", portal.TargetPublic, true)
	testutil.CreateAnnouncement(t, f.db, "A2", portal.TargetInternal, false)
	testutil.CreateAnnouncement(t, f.db, "A3", portal.TargetBoth, false)
	testutil.CreateSuggestion(t, f.db, "Ann", "ann@test.cd", false)
	testutil.CreateSuggestion(t, f.db, "Ben", "ben@test.cd", false)
	testutil.CreateUpload(t, f.db, teacher, "https://cdn/u1.pdf", portal.UploadPending)
	testutil.CreateUpload(t, f.db, teacher, "https://cdn/u2.pdf", portal.UploadPending)
	testutil.CreateUpload(t, f.db, teacher, "https://cdn/u3.pdf", portal.UploadMarked)
	testutil.CreateUpload(t, f.db, teacher, "https://cdn/u4.pdf", portal.UploadMarked)
	testutil.CreateAdmission(t, f.db, "Kid", portal.AdmissionPending)
	testutil.CreateAdmission(t, f.db, "Kid 2", portal.AdmissionRejected)
	testutil.CreateAttendanceRecord(t, f.db, teacher, "2024-05-01")
	testutil.CreateAttendanceRecord(t, f.db, teacher, "2024-05-02")
	testutil.CreateAttendanceRecord(t, f.db, teacher, "2024-05-03")
	seen := testutil.CreateResource(t, f.db, "Seen", "https://cdn/r1.pdf", portal.CategoryResource)
	testutil.CreateResource(t, f.db, "Unseen", "https://cdn/r2.pdf", portal.CategoryResource)
	testutil.CreateResource(t, f.db, "Monday", "https://cdn/t1.pdf", portal.CategoryTimetable)
	testutil.CreateResource(t, f.db, "Tuesday", "https://cdn/t2.pdf", portal.CategoryTimetable)
	testutil.MarkViewed(t, f.db, core.TableViewedResources, seen.ID)
	// a timetable id in the resource set does not count as a seen timetable
	testutil.MarkViewed(t, f.db, core.TableViewedTimetables, seen.ID)
	f.load(t)

	want := portal.Counts{
		Announcements: 2,
		Suggestions:   2,
		Uploads:       2,
		Admissions:    1,
		Attendance:    3,
		Resources:     1,
		Timetable:     2,
	}
	assert.Equal(t, want, f.store.UnreadCounts())
	assert.Equal(t, portal.TeacherCounts{Resources: 1, Timetable: 2}, f.store.UnreadCounts().ForTeacher())
}

func TestStore_AddResource(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	portal.NowFunc = func() time.Time { return fixed }
	defer func() { portal.NowFunc = time.Now }()

	nr := portal.NewResource{
		Title:      "Term 1 timetable",
		FileName:   "timetable.pdf",
		Type:       portal.TypeDocument,
		UploadedBy: "admin",
		Category:   portal.CategoryTimetable,
	}

	t.Run("uploads then records", func(t *testing.T) {
		f := setup(t)
		existing := testutil.CreateResource(t, f.db, "Doc", "https://cdn/r1.pdf", portal.CategoryResource)
		f.load(t)

		res, err := f.store.AddResource(ctx, nr, pdf("timetable.pdf"))
		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, nr.Title, res.Title)
		assert.Equal(t, "timetable.pdf", res.FileName)
		assert.Equal(t, portal.CategoryTimetable, res.Category)
		assert.False(t, res.UploadedAt.IsZero())

		keys := f.blobs.Keys(core.BucketResources)
		require.Len(t, keys, 1)
		assert.Regexp(t, `^1714550400000-[0-9a-z]+\.pdf$`, keys[0])
		assert.Equal(t, "https://cdn.school.test/storage/resources/"+keys[0], res.FileURL)
		obj, _ := f.blobs.Get(core.BucketResources, keys[0])
		assert.Equal(t, "application/pdf", obj.ContentType)

		assert.Equal(t, []portal.Resource{res, existing}, f.store.Resources())
	})

	t.Run("failed upload records nothing", func(t *testing.T) {
		f := setup(t)
		f.load(t)
		f.blobs.FailUploads(errBoom)

		_, err := f.store.AddResource(ctx, nr, pdf("timetable.pdf"))
		assert.ErrorIs(t, err, errBoom)
		assert.Zero(t, f.db.Calls(memdb.OpInsert, core.TableResources))
		assert.Empty(t, f.db.Rows(core.TableResources))
		assert.Empty(t, f.store.Resources())
	})

	t.Run("failed insert leaves the blob", func(t *testing.T) {
		f := setup(t)
		f.load(t)
		f.db.FailOn(memdb.OpInsert, core.TableResources, errBoom)

		_, err := f.store.AddResource(ctx, nr, pdf("timetable.pdf"))
		assert.ErrorIs(t, err, errBoom)
		assert.Len(t, f.blobs.Keys(core.BucketResources), 1)
		assert.Empty(t, f.store.Resources())
	})
}

func TestStore_DeleteResource(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		f := setup(t)
		f.load(t)

		err := f.store.DeleteResource(ctx, "lol")
		assert.Equal(t, portal.ErrNotFound, err)
		assert.Zero(t, f.blobs.RemoveCalls())
		assert.Zero(t, f.db.Calls(memdb.OpDelete, core.TableResources))
	})

	tests := []struct {
		name          string
		removeErr     error
		deleteErr     error
		wantErr       error
		wantRemaining int
	}{
		{name: "removes blob and record", wantRemaining: 1},
		{name: "blob removal failure is tolerated", removeErr: errBoom, wantRemaining: 1},
		{name: "record deletion failure", deleteErr: errBoom, wantErr: errBoom, wantRemaining: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			res, err := f.store.AddResource(ctx, portal.NewResource{Title: "Doc", Category: portal.CategoryResource}, pdf("doc.pdf"))
			require.NoError(t, err)
			other := testutil.CreateResource(t, f.db, "Other", "https://cdn/other.pdf", portal.CategoryResource)
			f.load(t)

			key := f.blobs.Keys(core.BucketResources)[0]
			f.blobs.FailRemovals(tt.removeErr)
			f.db.FailOn(memdb.OpDelete, core.TableResources, tt.deleteErr)

			err = f.store.DeleteResource(ctx, res.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []string{key}, f.blobs.Removed(core.BucketResources))
			assert.Equal(t, 1, f.db.Calls(memdb.OpDelete, core.TableResources))
			assert.Len(t, f.store.Resources(), tt.wantRemaining)
			if tt.wantRemaining == 1 {
				assert.Equal(t, other.ID, f.store.Resources()[0].ID)
			}
		})
	}
}

func TestStore_ResourcesByCategory(t *testing.T) {
	f := setup(t)
	for i, cat := range []portal.ResourceCategory{
		portal.CategoryResource, portal.CategoryTimetable, portal.CategoryResource,
		portal.CategoryTimetable, portal.CategoryTimetable,
	} {
		testutil.CreateResource(t, f.db, string(cat), "https://cdn/"+string(rune('a'+i))+".pdf", cat)
	}
	f.load(t)

	resources := f.store.ResourcesByCategory(portal.CategoryResource)
	timetables := f.store.ResourcesByCategory(portal.CategoryTimetable)
	assert.Len(t, resources, 2)
	assert.Len(t, timetables, 3)

	seen := make(map[string]bool)
	for _, r := range append(resources, timetables...) {
		assert.False(t, seen[r.ID], "resource %s in both partitions", r.ID)
		seen[r.ID] = true
	}
	for _, r := range f.store.Resources() {
		assert.True(t, seen[r.ID])
	}
	assert.Len(t, seen, len(f.store.Resources()))
}

func TestStore_MarkViewed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		table  string
		mark   func(*portal.Store, context.Context, string) error
		viewed func(*portal.Store) []string
	}{
		{name: "resource", table: core.TableViewedResources, mark: (*portal.Store).MarkResourceViewed, viewed: (*portal.Store).ViewedResources},
		{name: "timetable", table: core.TableViewedTimetables, mark: (*portal.Store).MarkTimetableViewed, viewed: (*portal.Store).ViewedTimetables},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.load(t)

			f.db.FailOn(memdb.OpInsert, tt.table, errBoom)
			assert.ErrorIs(t, tt.mark(f.store, ctx, "res-1"), errBoom)
			assert.Empty(t, tt.viewed(f.store))
			f.db.FailOn(memdb.OpInsert, tt.table, nil)

			require.NoError(t, tt.mark(f.store, ctx, "res-1"))
			require.NoError(t, tt.mark(f.store, ctx, "res-1"))
			assert.Equal(t, []string{"res-1"}, tt.viewed(f.store))
			assert.Equal(t, 2, f.db.Calls(memdb.OpInsert, tt.table)) // the failed one and a single successful one
			assert.Len(t, f.db.Rows(tt.table), 1)
		})
	}
}

func TestStore_AddUpload(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.load(t)
	nu := portal.NewUpload{TeacherID: "t-1", TeacherName: "Jane", Type: "lesson-plan"}

	f.blobs.FailUploads(errBoom)
	_, err := f.store.AddUpload(ctx, nu, pdf("week 1.docx"))
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, f.db.Calls(memdb.OpInsert, core.TableUploads))
	f.blobs.FailUploads(nil)

	upl, err := f.store.AddUpload(ctx, nu, pdf("week 1.docx"))
	require.NoError(t, err)
	assert.Equal(t, portal.UploadPending, upl.Status)
	assert.Equal(t, "week 1.docx", upl.FileName)
	assert.Regexp(t, `^https://cdn\.school\.test/storage/uploads/\d+-[0-9a-z]+\.docx$`, upl.FileURL)
	assert.Equal(t, []portal.Upload{upl}, f.store.Uploads())
}

func TestStore_MarkUpload(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	teacher := auth.Teacher{User: auth.User{ID: "t-1", Name: "Jane"}}
	upl := testutil.CreateUpload(t, f.db, teacher, "https://cdn/u1.pdf", portal.UploadPending)
	f.load(t)

	f.db.FailOn(memdb.OpUpdate, core.TableUploads, errBoom)
	assert.Error(t, f.store.MarkUpload(ctx, upl.ID, "Good work", "A"))
	assert.Equal(t, portal.UploadPending, f.store.Uploads()[0].Status)
	f.db.FailOn(memdb.OpUpdate, core.TableUploads, nil)

	require.NoError(t, f.store.MarkUpload(ctx, upl.ID, "Good work", "A"))
	got := f.store.Uploads()[0]
	assert.Equal(t, portal.UploadMarked, got.Status)
	assert.Equal(t, "Good work", got.Comments)
	assert.Equal(t, "A", got.Grade)

	// marking again overwrites
	require.NoError(t, f.store.MarkUpload(ctx, upl.ID, "Even better", "A+"))
	got = f.store.Uploads()[0]
	assert.Equal(t, portal.UploadMarked, got.Status)
	assert.Equal(t, "Even better", got.Comments)
	assert.Equal(t, "A+", got.Grade)

	// no grade keeps the previous one
	require.NoError(t, f.store.MarkUpload(ctx, upl.ID, "Resubmitted", ""))
	got = f.store.Uploads()[0]
	assert.Equal(t, "Resubmitted", got.Comments)
	assert.Equal(t, "A+", got.Grade)

	row := f.db.Rows(core.TableUploads)[0]
	assert.Equal(t, "marked", row["status"])
	assert.Equal(t, "Resubmitted", row["comments"])
	assert.Equal(t, "A+", row["grade"])
}

func TestStore_ClearAllUploads(t *testing.T) {
	ctx := context.Background()
	teacher := auth.Teacher{User: auth.User{ID: "t-1", Name: "Jane"}}

	tests := []struct {
		name       string
		removeErr  error
		deleteErr  error
		wantErr    bool
		wantLocal  int
		wantRemote int
	}{
		{name: "clears files and records"},
		{name: "file removal failure is tolerated", removeErr: errBoom},
		{name: "record deletion failure", deleteErr: errBoom, wantErr: true, wantLocal: 3, wantRemote: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			testutil.CreateUpload(t, f.db, teacher, "https://cdn.school.test/storage/uploads/a.pdf", portal.UploadPending)
			testutil.CreateUpload(t, f.db, teacher, "https://cdn.school.test/storage/uploads/b.pdf", portal.UploadMarked)
			testutil.CreateUpload(t, f.db, teacher, "https://cdn.school.test/storage/uploads/a.pdf", portal.UploadPending)
			f.load(t)
			f.blobs.FailRemovals(tt.removeErr)
			f.db.FailOn(memdb.OpDelete, core.TableUploads, tt.deleteErr)

			err := f.store.ClearAllUploads(ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBoom)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, f.blobs.RemoveCalls())
			assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, f.blobs.Removed(core.BucketUploads))
			assert.Len(t, f.store.Uploads(), tt.wantLocal)
			assert.Len(t, f.db.Rows(core.TableUploads), tt.wantRemote)
		})
	}

	t.Run("nothing to remove", func(t *testing.T) {
		f := setup(t)
		f.load(t)
		require.NoError(t, f.store.ClearAllUploads(ctx))
		assert.Zero(t, f.blobs.RemoveCalls())
		assert.Equal(t, 1, f.db.Calls(memdb.OpDelete, core.TableUploads))
	})
}

func TestStore_Announcements(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	internal := testutil.CreateAnnouncement(t, f.db, "Staff meeting", portal.TargetInternal, false)
	public := testutil.CreateAnnouncement(t, f.db, "Open day", portal.TargetPublic, true)
	f.load(t)

	both, err := f.store.AddAnnouncement(ctx, portal.NewAnnouncement{Title: "Holidays", Content: "...", Author: "admin", Target: portal.TargetBoth})
	require.NoError(t, err)
	assert.False(t, both.IsRead)
	assert.Equal(t, both.ID, f.store.Announcements()[0].ID)

	ids := func(anns []portal.Announcement) []string {
		out := make([]string, 0, len(anns))
		for _, a := range anns {
			out = append(out, a.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []string{public.ID, both.ID}, ids(f.store.PublicAnnouncements()))
	assert.Equal(t, []string{both.ID}, ids(f.store.UnreadPublicAnnouncements()))

	require.NoError(t, f.store.MarkAnnouncementRead(ctx, both.ID))
	assert.Empty(t, f.store.UnreadPublicAnnouncements())
	assert.Equal(t, 1, f.store.UnreadCounts().Announcements)

	f.db.FailOn(memdb.OpDelete, core.TableAnnouncements, errBoom)
	assert.Error(t, f.store.DeleteAnnouncement(ctx, internal.ID))
	assert.Len(t, f.store.Announcements(), 3)
	f.db.FailOn(memdb.OpDelete, core.TableAnnouncements, nil)

	require.NoError(t, f.store.DeleteAnnouncement(ctx, internal.ID))
	assert.ElementsMatch(t, []string{public.ID, both.ID}, ids(f.store.Announcements()))
}

func TestStore_Suggestions(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	portal.NowFunc = func() time.Time { return fixed }
	defer func() { portal.NowFunc = time.Now }()

	f := setup(t)
	ann := testutil.CreateSuggestion(t, f.db, "Ann", "ann@test.cd", false)
	ben := testutil.CreateSuggestion(t, f.db, "Ben", "", false)
	f.load(t)

	added, err := f.store.AddSuggestion(ctx, portal.NewSuggestion{Name: "Teacher Jane", Message: "More chalk", Source: "teacher"})
	require.NoError(t, err)
	assert.False(t, added.IsRead)
	assert.Len(t, f.store.Suggestions(), 3)

	t.Run("mark read", func(t *testing.T) {
		require.NoError(t, f.store.MarkSuggestionRead(ctx, ben.ID))
		assert.Equal(t, 2, f.store.UnreadCounts().Suggestions)
	})

	t.Run("reply", func(t *testing.T) {
		require.NoError(t, f.store.AddSuggestionReply(ctx, ann.ID, "Thanks, noted.", "admin"))

		var got portal.Suggestion
		for _, sug := range f.store.Suggestions() {
			if sug.ID == ann.ID {
				got = sug
			}
		}
		assert.Equal(t, "Thanks, noted.", got.Reply)
		assert.Equal(t, "admin", got.RepliedBy)
		require.NotNil(t, got.RepliedAt)
		assert.True(t, fixed.Equal(*got.RepliedAt))
		assert.True(t, got.IsRead)

		sent := f.mailer.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ann@test.cd", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "Thanks, noted.")
		assert.Contains(t, sent[0].HTMLContent, "Thanks, noted.")
	})

	t.Run("reply only once", func(t *testing.T) {
		calls := f.db.Calls(memdb.OpUpdate, core.TableSuggestions)
		assert.Equal(t, portal.ErrAlreadyReplied, f.store.AddSuggestionReply(ctx, ann.ID, "Again", "admin"))
		assert.Equal(t, calls, f.db.Calls(memdb.OpUpdate, core.TableSuggestions))
	})

	t.Run("reply without email", func(t *testing.T) {
		require.NoError(t, f.store.AddSuggestionReply(ctx, ben.ID, "Ok", "admin"))
		assert.Len(t, f.mailer.SentMessages(), 1)
	})

	t.Run("empty reply still counts", func(t *testing.T) {
		require.NoError(t, f.store.AddSuggestionReply(ctx, added.ID, "", "admin"))
		assert.Equal(t, portal.ErrAlreadyReplied, f.store.AddSuggestionReply(ctx, added.ID, "Again", "admin"))
		assert.Len(t, f.db.Rows(core.TableSuggestions), 3)
	})

	t.Run("clear teacher suggestions", func(t *testing.T) {
		require.NoError(t, f.store.ClearTeacherSuggestions(ctx, "Teacher Jane"))
		assert.Len(t, f.store.Suggestions(), 2)
		assert.Len(t, f.db.Rows(core.TableSuggestions), 2)
	})

	t.Run("clear all", func(t *testing.T) {
		f.db.FailOn(memdb.OpDelete, core.TableSuggestions, errBoom)
		assert.Error(t, f.store.ClearAllSuggestions(ctx))
		assert.Len(t, f.store.Suggestions(), 2)
		f.db.FailOn(memdb.OpDelete, core.TableSuggestions, nil)

		require.NoError(t, f.store.ClearAllSuggestions(ctx))
		assert.Empty(t, f.store.Suggestions())
		assert.Empty(t, f.db.Rows(core.TableSuggestions))
	})
}

func TestStore_Admissions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.load(t)

	adm, err := f.store.AddAdmission(ctx, portal.NewAdmission{StudentName: "Kid", ParentName: "Mom", Email: "mom@test.cd", Grade: "Grade 1"})
	require.NoError(t, err)
	assert.Equal(t, portal.AdmissionPending, adm.Status)
	assert.Equal(t, 1, f.store.UnreadCounts().Admissions)

	tests := []struct {
		name       string
		status     portal.AdmissionStatus
		wantErr    error
		wantStatus portal.AdmissionStatus
	}{
		{name: "unknown status", status: "maybe", wantErr: portal.ErrInvalidStatus, wantStatus: portal.AdmissionPending},
		{name: "accepted", status: portal.AdmissionAccepted, wantStatus: portal.AdmissionAccepted},
		{name: "rejected", status: portal.AdmissionRejected, wantStatus: portal.AdmissionRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.store.UpdateAdmissionStatus(ctx, adm.ID, tt.status)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantStatus, f.store.Admissions()[0].Status)
		})
	}
	assert.Equal(t, 2, f.db.Calls(memdb.OpUpdate, core.TableAdmissions))
}

func TestStore_AddAttendanceRecord(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	teacher := auth.Teacher{User: auth.User{ID: "t-1", Name: "Jane"}}
	first := testutil.CreateAttendanceRecord(t, f.db, teacher, "2024-05-01")
	f.load(t)

	rec, err := f.store.AddAttendanceRecord(ctx, portal.NewAttendanceRecord{
		TeacherID: teacher.ID, TeacherName: teacher.Name, Date: "2024-05-02", Time: "07:55", Status: "present", Location: "Main campus",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, []portal.AttendanceRecord{rec, first}, f.store.AttendanceRecords())
	assert.Equal(t, 2, f.store.UnreadCounts().Attendance)

	f.db.FailOn(memdb.OpInsert, core.TableAttendance, errBoom)
	_, err = f.store.AddAttendanceRecord(ctx, portal.NewAttendanceRecord{TeacherID: teacher.ID, Date: "2024-05-03"})
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, f.store.AttendanceRecords(), 2)
}
