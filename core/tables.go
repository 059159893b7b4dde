package core

// Remote tables
const (
	TableUsers            = "users"
	TableTeachers         = "teachers"
	TableResources        = "resources"
	TableUploads          = "uploads"
	TableAnnouncements    = "announcements"
	TableSuggestions      = "suggestions"
	TableAdmissions       = "admissions"
	TableAttendance       = "attendance_records"
	TableViewedResources  = "viewed_resources"
	TableViewedTimetables = "viewed_timetables"
)

// Blob buckets
const (
	BucketResources = "resources"
	BucketUploads   = "uploads"
)

// ColumnID is the primary key column of every table.
const ColumnID = "id"

var (
	// Tables lists every known remote table.
	Tables = []string{
		TableUsers,
		TableTeachers,
		TableResources,
		TableUploads,
		TableAnnouncements,
		TableSuggestions,
		TableAdmissions,
		TableAttendance,
		TableViewedResources,
		TableViewedTimetables,
	}

	// ServerTimestamps lists, per table, the columns the remote store fills with the insertion time
	// when the client leaves them out.
	ServerTimestamps = map[string][]string{
		TableUsers:            {"created_at"},
		TableTeachers:         {"created_at"},
		TableResources:        {"uploaded_at"},
		TableUploads:          {"uploaded_at"},
		TableAnnouncements:    {"created_at"},
		TableSuggestions:      {"submitted_at"},
		TableAdmissions:       {"submitted_at"},
		TableViewedResources:  {"viewed_at"},
		TableViewedTimetables: {"viewed_at"},
	}
)

// IsTable reports whether `name` is a known remote table.
func IsTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
