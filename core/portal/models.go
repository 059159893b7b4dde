package portal

import (
	"io"
	"time"
)

type (
	ResourceType     string
	ResourceCategory string
	UploadStatus     string
	Target           string
	AdmissionStatus  string
)

// Resource types
const (
	TypeDocument ResourceType = "document"
	TypeImage    ResourceType = "image"
)

// Resource categories; they partition the resources table.
const (
	CategoryResource  ResourceCategory = "resource"
	CategoryTimetable ResourceCategory = "timetable"
)

// Upload statuses
const (
	UploadPending UploadStatus = "pending"
	UploadMarked  UploadStatus = "marked"
)

// Announcement targets
const (
	TargetInternal Target = "internal"
	TargetPublic   Target = "public"
	TargetBoth     Target = "both"
)

// Admission statuses
const (
	AdmissionPending  AdmissionStatus = "pending"
	AdmissionAccepted AdmissionStatus = "accepted"
	AdmissionRejected AdmissionStatus = "rejected"
)

func (s AdmissionStatus) Valid() bool {
	switch s {
	case AdmissionPending, AdmissionAccepted, AdmissionRejected:
		return true
	}
	return false
}

// IsPublic reports whether the target includes the public channel.
func (t Target) IsPublic() bool {
	return t == TargetPublic || t == TargetBoth
}

type (
	Resource struct {
		ID         string           `json:"id" mapstructure:"id"`
		Title      string           `json:"title" mapstructure:"title"`
		FileName   string           `json:"fileName" mapstructure:"file_name"`
		FileURL    string           `json:"fileUrl" mapstructure:"file_url"`
		Type       ResourceType     `json:"type" mapstructure:"file_type"`
		UploadedBy string           `json:"uploadedBy" mapstructure:"uploaded_by"`
		UploadedAt time.Time        `json:"uploadedAt" mapstructure:"uploaded_at"`
		Category   ResourceCategory `json:"category" mapstructure:"category"`
	}

	Upload struct {
		ID          string       `json:"id" mapstructure:"id"`
		TeacherID   string       `json:"teacherId" mapstructure:"teacher_id"`
		TeacherName string       `json:"teacherName" mapstructure:"teacher_name"`
		Type        string       `json:"type" mapstructure:"type"`
		FileName    string       `json:"fileName" mapstructure:"file_name"`
		FileURL     string       `json:"fileUrl" mapstructure:"file_url"`
		UploadedAt  time.Time    `json:"uploadedAt" mapstructure:"uploaded_at"`
		Status      UploadStatus `json:"status" mapstructure:"status"`
		Comments    string       `json:"comments,omitempty" mapstructure:"comments"`
		Grade       string       `json:"grade,omitempty" mapstructure:"grade"`
	}

	Announcement struct {
		ID        string    `json:"id" mapstructure:"id"`
		Title     string    `json:"title" mapstructure:"title"`
		Content   string    `json:"content" mapstructure:"content"`
		Author    string    `json:"author" mapstructure:"author"`
		CreatedAt time.Time `json:"createdAt" mapstructure:"created_at"`
		Target    Target    `json:"target" mapstructure:"target"`
		IsRead    bool      `json:"isRead" mapstructure:"is_read"`
	}

	Suggestion struct {
		ID          string     `json:"id" mapstructure:"id"`
		Name        string     `json:"name" mapstructure:"name"`
		Email       string     `json:"email" mapstructure:"email"`
		Message     string     `json:"message" mapstructure:"message"`
		Source      string     `json:"source" mapstructure:"source"`
		SubmittedAt time.Time  `json:"submittedAt" mapstructure:"submitted_at"`
		IsRead      bool       `json:"isRead" mapstructure:"is_read"`
		Reply       string     `json:"reply,omitempty" mapstructure:"reply"`
		RepliedAt   *time.Time `json:"repliedAt,omitempty" mapstructure:"replied_at"`
		RepliedBy   string     `json:"repliedBy,omitempty" mapstructure:"replied_by"`
	}

	Admission struct {
		ID          string          `json:"id" mapstructure:"id"`
		StudentName string          `json:"studentName" mapstructure:"student_name"`
		ParentName  string          `json:"parentName" mapstructure:"parent_name"`
		Email       string          `json:"email" mapstructure:"email"`
		Phone       string          `json:"phone" mapstructure:"phone"`
		Grade       string          `json:"grade" mapstructure:"grade"`
		Message     string          `json:"message" mapstructure:"message"`
		SubmittedAt time.Time       `json:"submittedAt" mapstructure:"submitted_at"`
		Status      AdmissionStatus `json:"status" mapstructure:"status"`
	}

	AttendanceRecord struct {
		ID          string `json:"id" mapstructure:"id"`
		TeacherID   string `json:"teacherId" mapstructure:"teacher_id"`
		TeacherName string `json:"teacherName" mapstructure:"teacher_name"`
		Date        string `json:"date" mapstructure:"date"`
		Time        string `json:"time" mapstructure:"time"`
		Status      string `json:"status" mapstructure:"status"`
		Location    string `json:"location" mapstructure:"location"`
	}

	// Counts holds the per-category notification badges.
	Counts struct {
		Announcements int `json:"announcements"`
		Suggestions   int `json:"suggestions"`
		Uploads       int `json:"uploads"`
		Admissions    int `json:"admissions"`
		Attendance    int `json:"attendance"`
		Resources     int `json:"resources"`
		Timetable     int `json:"timetable"`
	}

	// TeacherCounts is the part of Counts a teacher's badges are built from.
	TeacherCounts struct {
		Resources int `json:"resources"`
		Timetable int `json:"timetable"`
	}
)

// File is the content backing a Resource or an Upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type (
	NewResource struct {
		Title      string
		FileName   string
		Type       ResourceType
		UploadedBy string
		Category   ResourceCategory
	}

	NewUpload struct {
		TeacherID   string
		TeacherName string
		Type        string
		FileName    string
	}

	NewAnnouncement struct {
		Title   string
		Content string
		Author  string
		Target  Target
	}

	NewSuggestion struct {
		Name    string
		Email   string
		Message string
		Source  string
	}

	NewAdmission struct {
		StudentName string
		ParentName  string
		Email       string
		Phone       string
		Grade       string
		Message     string
	}

	NewAttendanceRecord struct {
		TeacherID   string
		TeacherName string
		Date        string
		Time        string
		Status      string
		Location    string
	}
)
