package auth

import (
	"time"

	"github.com/trezcool/schoolportal/core"
)

type Role string

// Roles
const (
	RoleAdmin     Role = "admin"
	RoleTeacher   Role = "teacher"
	RoleCommittee Role = "committee"
)

// AccountKind tells which identity table an account was resolved from.
type AccountKind string

const (
	KindUser    AccountKind = "user"
	KindTeacher AccountKind = "teacher"
)

// Login messages
const (
	MsgLoginSuccess       = "Login successful"
	MsgInvalidCredentials = "Invalid username or password"
	MsgLoginFailed        = "Login failed. Please try again."
)

// DefaultAddedBy is recorded as the creator of teachers added without a session.
const DefaultAddedBy = "admin"

type (
	User struct {
		ID           string    `json:"id" mapstructure:"id"`
		Username     string    `json:"username" mapstructure:"username"`
		Password     string    `json:"-" mapstructure:"password"`
		Role         Role      `json:"role" mapstructure:"role"`
		Name         string    `json:"name" mapstructure:"name"`
		IsFirstLogin bool      `json:"isFirstLogin" mapstructure:"is_first_login"`
		CreatedAt    time.Time `json:"createdAt" mapstructure:"created_at"`
	}

	AttendanceEntry struct {
		Date     string `json:"date" mapstructure:"date"`
		Time     string `json:"time" mapstructure:"time"`
		Status   string `json:"status" mapstructure:"status"`
		Location string `json:"location" mapstructure:"location"`
	}

	Teacher struct {
		User              `mapstructure:",squash"`
		AddedBy           string            `json:"addedBy" mapstructure:"added_by"`
		AttendanceHistory []AttendanceEntry `json:"attendanceHistory" mapstructure:"attendance_history"`
	}

	// Account is the session identity: exactly one of User or Teacher is set, according to Kind.
	Account struct {
		Kind    AccountKind `json:"kind"`
		User    *User       `json:"user,omitempty"`
		Teacher *Teacher    `json:"teacher,omitempty"`
	}

	LoginResult struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Account *Account `json:"account,omitempty"`
	}
)

// Identity returns the common user fields of the account.
func (a Account) Identity() User {
	if a.Kind == KindTeacher && a.Teacher != nil {
		return a.Teacher.User
	}
	if a.User != nil {
		return *a.User
	}
	return User{}
}

func (a Account) IsAdmin() bool {
	return a.Identity().Role == RoleAdmin
}

func (a Account) clone() Account {
	cp := Account{Kind: a.Kind}
	if a.User != nil {
		u := *a.User
		cp.User = &u
	}
	if a.Teacher != nil {
		t := a.Teacher.clone()
		cp.Teacher = &t
	}
	return cp
}

func (t Teacher) clone() Teacher {
	cp := t
	cp.AttendanceHistory = append([]AttendanceEntry(nil), t.AttendanceHistory...)
	return cp
}

func (e AttendanceEntry) toMap() map[string]interface{} {
	return map[string]interface{}{
		"date":     e.Date,
		"time":     e.Time,
		"status":   e.Status,
		"location": e.Location,
	}
}

func decodeUser(row core.Row) (User, error) {
	var usr User
	err := core.DecodeRow(row, &usr)
	return usr, err
}

func decodeTeacher(row core.Row) (Teacher, error) {
	var t Teacher
	if err := core.DecodeRow(row, &t); err != nil {
		return Teacher{}, err
	}
	if t.AttendanceHistory == nil {
		t.AttendanceHistory = []AttendanceEntry{}
	}
	return t, nil
}

func teacherRow(t Teacher) core.Row {
	history := make([]interface{}, 0, len(t.AttendanceHistory))
	for _, e := range t.AttendanceHistory {
		history = append(history, e.toMap())
	}
	return core.Row{
		"username":           t.Username,
		"password":           t.Password,
		"role":               string(t.Role),
		"name":               t.Name,
		"is_first_login":     t.IsFirstLogin,
		"added_by":           t.AddedBy,
		"attendance_history": history,
	}
}
