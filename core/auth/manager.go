package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/schoolportal/core"
)

// ErrUsernameTaken is returned when a new teacher would share a username with an existing account.
var ErrUsernameTaken = errors.New("username already taken")

// identitySources is the fixed order in which account kinds are checked on login.
var identitySources = []struct {
	kind  AccountKind
	table string
}{
	{kind: KindUser, table: core.TableUsers},
	{kind: KindTeacher, table: core.TableTeachers},
}

type (
	// Manager holds the active session and the teacher roster.
	Manager struct {
		remote        core.RemoteStore
		logger        core.Logger
		hashPasswords bool

		mu       sync.RWMutex
		current  *Account
		teachers []Teacher
		loading  bool
	}

	Option func(*Manager)
)

// WithHashedPasswords stores bcrypt hashes and verifies them on login instead of matching plaintext.
func WithHashedPasswords(enabled bool) Option {
	return func(m *Manager) {
		m.hashPasswords = enabled
	}
}

func NewManager(remote core.RemoteStore, logger core.Logger, opts ...Option) *Manager {
	m := &Manager{
		remote:   remote,
		logger:   logger,
		teachers: []Teacher{},
		loading:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadTeachers fetches the teacher roster, newest first.
// Failures are logged and leave the roster empty; the loading flag clears in all cases.
func (m *Manager) LoadTeachers(ctx context.Context) {
	teachers, err := m.fetchTeachers(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.logger.Error(fmt.Sprintf("loading teachers: %v", err), err)
		return
	}
	m.teachers = teachers
}

func (m *Manager) fetchTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := m.remote.Query(ctx, core.TableTeachers, core.Desc("created_at"))
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]Teacher, 0, len(rows))
	for _, row := range rows {
		t, err := decodeTeacher(row)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

// Login resolves the credentials against each account kind in turn and opens a session on match.
// It never fails: problems are reported through the result.
func (m *Manager) Login(ctx context.Context, username, password string) LoginResult {
	acc, err := m.resolve(ctx, username, password)
	if err != nil {
		m.logger.Error(fmt.Sprintf("login: %v", err), err)
		return LoginResult{Message: MsgLoginFailed}
	}
	if acc == nil {
		return LoginResult{Message: MsgInvalidCredentials}
	}

	m.mu.Lock()
	m.current = acc
	m.mu.Unlock()

	res := acc.clone()
	return LoginResult{Success: true, Message: MsgLoginSuccess, Account: &res}
}

// resolve returns the first account matching the credentials, or nil when none does.
func (m *Manager) resolve(ctx context.Context, username, password string) (*Account, error) {
	for _, src := range identitySources {
		conds := []core.Cond{core.Eq("username", username)}
		if !m.hashPasswords {
			conds = append(conds, core.Eq("password", password))
		}

		row, err := m.remote.Get(ctx, src.table, conds...)
		if err != nil {
			if errors.Cause(err) == core.ErrNoRows {
				continue
			}
			return nil, errors.Wrapf(err, "looking up %s", src.table)
		}

		acc, err := accountFromRow(src.kind, row)
		if err != nil {
			return nil, err
		}
		if m.hashPasswords && !checkPassword(acc.Identity().Password, password) {
			continue
		}
		return acc, nil
	}
	return nil, nil
}

func accountFromRow(kind AccountKind, row core.Row) (*Account, error) {
	switch kind {
	case KindTeacher:
		t, err := decodeTeacher(row)
		if err != nil {
			return nil, err
		}
		return &Account{Kind: kind, Teacher: &t}, nil
	default:
		usr, err := decodeUser(row)
		if err != nil {
			return nil, err
		}
		return &Account{Kind: kind, User: &usr}, nil
	}
}

// Logout clears the session locally.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// Current returns the session account, if any.
func (m *Manager) Current() (Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Account{}, false
	}
	return m.current.clone(), true
}

// Teachers returns a copy of the roster.
func (m *Manager) Teachers() []Teacher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	teachers := make([]Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		teachers = append(teachers, t.clone())
	}
	return teachers
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// AddTeacher creates a teacher account whose username is the lowercased display name.
func (m *Manager) AddTeacher(ctx context.Context, name, password string) (Teacher, error) {
	pwd, err := m.preparePassword(password)
	if err != nil {
		return Teacher{}, err
	}

	addedBy := DefaultAddedBy
	if acc, ok := m.Current(); ok {
		addedBy = acc.Identity().Username
	}

	username := strings.ToLower(name)
	if err := m.checkUsernameFree(ctx, username); err != nil {
		if errors.Cause(err) != ErrUsernameTaken {
			m.logError(err)
		}
		return Teacher{}, err
	}

	nt := Teacher{
		User: User{
			Username:     username,
			Password:     pwd,
			Role:         RoleTeacher,
			Name:         name,
			IsFirstLogin: true,
		},
		AddedBy:           addedBy,
		AttendanceHistory: []AttendanceEntry{},
	}

	row, err := m.remote.Insert(ctx, core.TableTeachers, teacherRow(nt))
	if err != nil {
		err = errors.Wrap(err, "adding teacher")
		m.logError(err)
		return Teacher{}, err
	}
	t, err := decodeTeacher(row)
	if err != nil {
		m.logError(err)
		return Teacher{}, err
	}

	m.mu.Lock()
	m.teachers = append(m.teachers, t)
	m.mu.Unlock()
	return t.clone(), nil
}

// checkUsernameFree fails with ErrUsernameTaken when any account kind already holds username.
func (m *Manager) checkUsernameFree(ctx context.Context, username string) error {
	m.mu.RLock()
	for _, t := range m.teachers {
		if t.Username == username {
			m.mu.RUnlock()
			return ErrUsernameTaken
		}
	}
	m.mu.RUnlock()

	for _, src := range identitySources {
		_, err := m.remote.Get(ctx, src.table, core.Eq("username", username))
		switch errors.Cause(err) {
		case nil:
			return ErrUsernameTaken
		case core.ErrNoRows:
		default:
			return errors.Wrapf(err, "checking %s usernames", src.table)
		}
	}
	return nil
}

func (m *Manager) DeleteTeacher(ctx context.Context, id string) error {
	if err := m.remote.Delete(ctx, core.TableTeachers, core.Eq(core.ColumnID, id)); err != nil {
		err = errors.Wrap(err, "deleting teacher")
		m.logError(err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	teachers := make([]Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		if t.ID != id {
			teachers = append(teachers, t)
		}
	}
	m.teachers = teachers
	return nil
}

// UpdateTeacherPassword sets a new password and clears the first-login flag,
// on the roster entry and on the session when it belongs to that teacher.
func (m *Manager) UpdateTeacherPassword(ctx context.Context, id, newPassword string) error {
	pwd, err := m.preparePassword(newPassword)
	if err != nil {
		return err
	}

	patch := core.Row{"password": pwd, "is_first_login": false}
	if err := m.remote.Update(ctx, core.TableTeachers, id, patch); err != nil {
		err = errors.Wrap(err, "updating teacher password")
		m.logError(err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teachers {
		if m.teachers[i].ID == id {
			m.teachers[i].Password = pwd
			m.teachers[i].IsFirstLogin = false
		}
	}
	if m.current != nil && m.current.Kind == KindTeacher && m.current.Teacher != nil && m.current.Teacher.ID == id {
		m.current.Teacher.Password = pwd
		m.current.Teacher.IsFirstLogin = false
	}
	return nil
}

func (m *Manager) preparePassword(password string) (string, error) {
	if !m.hashPasswords {
		return password, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// logError logs err along with the session account, when there is one.
func (m *Manager) logError(err error) {
	args := []interface{}{err}
	if acc, ok := m.Current(); ok {
		args = append(args, acc)
	}
	m.logger.Error(err.Error(), args...)
}
