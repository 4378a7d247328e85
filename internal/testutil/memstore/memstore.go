// Package memstore держит доменное хранилище в памяти с теми же правилами,
// что и Postgres: уникальность слотов пар, upsert отметок, одно фото на чергування.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/group-duty-bot/internal/models"
	"github.com/Spok95/group-duty-bot/internal/rotation"
)

// ErrBroken возвращают все методы после Break: так тесты имитируют падение БД.
var ErrBroken = errors.New("memstore: broken")

type attKey struct{ lesson, user int64 }

type Store struct {
	mu     sync.Mutex
	broken bool
	seq    int64

	users       map[int64]*models.User
	subjects    map[int64]*models.Subject
	lessons     map[int64]*lessonRow
	attendance  map[attKey]models.AttendanceStatus
	duties      map[int64]*models.Duty
	assignments map[int64][]int64 // duty → users
	photos      map[int64]*models.DutyPhoto
	groups      []int64
}

type lessonRow struct {
	id, subjectID int64
	index         int
	date          time.Time
}

func New() *Store {
	return &Store{
		users:       make(map[int64]*models.User),
		subjects:    make(map[int64]*models.Subject),
		lessons:     make(map[int64]*lessonRow),
		attendance:  make(map[attKey]models.AttendanceStatus),
		duties:      make(map[int64]*models.Duty),
		assignments: make(map[int64][]int64),
		photos:      make(map[int64]*models.DutyPhoto),
	}
}

// Break переключает хранилище в режим отказа.
func (s *Store) Break(broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = broken
}

func (s *Store) begin() (func(), error) {
	s.mu.Lock()
	if s.broken {
		s.mu.Unlock()
		return nil, ErrBroken
	}
	return s.mu.Unlock, nil
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

// --- users ---

func (s *Store) UserByID(_ context.Context, id int64) (*models.User, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if u, ok := s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (s *Store) UserByChannelID(_ context.Context, channelID int64) (*models.User, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	for _, u := range s.users {
		if u.ChannelID == channelID {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) sortedUsers(keep func(*models.User) bool) []models.User {
	var out []models.User
	for _, u := range s.users {
		if keep(u) {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surname != out[j].Surname {
			return out[i].Surname < out[j].Surname
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListUsers(_ context.Context, role *models.Role) ([]models.User, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.sortedUsers(func(u *models.User) bool { return role == nil || u.Roles.Has(*role) }), nil
}

func (s *Store) CreateUser(_ context.Context, surname string, channelID int64) (*models.User, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	for _, u := range s.users {
		if u.ChannelID == channelID {
			return copyUser(u), nil
		}
	}
	u := &models.User{ID: s.next(), Surname: surname, ChannelID: channelID, Roles: models.Roles{}}
	s.users[u.ID] = u
	return copyUser(u), nil
}

func (s *Store) AddRole(_ context.Context, userID int64, role models.Role) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d not found", userID)
	}
	if !u.Roles.Has(role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

func (s *Store) RemoveRole(_ context.Context, userID int64, role models.Role) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if u, ok := s.users[userID]; ok {
		u.Roles = slices.DeleteFunc(u.Roles, func(r models.Role) bool { return r == role })
	}
	return nil
}

func (s *Store) SetSurname(_ context.Context, userID int64, surname string) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if u, ok := s.users[userID]; ok {
		u.Surname = surname
	}
	return nil
}

// --- subjects ---

func (s *Store) ListSubjects(_ context.Context, activeOnly bool) ([]models.Subject, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.Subject
	for _, sub := range s.subjects {
		if !activeOnly || sub.IsActive {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SubjectByID(_ context.Context, id int64) (*models.Subject, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if sub, ok := s.subjects[id]; ok {
		c := *sub
		return &c, nil
	}
	return nil, nil
}

func (s *Store) CreateSubject(_ context.Context, name string) (*models.Subject, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	sub := &models.Subject{ID: s.next(), Name: name, IsActive: true}
	s.subjects[sub.ID] = sub
	c := *sub
	return &c, nil
}

func (s *Store) SetSubjectActive(_ context.Context, id int64, active bool) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if sub, ok := s.subjects[id]; ok {
		sub.IsActive = active
	}
	return nil
}

func (s *Store) RenameSubject(_ context.Context, id int64, name string) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if sub, ok := s.subjects[id]; ok {
		sub.Name = name
	}
	return nil
}

// --- lessons ---

func (s *Store) lesson(r *lessonRow) models.Lesson {
	l := models.Lesson{ID: r.id, Index: r.index, Date: r.date}
	if sub, ok := s.subjects[r.subjectID]; ok {
		l.Subject = *sub
	}
	return l
}

func (s *Store) LessonByID(_ context.Context, id int64) (*models.Lesson, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if r, ok := s.lessons[id]; ok {
		l := s.lesson(r)
		return &l, nil
	}
	return nil, nil
}

func (s *Store) lessonAt(date time.Time, index int) *lessonRow {
	for _, r := range s.lessons {
		if r.index == index && sameDay(r.date, date) {
			return r
		}
	}
	return nil
}

func (s *Store) LessonAt(_ context.Context, date time.Time, index int) (*models.Lesson, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if r := s.lessonAt(date, index); r != nil {
		l := s.lesson(r)
		return &l, nil
	}
	return nil, nil
}

func (s *Store) ListLessons(_ context.Context, date time.Time) ([]models.Lesson, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.Lesson
	for _, r := range s.lessons {
		if sameDay(r.date, date) {
			out = append(out, s.lesson(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *Store) UpsertLesson(_ context.Context, subjectID int64, index int, date time.Time) (*models.Lesson, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if index < models.MinLessonIndex || index > models.MaxLessonIndex {
		return nil, fmt.Errorf("lesson index %d out of range", index)
	}
	r := s.lessonAt(date, index)
	if r == nil {
		r = &lessonRow{id: s.next(), index: index, date: models.Day(date)}
		s.lessons[r.id] = r
	}
	r.subjectID = subjectID
	l := s.lesson(r)
	return &l, nil
}

// --- attendance ---

func (s *Store) AttendanceOf(_ context.Context, lessonID, userID int64) (*models.Attendance, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	st, ok := s.attendance[attKey{lessonID, userID}]
	if !ok {
		return nil, nil
	}
	return &models.Attendance{LessonID: lessonID, UserID: userID, Status: st}, nil
}

func (s *Store) ListAttendance(_ context.Context, lessonID int64) ([]models.Attendance, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.Attendance
	for _, u := range s.sortedUsers(func(*models.User) bool { return true }) {
		if st, ok := s.attendance[attKey{lessonID, u.ID}]; ok {
			out = append(out, models.Attendance{LessonID: lessonID, UserID: u.ID, Status: st})
		}
	}
	return out, nil
}

func (s *Store) SetAttendance(_ context.Context, lessonID, userID int64, status models.AttendanceStatus) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if !status.Valid() {
		return fmt.Errorf("invalid attendance status %q", status)
	}
	s.attendance[attKey{lessonID, userID}] = status
	return nil
}

// --- duties ---

func (s *Store) DutyByID(_ context.Context, id int64) (*models.Duty, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if d, ok := s.duties[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, nil
}

func (s *Store) dutyByDate(date time.Time) *models.Duty {
	for _, d := range s.duties {
		if sameDay(d.Date, date) {
			return d
		}
	}
	return nil
}

func (s *Store) DutyByDate(_ context.Context, date time.Time) (*models.Duty, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if d := s.dutyByDate(date); d != nil {
		c := *d
		return &c, nil
	}
	return nil, nil
}

func (s *Store) CreateDutyIfAbsent(_ context.Context, date time.Time) (*models.Duty, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	d := s.dutyByDate(date)
	if d == nil {
		d = &models.Duty{ID: s.next(), Date: models.Day(date), Status: models.DutyUndone}
		s.duties[d.ID] = d
	}
	c := *d
	return &c, nil
}

func (s *Store) SetDutyStatus(_ context.Context, dutyID int64, status models.DutyStatus) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if d, ok := s.duties[dutyID]; ok {
		d.Status = status
	}
	return nil
}

func (s *Store) Assign(_ context.Context, dutyID, userID int64) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if !slices.Contains(s.assignments[dutyID], userID) {
		s.assignments[dutyID] = append(s.assignments[dutyID], userID)
	}
	return nil
}

func (s *Store) Unassign(_ context.Context, dutyID, userID int64) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	s.assignments[dutyID] = slices.DeleteFunc(s.assignments[dutyID], func(id int64) bool { return id == userID })
	return nil
}

func (s *Store) ListDutiers(_ context.Context, dutyID int64) ([]models.User, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	ids := s.assignments[dutyID]
	return s.sortedUsers(func(u *models.User) bool { return slices.Contains(ids, u.ID) }), nil
}

func (s *Store) DutyRotationCandidates(_ context.Context, date time.Time) ([]rotation.Candidate, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()

	var last *lessonRow
	for _, r := range s.lessons {
		if sameDay(r.date, date) && (last == nil || r.index > last.index) {
			last = r
		}
	}
	if last == nil {
		return nil, nil
	}

	var out []rotation.Candidate
	for _, u := range s.sortedUsers(func(u *models.User) bool { return u.Roles.Has(models.Dutier) }) {
		if s.attendance[attKey{last.id, u.ID}] != models.Present {
			continue
		}
		c := rotation.Candidate{User: u}
		for dutyID, ids := range s.assignments {
			d := s.duties[dutyID]
			if d == nil || d.Status != models.DutyDone || !slices.Contains(ids, u.ID) {
				continue
			}
			if c.LastDone == nil || d.Date.After(*c.LastDone) {
				dd := d.Date
				c.LastDone = &dd
			}
		}
		out = append(out, c)
	}
	return rotation.Order(out), nil
}

func (s *Store) AddDutyPhoto(_ context.Context, dutyID, userID int64, blob []byte) (*models.DutyPhoto, bool, error) {
	done, err := s.begin()
	if err != nil {
		return nil, false, err
	}
	defer done()
	for _, p := range s.photos {
		if p.DutyID == dutyID {
			c := *p
			return &c, false, nil
		}
	}
	p := &models.DutyPhoto{ID: s.next(), DutyID: dutyID, UserID: userID, Blob: slices.Clone(blob)}
	s.photos[p.ID] = p
	if d, ok := s.duties[dutyID]; ok {
		d.Status = models.DutyDone
	}
	c := *p
	return &c, true, nil
}

func (s *Store) DutyPhotoByID(_ context.Context, id int64) (*models.DutyPhoto, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if p, ok := s.photos[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (s *Store) DutyPhotoByDuty(_ context.Context, dutyID int64) (*models.DutyPhoto, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	for _, p := range s.photos {
		if p.DutyID == dutyID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

// --- groups ---

func (s *Store) ListGroups(_ context.Context) ([]models.Group, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	out := make([]models.Group, 0, len(s.groups))
	for _, id := range s.groups {
		out = append(out, models.Group{ChannelID: id})
	}
	return out, nil
}

func (s *Store) AddGroup(_ context.Context, channelID int64) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	if !slices.Contains(s.groups, channelID) {
		s.groups = append(s.groups, channelID)
	}
	return nil
}

func (s *Store) RemoveGroup(_ context.Context, channelID int64) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()
	s.groups = slices.DeleteFunc(s.groups, func(id int64) bool { return id == channelID })
	return nil
}
