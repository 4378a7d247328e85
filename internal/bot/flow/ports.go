package flow

import (
	"context"
	"time"

	"github.com/Spok95/group-duty-bot/internal/models"
	"github.com/Spok95/group-duty-bot/internal/rotation"
)

// Store: доменное хранилище. Отсутствующая сущность возвращается как (nil, nil),
// любая ошибка считается недоступностью хранилища.
type Store interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByChannelID(ctx context.Context, channelID int64) (*models.User, error)
	// ListUsers: по фамилии; role == nil значит все пользователи.
	ListUsers(ctx context.Context, role *models.Role) ([]models.User, error)
	CreateUser(ctx context.Context, surname string, channelID int64) (*models.User, error)
	AddRole(ctx context.Context, userID int64, role models.Role) error
	RemoveRole(ctx context.Context, userID int64, role models.Role) error
	SetSurname(ctx context.Context, userID int64, surname string) error

	ListSubjects(ctx context.Context, activeOnly bool) ([]models.Subject, error)
	SubjectByID(ctx context.Context, id int64) (*models.Subject, error)
	CreateSubject(ctx context.Context, name string) (*models.Subject, error)
	SetSubjectActive(ctx context.Context, id int64, active bool) error
	RenameSubject(ctx context.Context, id int64, name string) error

	LessonByID(ctx context.Context, id int64) (*models.Lesson, error)
	LessonAt(ctx context.Context, date time.Time, index int) (*models.Lesson, error)
	ListLessons(ctx context.Context, date time.Time) ([]models.Lesson, error)
	UpsertLesson(ctx context.Context, subjectID int64, index int, date time.Time) (*models.Lesson, error)

	AttendanceOf(ctx context.Context, lessonID, userID int64) (*models.Attendance, error)
	ListAttendance(ctx context.Context, lessonID int64) ([]models.Attendance, error)
	SetAttendance(ctx context.Context, lessonID, userID int64, status models.AttendanceStatus) error

	DutyByID(ctx context.Context, id int64) (*models.Duty, error)
	DutyByDate(ctx context.Context, date time.Time) (*models.Duty, error)
	CreateDutyIfAbsent(ctx context.Context, date time.Time) (*models.Duty, error)
	SetDutyStatus(ctx context.Context, dutyID int64, status models.DutyStatus) error
	Assign(ctx context.Context, dutyID, userID int64) error
	Unassign(ctx context.Context, dutyID, userID int64) error
	ListDutiers(ctx context.Context, dutyID int64) ([]models.User, error)
	// DutyRotationCandidates: черговые, отмеченные present на последней паре дня.
	DutyRotationCandidates(ctx context.Context, date time.Time) ([]rotation.Candidate, error)
	// AddDutyPhoto сохраняет фото и отмечает чергування выполненным.
	// added=false, если фото у чергування уже есть.
	AddDutyPhoto(ctx context.Context, dutyID, userID int64, blob []byte) (*models.DutyPhoto, bool, error)
	DutyPhotoByID(ctx context.Context, id int64) (*models.DutyPhoto, error)
	DutyPhotoByDuty(ctx context.Context, dutyID int64) (*models.DutyPhoto, error)

	ListGroups(ctx context.Context) ([]models.Group, error)
	AddGroup(ctx context.Context, channelID int64) error
	RemoveGroup(ctx context.Context, channelID int64) error
}

// StateStore: сохранённое состояние диалога по chat id. Состояние хранится закодированным.
type StateStore interface {
	Load(ctx context.Context, chatID int64) ([]byte, bool, error)
	Save(ctx context.Context, chatID int64, payload []byte) error
	Delete(ctx context.Context, chatID int64) error
}

// Button: inline-кнопка; Token возвращается в OnCallback.
type Button struct {
	Label string
	Token string
}

// Screen: текст с клавиатурой.
type Screen struct {
	Text string
	Rows [][]Button
}

// Messenger: канал доставки. editMessageID != 0 просит отредактировать
// сообщение с нажатой кнопкой вместо отправки нового.
type Messenger interface {
	Show(ctx context.Context, chatID int64, editMessageID int, s Screen) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, rows [][]Button) error
	Notify(ctx context.Context, chatID int64, text string) error
	Ack(ctx context.Context, callbackID string) error
}
