package models

import "time"

const (
	MinLessonIndex = 1
	MaxLessonIndex = 8
)

type Subject struct {
	ID       int64
	Name     string
	IsActive bool
}

// Lesson: пара. Пара (Date, Index) уникальна: повторное добавление меняет дисциплину.
type Lesson struct {
	ID      int64
	Subject Subject
	Index   int
	Date    time.Time
}

type AttendanceStatus string

const (
	Present       AttendanceStatus = "present"
	Unpresent     AttendanceStatus = "unpresent"
	FormalPresent AttendanceStatus = "formal_present"
)

// Next: цикл отметки present → unpresent → formal_present → present.
func (s AttendanceStatus) Next() AttendanceStatus {
	switch s {
	case Present:
		return Unpresent
	case Unpresent:
		return FormalPresent
	default:
		return Present
	}
}

func (s AttendanceStatus) Glyph() string {
	switch s {
	case Present:
		return "🟢"
	case Unpresent:
		return "🔴"
	case FormalPresent:
		return "🟡"
	default:
		return "⚪"
	}
}

func (s AttendanceStatus) Valid() bool {
	return s == Present || s == Unpresent || s == FormalPresent
}

type Attendance struct {
	UserID   int64
	LessonID int64
	Status   AttendanceStatus
}
