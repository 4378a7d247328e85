package flow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// AddLessonDate: первый шаг добавления пары: дата текстом или "Сьогодні".
type AddLessonDate struct {
	passive
	admin
}

func (*AddLessonDate) Kind() Kind { return "add_lesson_date" }

func (*AddLessonDate) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Надішли дату\n" + dateHint,
		Rows: [][]Button{{{Label: "Сьогодні", Token: tokToday}}, backRow},
	})
	return nil, nil
}

func (*AddLessonDate) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	return askDate(ctx, t, m, func(d time.Time) State { return &AddLessonIndex{Date: d} })
}

func (*AddLessonDate) OnCallback(_ context.Context, t *Turn, token string) (State, error) {
	switch token {
	case tokToday:
		return &AddLessonIndex{Date: t.Today()}, nil
	case tokBack:
		return &Admin{}, nil
	}
	return nil, nil
}

type AddLessonIndex struct {
	passive
	admin
	Date time.Time `json:"date"`
}

func (*AddLessonIndex) Kind() Kind { return "add_lesson_index" }

func (s *AddLessonIndex) OnEnter(ctx context.Context, t *Turn) (State, error) {
	var rows [][]Button
	var row []Button
	for i := models.MinLessonIndex; i <= models.MaxLessonIndex; i++ {
		row = append(row, Button{Label: strconv.Itoa(i), Token: strconv.Itoa(i)})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	rows = append(rows, backRow)
	t.Show(ctx, Screen{Text: "Вибери номер пари на " + models.FormatDate(s.Date), Rows: rows})
	return nil, nil
}

func (s *AddLessonIndex) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &AddLessonDate{}, nil
	}
	idx, err := strconv.Atoi(token)
	if err != nil || idx < models.MinLessonIndex || idx > models.MaxLessonIndex {
		return nil, nil
	}
	return &AddLessonSubject{Date: s.Date, Index: idx}, nil
}

// subjectRows: активные дисциплины кнопками по одной в ряд.
func subjectRows(ctx context.Context, t *Turn) ([][]Button, error) {
	subjects, err := t.Store.ListSubjects(ctx, true)
	if err != nil {
		return nil, unavailable("list subjects", err)
	}
	rows := make([][]Button, 0, len(subjects)+1)
	for _, sub := range subjects {
		rows = append(rows, []Button{{Label: sub.Name, Token: idToken(sub.ID)}})
	}
	return append(rows, backRow), nil
}

// pickSubject разбирает токен выбранной дисциплины; неактивные и исчезнувшие не принимаются.
func pickSubject(ctx context.Context, t *Turn, token string) (*models.Subject, error) {
	id, ok := parseID(token)
	if !ok {
		return nil, nil
	}
	sub, err := t.Store.SubjectByID(ctx, id)
	if err != nil {
		return nil, unavailable("subject by id", err)
	}
	if sub == nil || !sub.IsActive {
		return nil, nil
	}
	return sub, nil
}

// AddLessonSubject создаёт пару и отмечает всех студентов присутствующими.
type AddLessonSubject struct {
	passive
	admin
	Date  time.Time `json:"date"`
	Index int       `json:"index"`
}

func (*AddLessonSubject) Kind() Kind { return "add_lesson_subject" }

func (s *AddLessonSubject) OnEnter(ctx context.Context, t *Turn) (State, error) {
	rows, err := subjectRows(ctx, t)
	if err != nil {
		return nil, err
	}
	t.Show(ctx, Screen{Text: fmt.Sprintf("%s, %d пара\nВибери дисципліну", models.FormatDate(s.Date), s.Index), Rows: rows})
	return nil, nil
}

func (s *AddLessonSubject) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	if token == tokBack {
		return &AddLessonIndex{Date: s.Date}, nil
	}
	sub, err := pickSubject(ctx, t, token)
	if err != nil || sub == nil {
		return nil, err
	}
	lesson, err := t.Store.UpsertLesson(ctx, sub.ID, s.Index, s.Date)
	if err != nil {
		return nil, unavailable("upsert lesson", err)
	}
	student := models.Student
	students, err := t.Store.ListUsers(ctx, &student)
	if err != nil {
		return nil, unavailable("list students", err)
	}
	for i, st := range students {
		if err := t.Store.SetAttendance(ctx, lesson.ID, st.ID, models.Present); err != nil {
			t.Log.Error("default attendance interrupted",
				zap.Int64("lesson_id", lesson.ID), zap.Int("done", i), zap.Int("total", len(students)))
			return nil, unavailable("default attendance", err)
		}
	}
	return &Attendance{LessonID: lesson.ID}, nil
}

// LessonsDate: дата, за которую показать пары.
type LessonsDate struct {
	passive
	admin
}

func (*LessonsDate) Kind() Kind { return "lessons_date" }

func (*LessonsDate) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Надішли дату\n" + dateHint,
		Rows: [][]Button{{{Label: "Сьогодні", Token: tokToday}}, backRow},
	})
	return nil, nil
}

func (*LessonsDate) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	return askDate(ctx, t, m, func(d time.Time) State { return &Lessons{Date: d} })
}

func (*LessonsDate) OnCallback(_ context.Context, t *Turn, token string) (State, error) {
	switch token {
	case tokToday:
		return &Lessons{Date: t.Today()}, nil
	case tokBack:
		return &Admin{}, nil
	}
	return nil, nil
}

type Lessons struct {
	passive
	admin
	Date time.Time `json:"date"`
}

func (*Lessons) Kind() Kind { return "lessons" }

func (s *Lessons) OnEnter(ctx context.Context, t *Turn) (State, error) {
	lessons, err := t.Store.ListLessons(ctx, s.Date)
	if err != nil {
		return nil, unavailable("list lessons", err)
	}
	text := "Пари за " + models.FormatDate(s.Date)
	if len(lessons) == 0 {
		text += "\nПар немає"
	}
	rows := make([][]Button, 0, len(lessons)+1)
	for _, l := range lessons {
		rows = append(rows, []Button{{Label: fmt.Sprintf("%d. %s", l.Index, l.Subject.Name), Token: idToken(l.ID)}})
	}
	t.Show(ctx, Screen{Text: text, Rows: append(rows, backRow)})
	return nil, nil
}

func (*Lessons) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &LessonsDate{}, nil
	}
	if id, ok := parseID(token); ok {
		return &Lesson{LessonID: id}, nil
	}
	return nil, nil
}

type Lesson struct {
	passive
	admin
	LessonID int64 `json:"lesson_id"`
}

func (*Lesson) Kind() Kind { return "lesson" }

func lessonTitle(l *models.Lesson) string {
	return fmt.Sprintf("%s, %d. %s", models.FormatDate(l.Date), l.Index, l.Subject.Name)
}

func (s *Lesson) OnEnter(ctx context.Context, t *Turn) (State, error) {
	l, err := t.Store.LessonByID(ctx, s.LessonID)
	if err != nil {
		return nil, unavailable("lesson by id", err)
	}
	if l == nil {
		return notFound(&LessonsDate{}), nil
	}
	t.Show(ctx, Screen{
		Text: lessonTitle(l),
		Rows: [][]Button{
			{{Label: "Змінити дисципліну", Token: "SetSubject"}, {Label: "Присутні", Token: "Attendance"}},
			backRow,
		},
	})
	return nil, nil
}

func (s *Lesson) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	switch token {
	case "SetSubject":
		return &LessonSetSubject{LessonID: s.LessonID}, nil
	case "Attendance":
		return &Attendance{LessonID: s.LessonID}, nil
	case tokBack:
		l, err := t.Store.LessonByID(ctx, s.LessonID)
		if err != nil {
			return nil, unavailable("lesson by id", err)
		}
		if l == nil {
			return &LessonsDate{}, nil
		}
		return &Lessons{Date: l.Date}, nil
	}
	return nil, nil
}

// LessonSetSubject меняет дисциплину пары; отметки не трогает.
type LessonSetSubject struct {
	passive
	admin
	LessonID int64 `json:"lesson_id"`
}

func (*LessonSetSubject) Kind() Kind { return "lesson_set_subject" }

func (s *LessonSetSubject) OnEnter(ctx context.Context, t *Turn) (State, error) {
	rows, err := subjectRows(ctx, t)
	if err != nil {
		return nil, err
	}
	t.Show(ctx, Screen{Text: "Вибери дисципліну", Rows: rows})
	return nil, nil
}

func (s *LessonSetSubject) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	if token == tokBack {
		return &Lesson{LessonID: s.LessonID}, nil
	}
	sub, err := pickSubject(ctx, t, token)
	if err != nil || sub == nil {
		return nil, err
	}
	l, err := t.Store.LessonByID(ctx, s.LessonID)
	if err != nil {
		return nil, unavailable("lesson by id", err)
	}
	if l == nil {
		return notFound(&LessonsDate{}), nil
	}
	if _, err := t.Store.UpsertLesson(ctx, sub.ID, l.Index, l.Date); err != nil {
		return nil, unavailable("upsert lesson", err)
	}
	return &Lesson{LessonID: s.LessonID}, nil
}

// Attendance: отметки пары; нажатие на студента переключает статус по кругу.
type Attendance struct {
	passive
	admin
	LessonID int64 `json:"lesson_id"`
}

func (*Attendance) Kind() Kind { return "attendance" }

func (s *Attendance) OnEnter(ctx context.Context, t *Turn) (State, error) {
	l, err := t.Store.LessonByID(ctx, s.LessonID)
	if err != nil {
		return nil, unavailable("lesson by id", err)
	}
	if l == nil {
		return notFound(&LessonsDate{}), nil
	}
	marks, err := t.Store.ListAttendance(ctx, s.LessonID)
	if err != nil {
		return nil, unavailable("list attendance", err)
	}
	rows := make([][]Button, 0, len(marks)+1)
	for _, a := range marks {
		u, err := t.Store.UserByID(ctx, a.UserID)
		if err != nil {
			return nil, unavailable("attendance user", err)
		}
		if u == nil {
			continue
		}
		rows = append(rows, []Button{{Label: a.Status.Glyph() + " " + u.Surname, Token: idToken(a.UserID)}})
	}
	t.Show(ctx, Screen{Text: "Присутні на " + lessonTitle(l), Rows: append(rows, backRow)})
	return nil, nil
}

func (s *Attendance) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	if token == tokBack {
		return &Lesson{LessonID: s.LessonID}, nil
	}
	userID, ok := parseID(token)
	if !ok {
		return nil, nil
	}
	cur, err := t.Store.AttendanceOf(ctx, s.LessonID, userID)
	if err != nil {
		return nil, unavailable("attendance of", err)
	}
	if cur == nil {
		// отметку удалили между ходами: просто перерисовываем список
		return &Attendance{LessonID: s.LessonID}, nil
	}
	if err := t.Store.SetAttendance(ctx, s.LessonID, userID, cur.Status.Next()); err != nil {
		return nil, unavailable("set attendance", err)
	}
	return &Attendance{LessonID: s.LessonID}, nil
}
