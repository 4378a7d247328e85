package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/group-duty-bot/internal/models"
)

func TestRegistration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.cmd(10, "register")
	h.expect(10, "registration")

	h.text(10, "/start")
	h.expect(10, "registration")

	h.text(10, "  шевченко  ")
	s := h.expect(10, "registration_confirm").(*RegistrationConfirm)
	if s.Surname != "Шевченко" {
		t.Fatalf("фамилия не нормализована: %q", s.Surname)
	}

	h.tap(10, tokYes)
	h.expect(10, "registration_success")

	u, err := h.store.UserByChannelID(ctx, 10)
	if err != nil || u == nil {
		t.Fatalf("пользователь не создан: %v", err)
	}
	if u.Surname != "Шевченко" || len(u.Roles) != 0 {
		t.Fatalf("неожиданный пользователь: %+v", u)
	}

	// без ролей главное меню закрыто
	h.cmd(10, "home")
	h.expect(10, "home_denied")

	// повторная регистрация не создаёт второго пользователя
	h.cmd(10, "register")
	h.expect(10, "already_registered")
	users, _ := h.store.ListUsers(ctx, nil)
	if len(users) != 1 {
		t.Fatalf("ожидали одного пользователя, получили %d", len(users))
	}
}

func TestRegistrationDeclined(t *testing.T) {
	h := newHarness(t)
	h.cmd(10, "register")
	h.text(10, "Шевченко")
	h.tap(10, tokNo)
	h.expect(10, "registration")

	if u, _ := h.store.UserByChannelID(context.Background(), 10); u != nil {
		t.Fatalf("пользователь создан после отказа: %+v", u)
	}
}

func TestStudentCannotOpenAdmin(t *testing.T) {
	h := newHarness(t)
	h.user("Антоненко", 10, models.Student)

	h.cmd(10, "home")
	h.tap(10, "Admin")

	h.expect(10, "access_denied")
	h.tap(10, tokBack)
	h.expect(10, "home")
}

func TestAdminCannotOpenSuperadmin(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	boss := h.user("Головко", 20, models.Superadmin)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Users")
	h.tap(10, idToken(boss.ID))

	h.expect(10, "access_denied")
}

func TestSuperadminTogglesRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Головко", 10, models.Superadmin)
	st := h.user("Бойко", 20)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Users")
	h.tap(10, idToken(st.ID))
	h.expect(10, "user")

	h.tap(10, string(models.Dutier))
	u, _ := h.store.UserByID(ctx, st.ID)
	if !u.Roles.Has(models.Dutier) {
		t.Fatalf("роль не выдана: %v", u.Roles)
	}

	h.tap(10, string(models.Dutier))
	u, _ = h.store.UserByID(ctx, st.ID)
	if u.Roles.Has(models.Dutier) {
		t.Fatalf("роль не снята: %v", u.Roles)
	}

	// суперадмин из карточки не выдаётся
	h.tap(10, string(models.Superadmin))
	u, _ = h.store.UserByID(ctx, st.ID)
	if u.Roles.Has(models.Superadmin) {
		t.Fatal("суперадмин выдан через карточку")
	}
}

func TestAddLessonAndToggleAttendance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Коваль", 10, models.Admin)
	a := h.user("Антоненко", 20, models.Student)
	b := h.user("Бойко", 30, models.Student)
	sub, _ := h.store.CreateSubject(ctx, "Математика")

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "AddLesson")
	h.tap(10, tokToday)
	h.tap(10, "2")
	h.tap(10, idToken(sub.ID))

	s := h.expect(10, "attendance").(*Attendance)
	lesson, _ := h.store.LessonAt(ctx, h.today(), 2)
	if lesson == nil || lesson.ID != s.LessonID || lesson.Subject.ID != sub.ID {
		t.Fatalf("пара не создана как ожидалось: %+v", lesson)
	}
	for _, u := range []*models.User{a, b} {
		att, _ := h.store.AttendanceOf(ctx, s.LessonID, u.ID)
		if att == nil || att.Status != models.Present {
			t.Fatalf("%s: ожидали present, получили %+v", u.Surname, att)
		}
	}

	for _, want := range []models.AttendanceStatus{models.Unpresent, models.FormalPresent, models.Present} {
		h.tap(10, idToken(a.ID))
		h.expect(10, "attendance")
		att, _ := h.store.AttendanceOf(ctx, s.LessonID, a.ID)
		if att.Status != want {
			t.Fatalf("ожидали %s, получили %s", want, att.Status)
		}
	}
	if att, _ := h.store.AttendanceOf(ctx, s.LessonID, b.ID); att.Status != models.Present {
		t.Fatalf("отметка соседа изменилась: %s", att.Status)
	}
}

func TestAddLessonByTypedDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Коваль", 10, models.Admin)
	st := h.user("Іваненко", 20, models.Student)
	h.user("Петренко", 30, models.Dutier)
	sub, _ := h.store.CreateSubject(ctx, "Фізика")

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "AddLesson")

	h.text(10, "31.02.2024")
	h.expect(10, "add_lesson_date")

	h.text(10, "01.03.2024")
	h.expect(10, "add_lesson_index")
	h.tap(10, "9")
	h.expect(10, "add_lesson_index")
	h.tap(10, "1")
	h.tap(10, idToken(sub.ID))

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, testLoc)
	l, _ := h.store.LessonAt(ctx, day, 1)
	if l == nil {
		t.Fatal("пара на 01.03.2024 не создана")
	}
	marks, _ := h.store.ListAttendance(ctx, l.ID)
	if len(marks) != 1 || marks[0].UserID != st.ID || marks[0].Status != models.Present {
		t.Fatalf("отметки получают только студенты, и все present: %+v", marks)
	}
}

func TestAutoDutySingleAttendee(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Коваль", 10, models.Admin)
	a := h.user("Антоненко", 20, models.Dutier)
	b := h.user("Бойко", 30, models.Dutier)
	sub, _ := h.store.CreateSubject(ctx, "Історія")
	l, _ := h.store.UpsertLesson(ctx, sub.ID, 1, h.today())
	_ = h.store.SetAttendance(ctx, l.ID, a.ID, models.Present)
	_ = h.store.SetAttendance(ctx, l.ID, b.ID, models.FormalPresent)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Duty")
	h.tap(10, "Auto")
	h.tap(10, "2")

	s := h.expect(10, "auto_duty_confirm").(*AutoDutyConfirm)
	if len(s.Dutiers) != 1 || s.Dutiers[0].ID != a.ID {
		t.Fatalf("ожидали одного Антоненко, получили %+v", s.Dutiers)
	}
}

// seedRotation: сегодня пары 1 и 3; на третьей присутствуют Антоненко, Бойко, Вакуленко.
// Антоненко дежурил 1 января, Вакуленко 5 января, Бойко ни разу. Гнатюк на третьей паре отсутствует.
func seedRotation(h *harness) (a, b, c, d *models.User) {
	h.t.Helper()
	ctx := context.Background()
	a = h.user("Антоненко", 20, models.Student, models.Dutier)
	b = h.user("Бойко", 30, models.Student, models.Dutier)
	c = h.user("Вакуленко", 40, models.Student, models.Dutier)
	d = h.user("Гнатюк", 50, models.Student, models.Dutier)
	sub, _ := h.store.CreateSubject(ctx, "Історія")

	first, _ := h.store.UpsertLesson(ctx, sub.ID, 1, h.today())
	last, _ := h.store.UpsertLesson(ctx, sub.ID, 3, h.today())
	for _, u := range []*models.User{a, b, c, d} {
		_ = h.store.SetAttendance(ctx, first.ID, u.ID, models.Present)
		st := models.Present
		if u == d {
			st = models.Unpresent
		}
		_ = h.store.SetAttendance(ctx, last.ID, u.ID, st)
	}

	for _, past := range []struct {
		u   *models.User
		day time.Time
	}{
		{a, time.Date(2024, 1, 1, 0, 0, 0, 0, testLoc)},
		{c, time.Date(2024, 1, 5, 0, 0, 0, 0, testLoc)},
	} {
		duty, _ := h.store.CreateDutyIfAbsent(ctx, past.day)
		_ = h.store.Assign(ctx, duty.ID, past.u.ID)
		_ = h.store.SetDutyStatus(ctx, duty.ID, models.DutyDone)
	}
	return a, b, c, d
}

func TestAutoDuty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Коваль", 10, models.Admin)
	a, b, _, _ := seedRotation(h)
	_ = h.store.AddGroup(ctx, -100)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Duty")
	h.tap(10, "Auto")
	h.tap(10, "2")

	s := h.expect(10, "auto_duty_confirm").(*AutoDutyConfirm)
	if len(s.Dutiers) != 2 || s.Dutiers[0].ID != b.ID || s.Dutiers[1].ID != a.ID {
		t.Fatalf("ожидали [Бойко Антоненко], получили %+v", s.Dutiers)
	}

	h.tap(10, tokConfirm)
	h.expect(10, "home")

	got := map[int64]string{}
	for _, n := range h.out.notes {
		got[n.chatID] = n.text
	}
	for _, id := range []int64{a.ChannelID, b.ChannelID, -100} {
		if _, ok := got[id]; !ok {
			t.Fatalf("чат %d не получил уведомление: %+v", id, h.out.notes)
		}
	}
	if !strings.Contains(got[-100], "Бойко") || !strings.Contains(got[-100], "Антоненко") {
		t.Fatalf("в группе нет списка чергових: %q", got[-100])
	}

	duty, _ := h.store.DutyByDate(ctx, h.today())
	if duty == nil {
		t.Fatal("чергування на сегодня не создано")
	}
	dutiers, _ := h.store.ListDutiers(ctx, duty.ID)
	if len(dutiers) != 2 {
		t.Fatalf("ожидали двух чергових, получили %+v", dutiers)
	}
}

func TestAutoDutyAmountIsClamped(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	seedRotation(h)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Duty")
	h.tap(10, "Auto")
	h.tap(10, "4")

	s := h.expect(10, "auto_duty_confirm").(*AutoDutyConfirm)
	if len(s.Dutiers) != 3 {
		t.Fatalf("ожидали трёх присутствующих, получили %+v", s.Dutiers)
	}
}

func TestAutoDutyWithoutLessons(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	h.user("Бойко", 30, models.Dutier)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Duty")
	h.tap(10, "Auto")
	h.tap(10, "1")

	h.expect(10, "no_duty_candidates")
	h.tap(10, tokBack)
	h.expect(10, "duty")
}

func TestAutoDutyNobodyAtLastLesson(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Коваль", 10, models.Admin)
	a := h.user("Антоненко", 20, models.Dutier)
	b := h.user("Бойко", 30, models.Dutier)
	st := h.user("Іваненко", 40, models.Student)
	sub, _ := h.store.CreateSubject(ctx, "Історія")
	first, _ := h.store.UpsertLesson(ctx, sub.ID, 1, h.today())
	last, _ := h.store.UpsertLesson(ctx, sub.ID, 3, h.today())
	_ = h.store.SetAttendance(ctx, first.ID, a.ID, models.Present)
	_ = h.store.SetAttendance(ctx, first.ID, b.ID, models.Present)
	_ = h.store.SetAttendance(ctx, last.ID, a.ID, models.Unpresent)
	_ = h.store.SetAttendance(ctx, last.ID, st.ID, models.Present)

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Duty")
	h.tap(10, "Auto")
	h.tap(10, "2")

	h.expect(10, "no_duty_candidates")
	if d, _ := h.store.DutyByDate(ctx, h.today()); d != nil {
		t.Fatalf("чергування не должно создаваться: %+v", d)
	}
}

func TestNonDutierLeavesDutyUndone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user("Антоненко", 20, models.Dutier)
	b := h.user("Бойко", 30, models.Dutier)
	h.user("Вакуленко", 40, models.Dutier)
	duty, _ := h.store.CreateDutyIfAbsent(ctx, h.today())
	_ = h.store.Assign(ctx, duty.ID, a.ID)
	_ = h.store.Assign(ctx, duty.ID, b.ID)

	h.cmd(40, "home")
	h.tap(40, "SaveDutyPhoto")
	h.expect(40, "not_dutier_today")

	// Бойко открыл отправку, но его сняли до того, как пришло фото
	h.cmd(30, "home")
	h.tap(30, "SaveDutyPhoto")
	h.expect(30, "submit_duty_photo")
	_ = h.store.Unassign(ctx, duty.ID, b.ID)
	h.photo(30, []byte("jpeg-b"))
	h.expect(30, "not_dutier_today")

	got, _ := h.store.DutyByID(ctx, duty.ID)
	if got.Status != models.DutyUndone {
		t.Fatalf("статус чергування изменился: %s", got.Status)
	}
	if p, _ := h.store.DutyPhotoByDuty(ctx, duty.ID); p != nil {
		t.Fatalf("фото сохранено от не-чергового: %+v", p)
	}
}

func TestDutyPhotoOnlyOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user("Антоненко", 20, models.Dutier)
	b := h.user("Бойко", 30, models.Dutier)
	h.user("Вакуленко", 40, models.Dutier)
	duty, _ := h.store.CreateDutyIfAbsent(ctx, h.today())
	_ = h.store.Assign(ctx, duty.ID, a.ID)
	_ = h.store.Assign(ctx, duty.ID, b.ID)

	// оба открыли отправку до того, как кто-то загрузил фото
	h.cmd(20, "home")
	h.tap(20, "SaveDutyPhoto")
	h.expect(20, "submit_duty_photo")
	h.cmd(30, "home")
	h.tap(30, "SaveDutyPhoto")
	h.expect(30, "submit_duty_photo")

	h.text(30, "ось")
	h.expect(30, "submit_duty_photo")

	h.photo(30, []byte("jpeg-b"))
	h.expect(30, "duty_photo_saved")

	got, _ := h.store.DutyByID(ctx, duty.ID)
	if got.Status != models.DutyDone {
		t.Fatalf("чергування не отмечено выполненным: %s", got.Status)
	}

	h.photo(20, []byte("jpeg-a"))
	h.expect(20, "photo_already_saved")

	photo, _ := h.store.DutyPhotoByDuty(ctx, duty.ID)
	if photo == nil || photo.UserID != b.ID || string(photo.Blob) != "jpeg-b" {
		t.Fatalf("сохранено не то фото: %+v", photo)
	}

	// не назначенный черговий сюда не попадает
	h.cmd(40, "home")
	h.tap(40, "SaveDutyPhoto")
	h.expect(40, "not_dutier_today")
}

func TestViewDutyPhoto(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.user("Антоненко", 20, models.Dutier)
	h.user("Бойко", 30, models.Student)
	duty, _ := h.store.CreateDutyIfAbsent(ctx, h.today())
	_ = h.store.Assign(ctx, duty.ID, a.ID)
	if _, _, err := h.store.AddDutyPhoto(ctx, duty.ID, a.ID, []byte("jpeg")); err != nil {
		t.Fatal(err)
	}

	h.cmd(30, "home")
	h.tap(30, "GetDutyPhoto")
	h.text(30, "03.03.2024")
	h.expect(30, "no_duty")

	h.tap(30, tokBack)
	h.tap(30, "GetDutyPhoto")
	h.tap(30, tokToday)
	h.expect(30, "show_duty_photo")
	if len(h.out.photos) != 1 || !strings.Contains(h.out.photos[0].text, "Антоненко") {
		t.Fatalf("фото не отправлено: %+v", h.out.photos)
	}
}

func TestPreviousDutyEditing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user("Коваль", 10, models.Admin)
	a := h.user("Антоненко", 20, models.Dutier)
	duty, _ := h.store.CreateDutyIfAbsent(ctx, h.today())

	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Duty")
	h.tap(10, "PreviousDuties")

	h.text(10, "01.01.2024")
	h.expect(10, "previous_duties")

	h.tap(10, tokToday)
	h.expect(10, "previous_duty")

	h.tap(10, tokStatus)
	if d, _ := h.store.DutyByID(ctx, duty.ID); d.Status != models.DutyDone {
		t.Fatalf("статус не переключён: %s", d.Status)
	}

	h.tap(10, "Dutiers")
	h.tap(10, idToken(a.ID))
	if ds, _ := h.store.ListDutiers(ctx, duty.ID); len(ds) != 1 || ds[0].ID != a.ID {
		t.Fatalf("черговий не назначен: %+v", ds)
	}
	h.tap(10, idToken(a.ID))
	if ds, _ := h.store.ListDutiers(ctx, duty.ID); len(ds) != 0 {
		t.Fatalf("черговий не снят: %+v", ds)
	}
}
