package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownKind: в хранилище лежит состояние, которого больше нет.
var ErrUnknownKind = errors.New("unknown state kind")

type envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// factories: полный список состояний. Новое состояние без записи здесь
// не сохранится: Encode откажет, а тест реестра упадёт.
var factories = []func() State{
	func() State { return &Welcome{} },
	func() State { return &Home{} },
	func() State { return &HomeDenied{} },
	func() State { return &AccessDenied{} },
	func() State { return &NotFound{} },

	func() State { return &Registration{} },
	func() State { return &AlreadyRegistered{} },
	func() State { return &RegistrationConfirm{} },
	func() State { return &RegistrationSuccess{} },

	func() State { return &SubmitDutyPhoto{} },
	func() State { return &NotDutierToday{} },
	func() State { return &PhotoAlreadySaved{} },
	func() State { return &DutyPhotoSaved{} },
	func() State { return &ViewDutyPhotoDate{} },
	func() State { return &ShowDutyPhoto{} },
	func() State { return &NoDuty{} },
	func() State { return &NoDutyPhoto{} },

	func() State { return &DutyHistoryFrom{} },
	func() State { return &DutyHistoryTo{} },
	func() State { return &MakeDutyHistory{} },
	func() State { return &MyAttendanceFrom{} },
	func() State { return &MyAttendanceTo{} },
	func() State { return &MakeMyAttendance{} },

	func() State { return &Admin{} },
	func() State { return &AddLessonDate{} },
	func() State { return &AddLessonIndex{} },
	func() State { return &AddLessonSubject{} },
	func() State { return &LessonsDate{} },
	func() State { return &Lessons{} },
	func() State { return &Lesson{} },
	func() State { return &LessonSetSubject{} },
	func() State { return &Attendance{} },

	func() State { return &Subjects{} },
	func() State { return &SubjectsAddName{} },
	func() State { return &Subject{} },
	func() State { return &SubjectRename{} },

	func() State { return &Users{} },
	func() State { return &User{} },
	func() State { return &UserChangeSurname{} },

	func() State { return &Duty{} },
	func() State { return &AutoDutyAmount{} },
	func() State { return &AutoDutySelect{} },
	func() State { return &NoDutyCandidates{} },
	func() State { return &AutoDutyConfirm{} },
	func() State { return &AutoDutyNotify{} },
	func() State { return &AutoDutySave{} },
	func() State { return &PreviousDuties{} },
	func() State { return &PreviousDuty{} },
	func() State { return &PreviousDutyDutiers{} },
}

var registry = func() map[Kind]func() State {
	m := make(map[Kind]func() State, len(factories))
	for _, f := range factories {
		k := f().Kind()
		if _, dup := m[k]; dup {
			panic("flow: duplicate state kind " + string(k))
		}
		m[k] = f
	}
	return m
}()

// Kinds: все зарегистрированные состояния, по алфавиту.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Encode сериализует состояние в {"kind": ..., "data": ...}.
func Encode(s State) ([]byte, error) {
	if _, ok := registry[s.Kind()]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, s.Kind())
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.Kind(), err)
	}
	if string(data) == "{}" {
		data = nil
	}
	return json.Marshal(envelope{Kind: s.Kind(), Data: data})
}

// Decode восстанавливает состояние. Неизвестный kind: ErrUnknownKind.
func Decode(b []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	f, ok := registry[env.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	s := f()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
	}
	return s, nil
}
