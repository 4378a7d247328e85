package flow

import (
	"context"
	"strings"
	"unicode/utf8"
)

const maxSubjectNameLen = 128

// splitSubjects разбирает "Математика, Фізика" в список непустых уникальных названий.
func splitSubjects(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.Join(strings.Fields(part), " ")
		if name == "" || utf8.RuneCountInString(name) > maxSubjectNameLen || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}

type Subjects struct {
	passive
	admin
}

func (*Subjects) Kind() Kind { return "subjects" }

func (*Subjects) OnEnter(ctx context.Context, t *Turn) (State, error) {
	subjects, err := t.Store.ListSubjects(ctx, false)
	if err != nil {
		return nil, unavailable("list subjects", err)
	}
	rows := make([][]Button, 0, len(subjects)+1)
	for _, sub := range subjects {
		rows = append(rows, []Button{{Label: glyph(sub.IsActive) + " " + sub.Name, Token: idToken(sub.ID)}})
	}
	rows = append(rows, []Button{{Label: "Додати", Token: tokAdd}, {Label: "Назад", Token: tokBack}})
	t.Show(ctx, Screen{Text: "Дисципліни", Rows: rows})
	return nil, nil
}

func (*Subjects) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case tokAdd:
		return &SubjectsAddName{}, nil
	case tokBack:
		return &Admin{}, nil
	}
	if id, ok := parseID(token); ok {
		return &Subject{SubjectID: id}, nil
	}
	return nil, nil
}

// SubjectsAddName: одно или несколько названий через запятую.
type SubjectsAddName struct {
	passive
	admin
}

func (*SubjectsAddName) Kind() Kind { return "subjects_add_name" }

func (*SubjectsAddName) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Введи назву дисципліни (можна кілька через кому)", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*SubjectsAddName) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	if isCancelText(m.Text) {
		return &Subjects{}, nil
	}
	names := splitSubjects(m.Text)
	if len(names) == 0 {
		t.Say(ctx, "Назва не може бути порожньою. Введи назву дисципліни")
		return nil, nil
	}
	for _, name := range names {
		if _, err := t.Store.CreateSubject(ctx, name); err != nil {
			return nil, unavailable("create subject", err)
		}
	}
	return &Subjects{}, nil
}

func (*SubjectsAddName) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Subjects{}, nil
	}
	return nil, nil
}

type Subject struct {
	passive
	admin
	SubjectID int64 `json:"subject_id"`
}

func (*Subject) Kind() Kind { return "subject" }

func (s *Subject) OnEnter(ctx context.Context, t *Turn) (State, error) {
	sub, err := t.Store.SubjectByID(ctx, s.SubjectID)
	if err != nil {
		return nil, unavailable("subject by id", err)
	}
	if sub == nil {
		return notFound(&Subjects{}), nil
	}
	t.Show(ctx, Screen{
		Text: "Вибери дію для " + sub.Name,
		Rows: [][]Button{
			{{Label: glyph(sub.IsActive), Token: tokStatus}, {Label: "✏️", Token: tokRename}},
			backRow,
		},
	})
	return nil, nil
}

func (s *Subject) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	switch token {
	case tokStatus:
		sub, err := t.Store.SubjectByID(ctx, s.SubjectID)
		if err != nil {
			return nil, unavailable("subject by id", err)
		}
		if sub == nil {
			return notFound(&Subjects{}), nil
		}
		if err := t.Store.SetSubjectActive(ctx, sub.ID, !sub.IsActive); err != nil {
			return nil, unavailable("set subject active", err)
		}
		return &Subject{SubjectID: s.SubjectID}, nil
	case tokRename:
		return &SubjectRename{SubjectID: s.SubjectID}, nil
	case tokBack:
		return &Subjects{}, nil
	}
	return nil, nil
}

type SubjectRename struct {
	passive
	admin
	SubjectID int64 `json:"subject_id"`
}

func (*SubjectRename) Kind() Kind { return "subject_rename" }

func (s *SubjectRename) OnEnter(ctx context.Context, t *Turn) (State, error) {
	sub, err := t.Store.SubjectByID(ctx, s.SubjectID)
	if err != nil {
		return nil, unavailable("subject by id", err)
	}
	if sub == nil {
		return notFound(&Subjects{}), nil
	}
	t.Show(ctx, Screen{Text: "Надішли нову назву для дисципліни " + sub.Name, Rows: [][]Button{backRow}})
	return nil, nil
}

func (s *SubjectRename) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	if isCancelText(m.Text) {
		return &Subject{SubjectID: s.SubjectID}, nil
	}
	name := strings.Join(strings.Fields(m.Text), " ")
	if name == "" || utf8.RuneCountInString(name) > maxSubjectNameLen {
		t.Say(ctx, "Некоректна назва. Надішли нову назву дисципліни")
		return nil, nil
	}
	if err := t.Store.RenameSubject(ctx, s.SubjectID, name); err != nil {
		return nil, unavailable("rename subject", err)
	}
	return &Subject{SubjectID: s.SubjectID}, nil
}

func (s *SubjectRename) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Subject{SubjectID: s.SubjectID}, nil
	}
	return nil, nil
}
