package flow

import "context"

// Admin: админ-панель.
type Admin struct {
	passive
	admin
}

func (*Admin) Kind() Kind { return "admin" }

func (*Admin) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Адмін-панель",
		Rows: [][]Button{
			{{Label: "Нова пара", Token: "AddLesson"}, {Label: "Пари", Token: "Lessons"}},
			{{Label: "Чергування", Token: "Duty"}, {Label: "Дисципліни", Token: "Subjects"}},
			{{Label: "Користувачі", Token: "Users"}},
			backRow,
		},
	})
	return nil, nil
}

func (*Admin) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case "AddLesson":
		return &AddLessonDate{}, nil
	case "Lessons":
		return &LessonsDate{}, nil
	case "Duty":
		return &Duty{}, nil
	case "Subjects":
		return &Subjects{}, nil
	case "Users":
		return &Users{}, nil
	case tokBack:
		return &Home{}, nil
	}
	return nil, nil
}
