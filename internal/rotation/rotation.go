// Package rotation выбирает дежурных на день: сначала те, кто ещё ни разу
// не дежурил, затем по давности последнего выполненного дежурства.
package rotation

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// Candidate: черговий, присутствовавший на последней паре дня.
type Candidate struct {
	User models.User
	// LastDone: дата последнего выполненного чергування; nil, если не было.
	LastDone *time.Time
}

// Order возвращает кандидатов в порядке очереди, не меняя исходный срез.
func Order(cs []Candidate) []Candidate {
	out := make([]Candidate, len(cs))
	copy(out, cs)

	col := collate.New(language.Ukrainian, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.LastDone == nil && b.LastDone != nil:
			return true
		case a.LastDone != nil && b.LastDone == nil:
			return false
		case a.LastDone != nil && b.LastDone != nil && !a.LastDone.Equal(*b.LastDone):
			return a.LastDone.Before(*b.LastDone)
		}
		if c := col.CompareString(a.User.Surname, b.User.Surname); c != 0 {
			return c < 0
		}
		return a.User.ID < b.User.ID
	})
	return out
}

// Select берёт первых n из очереди. n больше длины очереди урезается,
// n <= 0 даёт пустой список.
func Select(cs []Candidate, n int) []models.User {
	if n <= 0 || len(cs) == 0 {
		return nil
	}
	ordered := Order(cs)
	if n > len(ordered) {
		n = len(ordered)
	}
	out := make([]models.User, 0, n)
	for _, c := range ordered[:n] {
		out = append(out, c.User)
	}
	return out
}
