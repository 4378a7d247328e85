package flow

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRegistryCoversEveryState(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != len(factories) {
		t.Fatalf("в реестре %d видов, фабрик %d", len(kinds), len(factories))
	}
	for _, k := range kinds {
		t.Run(string(k), func(t *testing.T) {
			b, err := Encode(registry[k]())
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			s, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode(%s): %v", b, err)
			}
			if s.Kind() != k {
				t.Fatalf("ожидали %s, получили %s", k, s.Kind())
			}
		})
	}
}

func TestCodecKeepsData(t *testing.T) {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, testLoc)
	cases := []State{
		&AddLessonSubject{Date: date, Index: 3},
		&AutoDutyConfirm{Dutiers: []Dutier{{ID: 2, Surname: "Бойко", ChannelID: 20}, {ID: 1, Surname: "Антоненко", ChannelID: 10}}},
		&RegistrationConfirm{Surname: "Шевченко"},
		&NotFound{To: (&Users{}).Kind()},
		&DutyHistoryTo{From: date},
	}
	for _, in := range cases {
		t.Run(string(in.Kind()), func(t *testing.T) {
			b, err := Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(normalize(in), normalize(out)) {
				t.Fatalf("данные потерялись: было %+v, стало %+v", in, out)
			}
		})
	}
}

// normalize убирает зону из дат: после JSON остаётся смещение, а не *time.Location.
func normalize(s State) State {
	switch v := s.(type) {
	case *AddLessonSubject:
		c := *v
		c.Date = c.Date.UTC()
		return &c
	case *DutyHistoryTo:
		c := *v
		c.From = c.From.UTC()
		return &c
	}
	return s
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"consultation_slot","data":{"id":1}}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("ожидали ErrUnknownKind, получили %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("ожидали ошибку для мусора")
	}
}
