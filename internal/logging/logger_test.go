package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestInitLevel(t *testing.T) {
	cases := []struct {
		level string
		want  zap.AtomicLevel
	}{
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"WARN", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"nonsense", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}
	for _, c := range cases {
		t.Run(c.level, func(t *testing.T) {
			l, err := Init(c.level, "prod", "v1")
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			if l.Level.Level() != c.want.Level() {
				t.Fatalf("ожидали %s, получили %s", c.want.Level(), l.Level.Level())
			}
			if l.Component("jobs") == nil {
				t.Fatal("Component вернул nil")
			}
		})
	}
}
