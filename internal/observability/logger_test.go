package observability

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/gabrielpaulo/atrium-booking/internal/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("honors the configured level", func(t *testing.T) {
		l := NewLogger(&config.Config{LogLevel: "debug"}).(*logrusLogger)
		if l.logger.GetLevel() != logrus.DebugLevel {
			t.Fatalf("expected debug level, got %v", l.logger.GetLevel())
		}
	})

	t.Run("bad level keeps the default", func(t *testing.T) {
		l := NewLogger(&config.Config{LogLevel: "shouting"}).(*logrusLogger)
		if l.logger.GetLevel() != logrus.InfoLevel {
			t.Fatalf("expected info level, got %v", l.logger.GetLevel())
		}
	})

	t.Run("every entry carries the service tag", func(t *testing.T) {
		l := NewLogger(&config.Config{LogLevel: "info"})
		scoped := l.WithField("request_id", "req-1").(*logrusLogger)
		if scoped.entry.Data["service"] != "atrium-booking" {
			t.Fatalf("missing service field: %v", scoped.entry.Data)
		}
		if scoped.entry.Data["request_id"] != "req-1" {
			t.Fatalf("missing request_id field: %v", scoped.entry.Data)
		}
	})
}
