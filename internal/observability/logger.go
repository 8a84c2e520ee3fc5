package observability

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gabrielpaulo/atrium-booking/internal/config"
)

// Logger is the logging surface the booking services depend on. Entries are
// JSON and always carry the service tag; request-scoped fields (request_id,
// hold_id, resource_id) are attached via WithField at the call site.
type Logger interface {
	Info(args ...interface{})
	Error(args ...interface{})
	Debug(args ...interface{})
	Warn(args ...interface{})
	WithField(key string, value interface{}) Logger
}

type logrusLogger struct {
	logger *logrus.Logger
	entry  *logrus.Entry
}

// NewLogger builds the service logger at the configured level. Unparseable
// levels fall back to logrus's default (info) rather than failing startup.
func NewLogger(cfg *config.Config) Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return &logrusLogger{logger: log, entry: log.WithField("service", "atrium-booking")}
}

func (l *logrusLogger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l *logrusLogger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

func (l *logrusLogger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

func (l *logrusLogger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{logger: l.logger, entry: l.entry.WithField(key, value)}
}
