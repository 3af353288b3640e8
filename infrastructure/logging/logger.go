// Package logging provides structured logging with request/actor context.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys carrying logging fields.
type ContextKey string

const (
	// RequestIDKey is the context key for the request id.
	RequestIDKey ContextKey = "request_id"
	// ActorKey is the context key for the authenticated actor's username.
	ActorKey ContextKey = "actor"
	// DepartmentKey is the context key for the department scope of a request.
	DepartmentKey ContextKey = "department"
)

// Logger wraps logrus.Logger with service-wide defaults.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a Logger for the named service. format is "json" or "text";
// level parses via logrus.ParseLevel and defaults to info on error.
func New(service, level, format string) *Logger {
	base := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	base.SetLevel(parsed)

	if strings.EqualFold(format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}
	base.SetOutput(os.Stdout)

	return &Logger{Logger: base, service: service}
}

// WithContext attaches request-id/actor/department fields found on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.WithField("service", l.service)
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		entry = entry.WithField("request_id", v)
	}
	if v, ok := ctx.Value(ActorKey).(string); ok && v != "" {
		entry = entry.WithField("actor", v)
	}
	if v, ok := ctx.Value(DepartmentKey).(string); ok && v != "" {
		entry = entry.WithField("department", v)
	}
	return entry
}
