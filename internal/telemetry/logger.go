package telemetry

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// InitLogger initializes the logger with the given configuration
func InitLogger(cfg *Config) error {
	loggerOnce.Do(func() {
		l := logrus.New()

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		l.SetLevel(level)

		if cfg.LogFormat == "text" {
			l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			l.SetFormatter(&logrus.JSONFormatter{
				TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
				FieldMap: logrus.FieldMap{
					logrus.FieldKeyTime:  "@timestamp",
					logrus.FieldKeyLevel: "level",
					logrus.FieldKeyMsg:   "message",
				},
			})
		}

		l.AddHook(&serviceHook{fields: logrus.Fields{
			"service.name":    cfg.ServiceName,
			"service.version": cfg.ServiceVersion,
			"environment":     cfg.Environment,
		}})

		logger = l
	})
	return nil
}

// serviceHook stamps every entry with the service identity.
type serviceHook struct {
	fields logrus.Fields
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}

// L returns the global logger instance
func L() *logrus.Logger {
	if logger == nil {
		// Return a default logger if not initialized
		return logrus.StandardLogger()
	}
	return logger
}

// WithContext adds trace information to the logger
func WithContext(ctx context.Context) *logrus.Entry {
	return EntryWithContext(L(), ctx)
}

// EntryWithContext is WithContext for an explicit logger.
func EntryWithContext(l *logrus.Logger, ctx context.Context) *logrus.Entry {
	entry := l.WithContext(ctx)

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		entry = entry.WithFields(logrus.Fields{
			"trace.id": span.SpanContext().TraceID().String(),
			"span.id":  span.SpanContext().SpanID().String(),
		})
	}

	return entry
}

// WithFields adds fields to the logger
func WithFields(fields logrus.Fields) *logrus.Entry {
	return L().WithFields(fields)
}

// WithError adds an error to the logger
func WithError(err error) *logrus.Entry {
	return L().WithError(err)
}
