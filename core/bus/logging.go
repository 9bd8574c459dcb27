package bus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrymomot/mediator/core/logger"
)

// MaskedValue replaces sensitive payload fields in logged snapshots.
const MaskedValue = "[REDACTED]"

// sensitiveMarkers flag payload fields that must never reach a log line.
// Matching is case-insensitive substring on the field name.
var sensitiveMarkers = []string{"password", "secret", "token", "key", "credential"}

// loggingMiddleware emits structured events around each dispatch:
// "message dispatched" with a masked payload snapshot on entry,
// "message completed" with duration on success, "message failed" with
// duration, error type and message on error. Errors are re-returned
// unchanged.
type loggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates the observability middleware.
//
// Example:
//
//	cb := bus.NewCommandBus(
//	    bus.WithMiddleware(bus.NewLoggingMiddleware(log)),
//	)
func NewLoggingMiddleware(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}
	return &loggingMiddleware{logger: log}
}

func (m *loggingMiddleware) Handle(ctx context.Context, msg Message, next Next) (any, error) {
	m.logger.InfoContext(ctx, "message dispatched",
		slog.String("message", msg.Name),
		slog.String("kind", string(msg.Kind)),
		logger.ID("message_id", msg.ID),
		payloadSnapshot(msg.Payload),
	)

	start := time.Now()
	result, err := next(ctx)
	duration := time.Since(start)

	if err != nil {
		m.logger.ErrorContext(ctx, "message failed",
			slog.String("message", msg.Name),
			slog.String("kind", string(msg.Kind)),
			logger.ID("message_id", msg.ID),
			logger.Duration(duration),
			slog.String("error_type", fmt.Sprintf("%T", err)),
			logger.Error(err),
		)
		return nil, err
	}

	m.logger.InfoContext(ctx, "message completed",
		slog.String("message", msg.Name),
		slog.String("kind", string(msg.Kind)),
		logger.ID("message_id", msg.ID),
		logger.Duration(duration),
	)
	return result, nil
}

// payloadSnapshot renders the payload's exported fields as a "payload"
// group, masking any field whose name marks it as sensitive. Non-struct
// payloads are logged as a single value.
func payloadSnapshot(payload any) slog.Attr {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return slog.Any("payload", nil)
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return slog.Any("payload", payload)
	}

	t := v.Type()
	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if isSensitiveField(field.Name) {
			attrs = append(attrs, slog.String(field.Name, MaskedValue))
			continue
		}
		attrs = append(attrs, slog.Any(field.Name, v.Field(i).Interface()))
	}
	return logger.Group("payload", attrs...)
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
