/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * tenant, intake_id, action_request_id fields across all components.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey       contextKey = "request_id"
	tenantKey          contextKey = "tenant"
	intakeIDKey        contextKey = "intake_id"
	actionRequestIDKey contextKey = "action_request_id"
)

/* WithLogContext adds logging fields to context */
func WithLogContext(ctx context.Context, requestID, tenant string) context.Context {
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if tenant != "" {
		ctx = context.WithValue(ctx, tenantKey, tenant)
	}
	return ctx
}

/* WithTenantLogContext adds the tenant to log context */
func WithTenantLogContext(ctx context.Context, tenant string) context.Context {
	if tenant == "" {
		return ctx
	}
	return context.WithValue(ctx, tenantKey, tenant)
}

/* WithIntakeIDLogContext adds intake ID to log context */
func WithIntakeIDLogContext(ctx context.Context, intakeID int64) context.Context {
	return context.WithValue(ctx, intakeIDKey, intakeID)
}

/* WithActionRequestIDLogContext adds action request ID to log context */
func WithActionRequestIDLogContext(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actionRequestIDKey, id.String())
}

/* GetRequestIDFromContext gets request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetTenantFromContext gets tenant from context */
func GetTenantFromContext(ctx context.Context) string {
	if tenant, ok := ctx.Value(tenantKey).(string); ok {
		return tenant
	}
	return ""
}

/* GetIntakeIDFromContext gets intake ID from context */
func GetIntakeIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(intakeIDKey).(int64); ok {
		return id
	}
	return 0
}

/* GetActionRequestIDFromContext gets action request ID from context */
func GetActionRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actionRequestIDKey).(string); ok {
		return id
	}
	return ""
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := *zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		/* No logger attached to this context; use the process logger */
		logger = zlog.Logger
	}

	requestID := GetRequestIDFromContext(ctx)
	tenant := GetTenantFromContext(ctx)
	intakeID := GetIntakeIDFromContext(ctx)
	actionRequestID := GetActionRequestIDFromContext(ctx)

	if requestID != "" {
		logger = logger.With().Str("request_id", requestID).Logger()
	}
	if tenant != "" {
		logger = logger.With().Str("tenant", tenant).Logger()
	}
	if intakeID != 0 {
		logger = logger.With().Int64("intake_id", intakeID).Logger()
	}
	if actionRequestID != "" {
		logger = logger.With().Str("action_request_id", actionRequestID).Logger()
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
