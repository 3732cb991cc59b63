package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// LogAuditEvent records a write against a resource. There is no authenticated
// actor in this service, so the request correlation id stands in for one.
// resourceID may be empty when the write failed before an id existed.
func LogAuditEvent(
	ctx context.Context,
	action, resourceType, resourceID, result string,
	details map[string]any,
) {
	fields := []zap.Field{
		zap.String("audit.action", action),
		zap.String("audit.resource_type", resourceType),
		zap.String("audit.result", result),
	}
	if resourceID != "" {
		fields = append(fields, zap.String("audit.resource_id", resourceID))
	}
	if id := CorrelationID(ctx); id != "" {
		fields = append(fields, zap.String("audit.correlation_id", id))
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("audit.details", details))
	}
	LoggerFromContext(ctx).Info("audit event", fields...)
}
