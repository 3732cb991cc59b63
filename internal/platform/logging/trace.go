package logging

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceHeaderRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

var projectID atomic.Value

// SetProjectID sets the Google Cloud project used to build Cloud Trace
// resource names. An empty project disables trace correlation.
func SetProjectID(id string) {
	projectID.Store(id)
}

func currentProjectID() string {
	if v, ok := projectID.Load().(string); ok {
		return v
	}
	return ""
}

type traceContext struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(header string) (traceContext, bool) {
	m := traceHeaderRe.FindStringSubmatch(header)
	if len(m) != 5 {
		return traceContext{}, false
	}
	return traceContext{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

// loggerWithTrace derives a request logger. The returned correlation id is the
// Cloud Trace resource when available, otherwise the request id.
func loggerWithTrace(base *zap.Logger, header, project, requestID string) (*zap.Logger, string) {
	if base == nil {
		base = zap.NewNop()
	}
	var fields []zap.Field
	correlation := requestID
	if tc, ok := parseTraceparent(header); ok && project != "" {
		resource := fmt.Sprintf("projects/%s/traces/%s", project, tc.traceID)
		correlation = resource
		fields = append(fields,
			zap.String("logging.googleapis.com/trace", resource),
			zap.String("logging.googleapis.com/spanId", tc.spanID),
			zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
		)
	}
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base, correlation
	}
	return base.With(fields...), correlation
}
