package logger

import "context"

type traceKey struct{}

// TraceContext captures identifiers of the acquisition run a log entry belongs to.
type TraceContext struct {
	RunID   string
	Version string
}

// ContextWithTrace returns a derived context carrying the provided trace metadata.
func ContextWithTrace(ctx context.Context, trace TraceContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceKey{}, trace)
}

// TraceFromContext extracts a TraceContext from ctx.
func TraceFromContext(ctx context.Context) TraceContext {
	if ctx == nil {
		return TraceContext{}
	}
	if trace, ok := ctx.Value(traceKey{}).(TraceContext); ok {
		return trace
	}
	return TraceContext{}
}

func traceFieldsFromContext(ctx context.Context) []Field {
	return TraceFromContext(ctx).fields()
}

func (t TraceContext) fields() []Field {
	var fields []Field
	if t.RunID != "" {
		fields = append(fields, String("run_id", t.RunID))
	}
	if t.Version != "" {
		fields = append(fields, String("version", t.Version))
	}
	return fields
}
