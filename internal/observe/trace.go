package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the tutor tracer.
const tracerName = "github.com/MrWong99/tutor"

// Span and log attribute keys of the conversation scope.
const (
	AttrSubjectID = "tutor.subject_id"
	AttrChapterID = "tutor.chapter_id"
)

// Tracer returns the tutor [trace.Tracer] from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

type chapterKey struct{}

type chapterScope struct {
	subjectID, chapterID int64
}

// WithChapter annotates ctx with the subject and chapter a request belongs
// to. [StartSpan] and [Logger] pick the annotation up. A zero subjectID is
// omitted.
func WithChapter(ctx context.Context, subjectID, chapterID int64) context.Context {
	return context.WithValue(ctx, chapterKey{}, chapterScope{subjectID: subjectID, chapterID: chapterID})
}

// ChapterFrom returns the annotation set by [WithChapter].
func ChapterFrom(ctx context.Context) (subjectID, chapterID int64, ok bool) {
	s, ok := ctx.Value(chapterKey{}).(chapterScope)
	return s.subjectID, s.chapterID, ok
}

func chapterAttrs(ctx context.Context) []attribute.KeyValue {
	subjectID, chapterID, ok := ChapterFrom(ctx)
	if !ok {
		return nil
	}
	attrs := []attribute.KeyValue{attribute.Int64(AttrChapterID, chapterID)}
	if subjectID != 0 {
		attrs = append(attrs, attribute.Int64(AttrSubjectID, subjectID))
	}
	return attrs
}

// StartSpan starts a span carrying the chapter annotation of ctx. The caller
// must call span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if attrs := chapterAttrs(ctx); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID returns the trace ID of the span in ctx, or "".
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id, span_id and the chapter
// annotation of ctx attached, as far as they are present.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if subjectID, chapterID, ok := ChapterFrom(ctx); ok {
		if subjectID != 0 {
			l = l.With(slog.Int64("subject_id", subjectID))
		}
		l = l.With(slog.Int64("chapter_id", chapterID))
	}
	return l
}
