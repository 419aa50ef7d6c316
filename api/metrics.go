package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "github.com/tang-isab/swimlane-chart/api"
	dataSpanName     = "board.data.request"
	dataEventName    = "data.request.metrics"
	dataEventDomain  = "board"
	observabilityMsg = "observability.event"
)

type dataRequestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	method        string
	start         time.Time
	authDuration  time.Duration
	storeDuration time.Duration
	subject       string
	lanes         int
	tasks         int
	errorStage    string
}

func newDataRequestMetrics(ctx context.Context, logger *log.Logger, method string) (*dataRequestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, dataSpanName, trace.WithSpanKind(trace.SpanKindServer))
	return &dataRequestMetrics{
		logger: logger,
		span:   span,
		method: method,
		start:  time.Now(),
	}, ctx
}

func (m *dataRequestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *dataRequestMetrics) ObserveStore(d time.Duration) {
	if d > 0 {
		m.storeDuration = d
	}
}

func (m *dataRequestMetrics) SetSubject(sub string) { m.subject = sub }

func (m *dataRequestMetrics) SetBoardSize(lanes, tasks int) {
	m.lanes = max(lanes, 0)
	m.tasks = max(tasks, 0)
}

func (m *dataRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the span and writes one structured entry for the request.
func (m *dataRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	attrs := m.attributes(status)
	severityText, severityNumber := severityForStatus(status, err)

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", dataEventName),
			attribute.String("event.domain", dataEventDomain),
			attribute.String("severity_text", severityText),
		}, attrs...)
		if err != nil {
			eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
			m.span.RecordError(err)
		}
		m.span.AddEvent(observabilityMsg, trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      dataEventName,
		"event.domain":    dataEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attributesToFields(attrs),
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info(observabilityMsg)
}

func (m *dataRequestMetrics) attributes(status int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.route", dataRoute),
		attribute.String("http.method", m.method),
		attribute.Int("http.status_code", status),
		attribute.Float64("board.data.total_ms", durationToMillis(time.Since(m.start))),
		attribute.Int("board.data.swimlanes", m.lanes),
		attribute.Int("board.data.tasks", m.tasks),
	}
	if m.authDuration > 0 {
		attrs = append(attrs, attribute.Float64("board.data.auth_ms", durationToMillis(m.authDuration)))
	}
	if m.storeDuration > 0 {
		attrs = append(attrs, attribute.Float64("board.data.store_ms", durationToMillis(m.storeDuration)))
	}
	if m.subject != "" {
		attrs = append(attrs, attribute.String("enduser.id", m.subject))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("board.data.error_stage", m.errorStage))
	}
	return attrs
}

func attributesToFields(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

// severityForStatus maps a response to OpenTelemetry log severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
