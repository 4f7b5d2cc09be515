// AngelaMos | 2026
// telemetry_test.go

package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/defect-tracker/internal/config"
	"github.com/carterperez-dev/defect-tracker/internal/core"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpanRecordsEventsAndErrors(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := core.StartSpan(context.Background(), "test", "defect.Update",
		attribute.String("role", "engineer"),
	)
	gt.String(t, core.TraceIDFromContext(ctx)).NotEqual("")

	core.AddSpanEvent(ctx, "access.denied", attribute.String("action", "update"))
	core.SetSpanError(ctx, nil)
	core.SetSpanError(ctx, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	gt.Array(t, ended).Length(1).Required()
	gt.Value(t, ended[0].Name()).Equal("defect.Update")
	gt.Value(t, ended[0].Status().Code).Equal(codes.Error)
	gt.Value(t, ended[0].Status().Description).Equal("boom")

	var names []string
	for _, e := range ended[0].Events() {
		names = append(names, e.Name)
	}
	gt.Value(t, names).Equal([]string{"access.denied", "exception"})
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	gt.Value(t, core.TraceIDFromContext(context.Background())).Equal("")
}

func TestDisabledTracingShutsDownCleanly(t *testing.T) {
	tracing, err := core.NewTracing(context.Background(),
		config.OtelConfig{Enabled: false, ServiceName: "defect-tracker"},
		config.AppConfig{Version: "test", Environment: "development"},
	)
	gt.NoError(t, err).Required()
	gt.NoError(t, tracing.Shutdown(context.Background()))

	var none *core.Tracing
	gt.NoError(t, none.Shutdown(context.Background()))
}
