package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var errMissing = errors.New("missing")

func TestFinish(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := tp.Tracer("test")
	ctx := context.Background()

	finish := func(name string, err error) {
		_, span := tracer.Start(ctx, name)
		Finish(span, err, errMissing)
		span.End()
	}
	finish("ok", nil)
	finish("failed", errors.New("store offline"))
	finish("expected", errMissing)

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	if spans[0].Status.Code != codes.Ok {
		t.Errorf("ok: expected ok status, got %v", spans[0].Status.Code)
	}

	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "store offline" {
		t.Errorf("failed: unexpected status %+v", spans[1].Status)
	}
	if len(spans[1].Events) == 0 {
		t.Error("failed: expected the error to be recorded as an event")
	}

	if spans[2].Status.Code != codes.Ok || len(spans[2].Events) != 0 {
		t.Errorf("expected: unexpected status %+v events %v", spans[2].Status, spans[2].Events)
	}
	var tagged bool
	for _, kv := range spans[2].Attributes {
		if kv.Key == attribute.Key("error.expected") && kv.Value.AsString() == "missing" {
			tagged = true
		}
	}
	if !tagged {
		t.Error("expected: missing error.expected attribute")
	}
}

func TestSpanIDs(t *testing.T) {
	if traceID, spanID := SpanIDs(context.Background()); traceID != "" || spanID != "" {
		t.Fatal("expected empty ids without a span")
	}

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	traceID, spanID := SpanIDs(ctx)
	if traceID != span.SpanContext().TraceID().String() {
		t.Errorf("unexpected trace id %q", traceID)
	}
	if spanID != span.SpanContext().SpanID().String() {
		t.Errorf("unexpected span id %q", spanID)
	}
}
