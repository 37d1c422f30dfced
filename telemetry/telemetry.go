// Package telemetry records client-side performance measurements (web
// vitals) reported by browsers.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pevans/technews/metrics"
)

// Sink stores measurement documents.
type Sink interface {
	Record(ctx context.Context, doc map[string]any) error
}

// MultiSink records to every sink in order. All sinks are tried; their
// errors are joined.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, doc map[string]any) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Normalize turns a request body into a measurement document stamped with
// ts (unix milliseconds), replacing any ts the client sent. A JSON object is
// used as is; an empty body is an empty object; anything else is kept as a
// string under "raw".
func Normalize(body []byte, now time.Time) map[string]any {
	doc := map[string]any{}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err == nil && obj != nil {
			doc = obj
		} else {
			doc["raw"] = string(body)
		}
	}

	doc["ts"] = now.UnixMilli()
	return doc
}

// Recorder normalizes reported bodies, feeds the web-vital histogram and
// hands the document to a sink.
type Recorder struct {
	sink   Sink
	now    func() time.Time
	logger *zap.Logger
}

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink Sink, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{sink: sink, now: time.Now, logger: logger}
}

// Record stores one reported body and returns the stored document.
func (r *Recorder) Record(ctx context.Context, body []byte) (map[string]any, error) {
	doc := Normalize(body, r.now())

	name, _ := doc["name"].(string)
	value, ok := doc["value"].(float64)
	if name != "" && ok {
		metrics.WebVitalValues.WithLabelValues(name).Observe(value)
	}

	if err := r.sink.Record(ctx, doc); err != nil {
		r.logger.Error("failed to record measurement", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to record measurement: %w", err)
	}
	return doc, nil
}
