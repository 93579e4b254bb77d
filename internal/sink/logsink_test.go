package sink

import (
	"context"
	"testing"

	"github.com/shortontech/gosniff/internal/report"
)

func TestLogSink(t *testing.T) {
	s := NewLogSink()

	if s.Name() != "log" {
		t.Errorf("name = %q, want log", s.Name())
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Enqueue(report.Payload{ReportID: "r-1"}); err != nil {
		t.Errorf("Enqueue: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
