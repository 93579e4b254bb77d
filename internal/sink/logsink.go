package sink

import (
	"context"
	"encoding/json"
	"log"

	"github.com/shortontech/gosniff/internal/report"
)

type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Start(ctx context.Context) error { return nil }

func (s *LogSink) Enqueue(p report.Payload) error {
	b, _ := json.Marshal(p)
	log.Printf("report %s", string(b))
	return nil
}

func (s *LogSink) Close() error { return nil }

func (s *LogSink) Name() string { return "log" }
