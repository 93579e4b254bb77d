package sink

import (
	"context"

	"github.com/shortontech/gosniff/internal/report"
)

type Sink interface {
	Start(ctx context.Context) error
	Enqueue(p report.Payload) error
	Close() error
	Name() string // Returns the sink name for metrics and logging
}
