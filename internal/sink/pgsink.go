package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/shortontech/gosniff/internal/report"
)

var tableNameRx = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects identifiers that cannot be safely interpolated
// into DDL/DML statements.
func validateTableName(name string) error {
	if !tableNameRx.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// PGSink batches reports into a Postgres table. Rows are keyed by report_id;
// the full payload rides along as JSONB for ad-hoc queries.
type PGSink struct {
	DSN           string
	Table         string
	BatchSize     int
	FlushInterval time.Duration

	db     *sql.DB
	mu     sync.Mutex
	batch  []report.Payload
	done   chan struct{}
	closed bool
}

// NewPGSinkFromEnv creates a PGSink from environment variables
func NewPGSinkFromEnv() *PGSink {
	return &PGSink{
		DSN:           os.Getenv("PG_DSN"),
		Table:         getEnvOr("PG_TABLE", "reports"),
		BatchSize:     getIntEnv("PG_BATCH_SIZE", 100),
		FlushInterval: time.Duration(getIntEnv("PG_FLUSH_MS", 1000)) * time.Millisecond,
	}
}

// NewPGSink creates a PGSink with explicit configuration
func NewPGSink(dsn string) *PGSink {
	return &PGSink{
		DSN:           dsn,
		Table:         "reports",
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// NewPGSinkWithDB wires an existing database handle, used by tests with
// sqlmock.
func NewPGSinkWithDB(db *sql.DB, table string) *PGSink {
	return &PGSink{
		db:            db,
		Table:         table,
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

func (s *PGSink) Start(ctx context.Context) error {
	if err := validateTableName(s.Table); err != nil {
		return err
	}

	if s.db == nil {
		if s.DSN == "" {
			return fmt.Errorf("PG_DSN is required for the postgres sink")
		}
		db, err := sql.Open("postgres", s.DSN)
		if err != nil {
			return fmt.Errorf("failed to open postgres connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to ping postgres: %w", err)
		}
		s.db = db
	}

	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	s.done = make(chan struct{})
	go s.flushRoutine(ctx)
	return nil
}

func (s *PGSink) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		report_id    TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL,
		fingerprint  TEXT NOT NULL,
		ts           TIMESTAMPTZ NOT NULL,
		driver_label TEXT NOT NULL,
		bot_label    TEXT NOT NULL,
		bot_score    INT NOT NULL,
		proxy_label  TEXT NOT NULL,
		proxy_score  INT NOT NULL,
		payload      JSONB NOT NULL
	)`, s.Table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.Table, err)
	}

	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_fingerprint_idx ON %s (fingerprint)`,
		s.Table, s.Table)
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", s.Table, err)
	}
	return nil
}

func (s *PGSink) Enqueue(p report.Payload) error {
	s.mu.Lock()
	s.batch = append(s.batch, p)
	full := len(s.batch) >= s.BatchSize
	s.mu.Unlock()

	if full {
		return s.flushBatch(context.Background())
	}
	return nil
}

// flushBatch writes the current batch row by row. On failure the batch is
// requeued for the next attempt; ON CONFLICT keeps the retry idempotent for
// rows that already landed.
func (s *PGSink) flushBatch(ctx context.Context) error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.batch
	s.batch = nil
	s.mu.Unlock()

	query := fmt.Sprintf(`INSERT INTO %s
		(report_id, session_id, fingerprint, ts, driver_label, bot_label, bot_score, proxy_label, proxy_score, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (report_id) DO NOTHING`, s.Table)

	for _, p := range batch {
		body, err := json.Marshal(p)
		if err != nil {
			log.Printf("pg sink: dropping unserializable report %s: %v", p.ReportID, err)
			continue
		}
		ts, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}
		if _, err := s.db.ExecContext(ctx, query,
			p.ReportID, p.SessionID, p.Fingerprint, ts,
			p.Driver.Label, p.Bot.Label, p.Bot.Score,
			p.Proxy.Label, p.Proxy.Score, body,
		); err != nil {
			s.mu.Lock()
			s.batch = append(batch, s.batch...)
			s.mu.Unlock()
			return fmt.Errorf("failed to insert reports: %w", err)
		}
	}
	return nil
}

func (s *PGSink) flushRoutine(ctx context.Context) {
	ticker := time.NewTicker(s.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.flushBatch(ctx); err != nil {
				log.Printf("pg sink: flush failed: %v", err)
			}
		}
	}
}

func (s *PGSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.done != nil {
		close(s.done)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.flushBatch(ctx); err != nil {
		return err
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PGSink) Name() string { return "postgres" }

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
