package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shortontech/gosniff/internal/collect"
	httpx "github.com/shortontech/gosniff/internal/http"
	"github.com/shortontech/gosniff/internal/metrics"
	"github.com/shortontech/gosniff/internal/report"
	"github.com/shortontech/gosniff/internal/sink"
	"github.com/shortontech/gosniff/pkg/config"
)

func main() {
	testMode := flag.Bool("test", false, "run the pipeline against a synthetic probe report and exit")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()
	metricsServer := metrics.NewServer(metrics.LoadConfig())

	sinks := buildSinks(ctx, cfg.Outputs)

	emit := func(p report.Payload) {
		for _, s := range sinks {
			if err := s.Enqueue(p); err != nil {
				log.Printf("sink %s: enqueue failed: %v", s.Name(), err)
				m.IncrementSinkErrors(s.Name(), "enqueue")
				continue
			}
			m.IncrementReportsEmitted(s.Name())
		}
	}

	collector := &collect.Collector{
		Geo:        &collect.HTTPGeoProvider{Endpoints: cfg.GeoEndpoints},
		GeoTimeout: cfg.GeoTimeout,
	}
	assembler := report.NewAssembler([]byte(cfg.FingerprintSecret))

	if *testMode {
		runTestMode(collector, assembler, emit)
		closeSinks(sinks)
		return
	}

	var transport *report.Transport
	if cfg.ReportEndpoint != "" {
		transport = report.NewTransport(cfg.ReportEndpoint, cfg.ReportTimeout)
	}

	var hmacAuth *httpx.HMACAuth
	if cfg.HMACSecret != "" {
		hmacAuth = httpx.NewHMACAuth(cfg.HMACSecret, os.Getenv("HMAC_PUBLIC_KEY"), cfg.RequireHMAC)
	}

	env := httpx.Env{
		Cfg:       cfg,
		Collector: collector,
		Assembler: assembler,
		Transport: transport,
		Emit:      emit,
		HMACAuth:  hmacAuth,
		Metrics:   m,
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: httpx.NewMux(env),
	}

	if err := metricsServer.Start(ctx); err != nil {
		log.Printf("metrics server failed to start: %v", err)
	}

	go func() {
		log.Printf("gosniff listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	closeSinks(sinks)
}

// buildSinks starts the sinks named in OUTPUTS. A sink that fails to start is
// skipped, not fatal; the log sink is the fallback when nothing else starts.
func buildSinks(ctx context.Context, outputs []string) []sink.Sink {
	var sinks []sink.Sink
	for _, name := range outputs {
		var s sink.Sink
		switch name {
		case "log":
			s = sink.NewLogSink()
		case "kafka":
			s = sink.NewKafkaSinkFromEnv()
		case "postgres", "pg":
			s = sink.NewPGSinkFromEnv()
		default:
			log.Printf("unknown output %q, skipping", name)
			continue
		}
		if err := s.Start(ctx); err != nil {
			log.Printf("sink %s: start failed: %v", s.Name(), err)
			continue
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		log.Printf("no sinks started, falling back to log sink")
		s := sink.NewLogSink()
		_ = s.Start(ctx)
		sinks = append(sinks, s)
	}
	return sinks
}

func closeSinks(sinks []sink.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Printf("sink %s: close failed: %v", s.Name(), err)
		}
	}
}
