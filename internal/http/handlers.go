package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shortontech/gosniff/internal/collect"
	"github.com/shortontech/gosniff/internal/metrics"
	"github.com/shortontech/gosniff/internal/report"
	"github.com/shortontech/gosniff/internal/signal"
	cfg "github.com/shortontech/gosniff/pkg/config"
)

type Env struct {
	Cfg       cfg.Config
	Collector *collect.Collector
	Assembler *report.Assembler
	Transport *report.Transport    // nil disables outbound delivery
	Emit      func(report.Payload) // injected sink fan-out
	HMACAuth  *HMACAuth            // nil disables HMAC verification
	Metrics   *metrics.Metrics
}

// collectRequest is the submission envelope. The session identifier may come
// in the body or as the order_id query parameter.
type collectRequest struct {
	OrderID string           `json:"order_id"`
	Report  signal.RawReport `json:"report"`
}

func (e Env) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (e Env) Readyz(w http.ResponseWriter, r *http.Request) {
	// TODO: verify sink connectivity (Kafka/PG) before returning 200
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (e Env) HMACPublicKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if e.HMACAuth == nil {
		http.Error(w, "HMAC authentication not configured", http.StatusNotFound)
		return
	}

	publicKey := e.HMACAuth.GetPublicKeyBase64()
	if publicKey == "" {
		http.Error(w, "HMAC public key not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"public_key": publicKey,
		"algorithm":  "HMAC-SHA256",
		"header":     "X-Sniff-HMAC",
	})
}

// POST /collect — accepts one probe submission, runs the full pipeline and
// responds 202 with the report id. Classification failures degrade instead of
// erroring: a malformed but parseable submission still gets a report.
func (e Env) Collect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		http.Error(w, "content-type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, e.Cfg.MaxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if e.HMACAuth != nil && !e.HMACAuth.VerifyHMAC(r, body) {
		http.Error(w, "invalid or missing HMAC signature", http.StatusUnauthorized)
		return
	}

	var req collectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" {
		req.OrderID = r.URL.Query().Get("order_id")
	}

	clientIP := e.clientIP(r)

	start := time.Now()
	bag := e.Collector.Collect(r.Context(), &req.Report, clientIP)
	payload := e.Assembler.AssembleSafe(bag, req.OrderID)

	if e.Metrics != nil {
		e.Metrics.ObservePipelineDuration("collect_classify", time.Since(start))
		e.Metrics.IncrementClassifications("driver", payload.Driver.Label)
		e.Metrics.IncrementClassifications("bot", payload.Bot.Label)
		e.Metrics.IncrementClassifications("proxy", payload.Proxy.Label)
	}

	if e.Emit != nil {
		e.Emit(payload)
	}
	if e.Transport != nil {
		go e.forward(payload)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"report_id": payload.ReportID,
	})
}

// forward ships the payload downstream with its own deadline, detached from
// the request context so a fast 202 does not cancel delivery.
func (e Env) forward(p report.Payload) {
	timeout := e.Cfg.ReportTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.Transport.Send(ctx, p); err != nil {
		log.Printf("collect: report %s delivery failed: %v", p.ReportID, err)
		if e.Metrics != nil {
			e.Metrics.IncrementSinkErrors("transport", "delivery")
		}
	}
}

// clientIP resolves the address classification should treat as the client.
// Proxy headers are honored only when TRUST_PROXY is set; otherwise a spoofed
// X-Forwarded-For would poison the geo signals.
func (e Env) clientIP(r *http.Request) string {
	if e.Cfg.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ips := strings.Split(xff, ","); len(ips) > 0 {
				return strings.TrimSpace(ips[0])
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	return normalizeIP(r.RemoteAddr)
}
