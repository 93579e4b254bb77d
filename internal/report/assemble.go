// Package report turns a sealed signal bag into the final verdict payload and
// ships it to the configured destinations.
package report

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shortontech/gosniff/internal/classify"
	"github.com/shortontech/gosniff/internal/fingerprint"
	"github.com/shortontech/gosniff/internal/signal"
)

// Payload is the assembled verdict for one session. Raw signals never appear
// here; only the keyed fingerprint digest and the classifier outputs.
type Payload struct {
	ReportID    string          `json:"report_id"`
	SessionID   string          `json:"session_id"`
	Fingerprint string          `json:"fingerprint"`
	Timestamp   string          `json:"timestamp"`
	Driver      classify.Result `json:"driver"`
	Bot         classify.Result `json:"bot"`
	Proxy       classify.Result `json:"proxy"`
	Degraded    bool            `json:"degraded,omitempty"`
}

type classifierFn func(*signal.Bag) classify.Result

// Assembler runs the classifiers and stamps the payload. The classifier
// functions are injectable for tests; production wiring uses the classify
// package directly.
type Assembler struct {
	secret   []byte
	driverFn classifierFn
	botFn    classifierFn
	proxyFn  classifierFn
	now      func() time.Time
}

func NewAssembler(secret []byte) *Assembler {
	return &Assembler{
		secret:   secret,
		driverFn: classify.Driver,
		botFn:    classify.Bot,
		proxyFn:  classify.ProxyVPN,
		now:      time.Now,
	}
}

// Assemble runs the three classifiers concurrently and joins their verdicts
// with the fingerprint record. The classifiers are independent pure functions
// of the bag, so there is no ordering between them.
func (a *Assembler) Assemble(bag *signal.Bag, sessionID string) Payload {
	var (
		driver, bot, proxy classify.Result
		wg                 sync.WaitGroup
		panicked           any
		panicMu            sync.Mutex
	)

	run := func(fn classifierFn, slot *classify.Result) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				panicMu.Lock()
				if panicked == nil {
					panicked = r
				}
				panicMu.Unlock()
			}
		}()
		*slot = fn(bag)
	}

	wg.Add(3)
	go run(a.driverFn, &driver)
	go run(a.botFn, &bot)
	go run(a.proxyFn, &proxy)
	wg.Wait()

	// Surface a classifier panic in the caller's goroutine so AssembleSafe's
	// recovery path can handle it.
	if panicked != nil {
		panic(panicked)
	}

	rec := fingerprint.NewRecord(bag, a.secret, sessionID, a.now())
	return Payload{
		ReportID:    uuid.New().String(),
		SessionID:   rec.SessionID,
		Fingerprint: rec.CanonicalHash,
		Timestamp:   rec.TimestampUTC,
		Driver:      driver,
		Bot:         bot,
		Proxy:       proxy,
	}
}

// AssembleSafe never panics. If classification blows up on a malformed bag,
// the session still gets a report: conservative fallback labels, zero
// confidence, and the degraded flag set.
func (a *Assembler) AssembleSafe(bag *signal.Bag, sessionID string) (p Payload) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("report: classification panic for session %q: %v", sessionID, r)
			p = a.fallback(bag, sessionID)
		}
	}()
	return a.Assemble(bag, sessionID)
}

func (a *Assembler) fallback(bag *signal.Bag, sessionID string) Payload {
	rec := fingerprint.NewRecord(bag, a.secret, sessionID, a.now())
	return Payload{
		ReportID:    uuid.New().String(),
		SessionID:   rec.SessionID,
		Fingerprint: rec.CanonicalHash,
		Timestamp:   rec.TimestampUTC,
		Driver:      Result(classify.DriverNodriver, 0),
		Bot:         Result(classify.BotHumanOrUnknown, 0),
		Proxy:       Result(classify.ProxyNone, 0),
		Degraded:    true,
	}
}

// Result builds a bare verdict with no matched signals. Used for degraded
// payloads and test fixtures.
func Result(label string, confidence float64) classify.Result {
	return classify.Result{
		Label:          label,
		Confidence:     confidence,
		MatchedSignals: []string{},
		Details:        map[string]map[string]bool{},
	}
}
