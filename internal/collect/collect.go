// Package collect runs the fan-out/join that turns a raw probe submission
// plus server-side lookups into one sealed signal bag. Every branch carries
// its own timeout and resolves with a sentinel on failure; a slow or hung
// lookup never blocks the rest of the bag from sealing.
package collect

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shortontech/gosniff/internal/signal"
)

const defaultGeoTimeout = 2500 * time.Millisecond

// GeoProvider resolves public-IP geolocation/organization data. Implementors
// must honor the context deadline.
type GeoProvider interface {
	Lookup(ctx context.Context, ip string) (signal.GeoInfo, error)
}

// Collector assembles sealed bags for incoming sessions.
type Collector struct {
	Geo        GeoProvider // nil disables the geo branch
	GeoTimeout time.Duration
}

func (c *Collector) geoTimeout() time.Duration {
	if c.GeoTimeout > 0 {
		return c.GeoTimeout
	}
	return defaultGeoTimeout
}

// Collect normalizes the client readings and resolves server-side signals
// concurrently, then seals the bag. Branches absorb their own failures: the
// join always completes, and cancellation of ctx abandons in-flight lookups
// without surfacing errors into classifier code.
func (c *Collector) Collect(ctx context.Context, raw *signal.RawReport, clientIP string) *signal.Bag {
	var (
		sigs  []signal.Signal
		geo   signal.GeoInfo
		geoOK bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sigs = signal.NormalizeReport(raw)
		return nil
	})
	g.Go(func() error {
		if c.Geo == nil || clientIP == "" {
			return nil
		}
		tctx, cancel := context.WithTimeout(gctx, c.geoTimeout())
		defer cancel()
		info, err := c.Geo.Lookup(tctx, clientIP)
		if err != nil {
			log.Printf("collect: geo lookup for %s unavailable: %v", clientIP, err)
			return nil
		}
		geo, geoOK = info, true
		return nil
	})
	// Branches never return errors; failures become absent sentinels below.
	_ = g.Wait()

	b := signal.NewBuilder().Merge(sigs)
	if geoOK {
		b.Set(signal.KeyPublicIPGeo, geo)
	} else {
		b.SetAbsent(signal.KeyPublicIPGeo)
	}
	return b.Build()
}
