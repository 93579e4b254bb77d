// Package fingerprint derives the stable, anonymized correlation token for a
// session. The digest is a function of the signal bag only: two sessions with
// identical normalized signals produce the same hash regardless of the order
// the readings were collected in.
package fingerprint

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shortontech/gosniff/internal/signal"
)

// Record is what leaves the system boundary: the keyed digest, never the raw
// signals.
type Record struct {
	CanonicalHash string `json:"canonical_hash"`
	SessionID     string `json:"session_id"`
	TimestampUTC  string `json:"timestamp_utc"`
}

// Canonical serializes the bag with keys in the declared schema order. An
// absent signal serializes as the literal "absent" so it can never collide
// with a present default value.
func Canonical(bag *signal.Bag) []byte {
	var buf bytes.Buffer
	for _, key := range signal.Keys() {
		sig := bag.Get(key)
		buf.WriteString(key)
		buf.WriteByte('=')
		if !sig.Present {
			buf.WriteString("absent")
		} else if v, err := json.Marshal(sig.Value); err != nil {
			buf.WriteString("unserializable")
		} else {
			buf.Write(v)
		}
		buf.WriteByte(';')
	}
	return buf.Bytes()
}

// Digest computes the keyed HMAC-SHA256 over the canonical serialization,
// encoded as lowercase hex. Non-reversible; safe to hand to third parties as
// an opaque correlation token.
func Digest(bag *signal.Bag, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(Canonical(bag))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewRecord stamps a digest with the session identity and the current UTC
// time. The hash itself never depends on the clock.
func NewRecord(bag *signal.Bag, secret []byte, sessionID string, now time.Time) Record {
	if sessionID == "" {
		sessionID = "unknown"
	}
	return Record{
		CanonicalHash: Digest(bag, secret),
		SessionID:     sessionID,
		TimestampUTC:  now.UTC().Format(time.RFC3339),
	}
}
