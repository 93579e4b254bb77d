package fingerprint

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/shortontech/gosniff/internal/signal"
)

var hexRx = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestCanonicalOrderIndependence(t *testing.T) {
	a := signal.NewBuilder().
		Set(signal.KeyPlatform, "Linux x86_64").
		Set(signal.KeyUserAgent, "Mozilla/5.0").
		Set(signal.KeyLanguages, []string{"en-US"}).
		Build()

	b := signal.NewBuilder().
		Set(signal.KeyLanguages, []string{"en-US"}).
		Set(signal.KeyUserAgent, "Mozilla/5.0").
		Set(signal.KeyPlatform, "Linux x86_64").
		Build()

	if !bytes.Equal(Canonical(a), Canonical(b)) {
		t.Error("canonical form depends on insertion order")
	}
}

func TestCanonicalDistinguishesAbsentFromDefault(t *testing.T) {
	absent := signal.NewBuilder().SetAbsent(signal.KeyWebdriver).Build()
	explicit := signal.NewBuilder().Set(signal.KeyWebdriver, false).Build()

	if bytes.Equal(Canonical(absent), Canonical(explicit)) {
		t.Error("absent signal serializes identically to its present default")
	}
}

func TestDigestShape(t *testing.T) {
	bag := signal.NewBuilder().Set(signal.KeyPlatform, "Win32").Build()
	got := Digest(bag, []byte("test-secret"))
	if !hexRx.MatchString(got) {
		t.Errorf("digest %q is not 64 lowercase hex chars", got)
	}
}

func TestDigestDeterministic(t *testing.T) {
	bag := signal.NewBuilder().
		Set(signal.KeyPlatform, "Linux x86_64").
		Set(signal.KeyFontList, []string{"Arial"}).
		Build()
	secret := []byte("test-secret")

	first := Digest(bag, secret)
	for i := 0; i < 10; i++ {
		if got := Digest(bag, secret); got != first {
			t.Fatalf("digest diverged on run %d: %q vs %q", i, got, first)
		}
	}
}

func TestDigestVariesWithSecretAndSignals(t *testing.T) {
	bag := signal.NewBuilder().Set(signal.KeyPlatform, "Win32").Build()
	other := signal.NewBuilder().Set(signal.KeyPlatform, "Linux x86_64").Build()

	if Digest(bag, []byte("k1")) == Digest(bag, []byte("k2")) {
		t.Error("different secrets produced the same digest")
	}
	if Digest(bag, []byte("k1")) == Digest(other, []byte("k1")) {
		t.Error("different signals produced the same digest")
	}
}

func TestNewRecord(t *testing.T) {
	bag := signal.NewBuilder().Build()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("stamps session and time", func(t *testing.T) {
		rec := NewRecord(bag, []byte("k"), "order-42", now)
		if rec.SessionID != "order-42" {
			t.Errorf("session id = %q", rec.SessionID)
		}
		if rec.TimestampUTC != "2026-03-14T09:26:53Z" {
			t.Errorf("timestamp = %q", rec.TimestampUTC)
		}
		if !hexRx.MatchString(rec.CanonicalHash) {
			t.Errorf("hash %q malformed", rec.CanonicalHash)
		}
	})

	t.Run("missing session defaults to unknown", func(t *testing.T) {
		rec := NewRecord(bag, []byte("k"), "", now)
		if rec.SessionID != "unknown" {
			t.Errorf("session id = %q, want unknown", rec.SessionID)
		}
	})

	t.Run("hash is independent of the clock", func(t *testing.T) {
		a := NewRecord(bag, []byte("k"), "s", now)
		b := NewRecord(bag, []byte("k"), "s", now.Add(48*time.Hour))
		if a.CanonicalHash != b.CanonicalHash {
			t.Error("hash changed with the timestamp")
		}
	})
}
