package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// signPayload reproduces the client-side signing: key derived from secret and
// IP, HMAC-SHA256 over the body, hex encoded.
func signPayload(secret, ip string, payload []byte) string {
	keyMac := hmac.New(sha256.New, []byte(secret))
	keyMac.Write([]byte("client-key:" + ip))
	derived := keyMac.Sum(nil)

	mac := hmac.New(sha256.New, derived)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC(t *testing.T) {
	const secret = "test-secret"
	payload := []byte(`{"order_id":"o1"}`)

	t.Run("valid signature accepted", func(t *testing.T) {
		auth := NewHMACAuth(secret, "", true)
		req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(string(payload)))
		req.Header.Set("X-Sniff-HMAC", signPayload(secret, "192.0.2.1", payload))

		if !auth.VerifyHMAC(req, payload) {
			t.Error("valid signature rejected")
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		auth := NewHMACAuth(secret, "", true)
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		if auth.VerifyHMAC(req, payload) {
			t.Error("missing signature accepted")
		}
	})

	t.Run("wrong signature rejected", func(t *testing.T) {
		auth := NewHMACAuth(secret, "", true)
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		req.Header.Set("X-Sniff-HMAC", "deadbeef")
		if auth.VerifyHMAC(req, payload) {
			t.Error("bogus signature accepted")
		}
	})

	t.Run("signature from another ip rejected", func(t *testing.T) {
		auth := NewHMACAuth(secret, "", true)
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		req.Header.Set("X-Sniff-HMAC", signPayload(secret, "198.51.100.99", payload))
		if auth.VerifyHMAC(req, payload) {
			t.Error("signature bound to another ip accepted")
		}
	})

	t.Run("not required passes everything", func(t *testing.T) {
		auth := NewHMACAuth(secret, "", false)
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		if !auth.VerifyHMAC(req, payload) {
			t.Error("optional verification should pass without a header")
		}
	})

	t.Run("forwarded ip used for derivation", func(t *testing.T) {
		auth := NewHMACAuth(secret, "", true)
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
		req.Header.Set("X-Sniff-HMAC", signPayload(secret, "203.0.113.5", payload))
		if !auth.VerifyHMAC(req, payload) {
			t.Error("signature for forwarded ip rejected")
		}
	})
}

func TestGetPublicKeyBase64(t *testing.T) {
	t.Run("derived from secret", func(t *testing.T) {
		auth := NewHMACAuth("some-secret", "", false)
		if auth.GetPublicKeyBase64() == "" {
			t.Error("public key should be derived from the secret")
		}
	})

	t.Run("stable for same secret", func(t *testing.T) {
		a := NewHMACAuth("some-secret", "", false)
		b := NewHMACAuth("some-secret", "", false)
		if a.GetPublicKeyBase64() != b.GetPublicKeyBase64() {
			t.Error("derived public key is not deterministic")
		}
	})

	t.Run("explicit key wins", func(t *testing.T) {
		auth := NewHMACAuth("some-secret", "cHVibGljLWtleQ==", false)
		if auth.GetPublicKeyBase64() != "cHVibGljLWtleQ==" {
			t.Errorf("public key = %q", auth.GetPublicKeyBase64())
		}
	})

	t.Run("empty secret has no key", func(t *testing.T) {
		auth := NewHMACAuth("", "", false)
		if auth.GetPublicKeyBase64() != "" {
			t.Error("no key material should yield no public key")
		}
	})
}

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.168.1.1:8080", "192.168.1.1"},
		{"[::1]:8080", "::1"},
		{"203.0.113.9", "203.0.113.9"},
		{"::1", "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizeIP(tt.in); got != tt.want {
				t.Errorf("normalizeIP(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
