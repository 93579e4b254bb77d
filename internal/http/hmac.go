package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"net"
	"net/http"
	"strings"
)

// HMACAuth handles HMAC authentication for the collect endpoint
type HMACAuth struct {
	secret      []byte
	publicKey   []byte
	requireHMAC bool
}

// NewHMACAuth creates a new HMAC authentication handler
func NewHMACAuth(secret, publicKey string, requireHMAC bool) *HMACAuth {
	auth := &HMACAuth{
		secret:      []byte(secret),
		requireHMAC: requireHMAC,
	}

	if publicKey != "" {
		if decoded, err := base64.StdEncoding.DecodeString(publicKey); err == nil {
			auth.publicKey = decoded
		} else {
			log.Printf("WARNING: Invalid HMAC_PUBLIC_KEY format, using derived key")
		}
	}

	// If no public key provided or invalid, derive from secret
	if len(auth.publicKey) == 0 && len(auth.secret) > 0 {
		auth.publicKey = auth.derivePublicKey(auth.secret)
	}

	return auth
}

// derivePublicKey creates a public key from the secret using HKDF-like derivation
func (h *HMACAuth) derivePublicKey(secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("gosniff-public-key-derivation"))
	return mac.Sum(nil)[:16]
}

// GetPublicKeyBase64 returns the base64-encoded public key for client use
func (h *HMACAuth) GetPublicKeyBase64() string {
	if len(h.publicKey) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(h.publicKey)
}

// generateHMAC creates the expected signature for a payload using the
// IP-derived client key
func (h *HMACAuth) generateHMAC(payload []byte, clientIP string) string {
	if len(h.secret) == 0 {
		return ""
	}

	derivedKey := h.deriveClientKey(clientIP)

	mac := hmac.New(sha256.New, derivedKey)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// deriveClientKey creates a client-specific key from secret + IP
func (h *HMACAuth) deriveClientKey(clientIP string) []byte {
	ip := normalizeIP(clientIP)

	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte("client-key:" + ip))
	return mac.Sum(nil)
}

// normalizeIP extracts and normalizes the IP address
func normalizeIP(addr string) string {
	// IPv6 with port: [::1]:8080 -> ::1
	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]"); idx > 0 {
			return addr[1:idx]
		}
	}

	// IPv4 with port: 192.168.1.1:8080 -> 192.168.1.1
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

// VerifyHMAC validates the HMAC signature for a request
func (h *HMACAuth) VerifyHMAC(r *http.Request, payload []byte) bool {
	if !h.requireHMAC {
		return true
	}

	if len(h.secret) == 0 {
		log.Printf("HMAC verification failed: no secret configured")
		return false
	}

	providedHMAC := r.Header.Get("X-Sniff-HMAC")
	if providedHMAC == "" {
		log.Printf("HMAC verification failed: missing X-Sniff-HMAC header")
		return false
	}

	clientIP := rawClientIP(r)

	expectedHMAC := h.generateHMAC(payload, clientIP)

	if !hmac.Equal([]byte(providedHMAC), []byte(expectedHMAC)) {
		log.Printf("HMAC verification failed for IP %s", clientIP)
		return false
	}

	return true
}

// rawClientIP extracts the client IP for key derivation, preferring proxy
// headers when present
func rawClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return r.RemoteAddr
}
