package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr   string
	TrustProxy   bool
	MaxBodyBytes int64 // bytes for /collect payload

	// Fingerprinting
	FingerprintSecret string // HMAC-SHA256 key for the canonical digest

	// Outbound report delivery
	ReportEndpoint string // downstream receiver; empty disables transport
	ReportTimeout  time.Duration

	// Server-side geo lookup (fallback chain; each template takes the client IP)
	GeoEndpoints []string
	GeoTimeout   time.Duration

	// Collection endpoint authentication
	HMACSecret  string
	RequireHMAC bool

	Outputs []string // enabled sinks: log, kafka, postgres
}

func getOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func getBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "1", "t", "true", "y", "yes":
		return true
	case "0", "f", "false", "n", "no":
		return false
	}
	return def
}
func getInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getMillis(k string, def int64) time.Duration {
	return time.Duration(getInt64(k, def)) * time.Millisecond
}

func getStringSlice(k, def string) []string {
	v := os.Getenv(k)
	if v == "" {
		v = def
	}
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func Load() Config {
	return Config{
		ServerAddr:        getOr("SERVER_ADDR", ":19790"),
		TrustProxy:        getBool("TRUST_PROXY", false),
		MaxBodyBytes:      getInt64("MAX_BODY_BYTES", 1<<20), // 1 MiB default
		FingerprintSecret: getOr("FINGERPRINT_SECRET", "my_key"),
		ReportEndpoint:    getOr("REPORT_ENDPOINT", ""),
		ReportTimeout:     getMillis("REPORT_TIMEOUT_MS", 5000),
		GeoEndpoints: getStringSlice("GEO_ENDPOINTS",
			"https://ipapi.co/%s/json/,https://ipinfo.io/%s/json"),
		GeoTimeout:  getMillis("GEO_LOOKUP_TIMEOUT_MS", 2500),
		HMACSecret:  getOr("HMAC_SECRET", ""),
		RequireHMAC: getBool("REQUIRE_HMAC", false),
		Outputs:     getStringSlice("OUTPUTS", "log"), // default to log only
	}
}
