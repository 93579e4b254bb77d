package httpx

import "net/http"

func NewMux(e Env) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", e.Healthz)
	mux.HandleFunc("/readyz", e.Readyz)
	mux.HandleFunc("/collect", e.Collect)
	mux.HandleFunc("/hmac/public-key", e.HMACPublicKey)

	return RequestLogger(MetricsMiddleware(e.Metrics)(cors(mux)))
}
