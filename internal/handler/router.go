package handler

import (
	"log/slog"
	"net/http"

	"wanlens/internal/metrics"
)

// RouterOptions holds the handlers mounted next to the API
type RouterOptions struct {
	Events     http.Handler
	Metrics    *metrics.Registry
	CORSOrigin string
	Logger     *slog.Logger
}

// NewRouter mounts the API, the SSE stream and the metrics endpoint behind
// the middleware chain
func NewRouter(h *TopologyHandler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	h.Register(mux)

	if opts.Events != nil {
		mux.Handle("GET /events", opts.Events)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	return Chain(mux,
		Recover(logger),
		CORS(opts.CORSOrigin),
		Logger(logger, opts.Metrics),
	)
}
