package ws

import (
	"net/http"

	"github.com/okian/droidpad/pkg/logger"
)

// Option configures a Handler.
type Option func(*Handler)

// WithReadLimit caps the size of one incoming frame in bytes.
func WithReadLimit(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// WithCheckOrigin replaces the origin check. Every origin is accepted by
// default since clients are phones on the local network.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}
