// Package ws serves the controller WebSocket endpoint. Every connection
// gets one session; a read pump decodes frames and hands them to it.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/droidpad/internal/domain/model"
	"github.com/okian/droidpad/internal/domain/slots"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/okian/droidpad/pkg/metrics"
)

const (
	defaultReadLimit = 4096
	closeGrace       = time.Second
	maxLoggedFrame   = 256
)

// Close reasons reported to Stream.Close.
const (
	ReasonClientClosed = "client_closed"
	ReasonTransport    = "transport_error"
	ReasonFailed       = "session_failed"
	ReasonShutdown     = "shutdown"
)

// Stream is the per-connection sink of decoded events.
type Stream interface {
	ID() string
	// Enqueue hands ev to the session in arrival order. It fails once the
	// session can no longer take events.
	Enqueue(ctx context.Context, ev model.Event) error
	// Done is closed when the session stopped on its own.
	Done() <-chan struct{}
	// Close ends the session. It is safe to call more than once.
	Close(reason string) error
}

// Opener creates the session for a new connection.
type Opener interface {
	OpenSession(ctx context.Context, remoteAddr string) (Stream, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, remoteAddr string) (Stream, error)

func (f OpenerFunc) OpenSession(ctx context.Context, remoteAddr string) (Stream, error) {
	return f(ctx, remoteAddr)
}

// Handler upgrades controller connections.
type Handler struct {
	upgrader  websocket.Upgrader
	opener    Opener
	readLimit int64
	logger    logger.Logger

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewHandler creates a handler opening sessions through opener.
func NewHandler(opener Opener, opts ...Option) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		opener:    opener,
		readLimit: defaultReadLimit,
		conns:     make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}
	return h
}

// ServeHTTP opens a session, upgrades the connection and runs the read
// pump until the client leaves or the session fails.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}
	if h.isClosed() {
		http.Error(w, ErrShutdown.Error(), http.StatusServiceUnavailable)
		return
	}

	stream, err := h.opener.OpenSession(ctx, r.RemoteAddr)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, slots.ErrExhausted) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error(ctx, "cannot open session",
			logger.String("remote", r.RemoteAddr),
			logger.Error(err),
		)
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered the request
		h.logger.Warn(ctx, "websocket upgrade failed", logger.String("remote", r.RemoteAddr), logger.Error(err))
		_ = stream.Close(ReasonTransport)
		return
	}
	if !h.track(conn) {
		_ = conn.Close()
		_ = stream.Close(ReasonShutdown)
		return
	}
	defer h.untrack(conn)

	h.serve(conn, stream)
}

func (h *Handler) serve(conn *websocket.Conn, stream Stream) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := h.logger.With(
		logger.String("session", stream.ID()),
		logger.String("remote", conn.RemoteAddr().String()),
	)
	conn.SetReadLimit(h.readLimit)

	// a failed session must unblock the pending read
	go func() {
		select {
		case <-stream.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "device failure"),
				time.Now().Add(closeGrace))
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	log.Info(ctx, "client connected")
	reason := h.pump(ctx, conn, stream, log)
	_ = conn.Close()
	if err := stream.Close(reason); err != nil {
		log.Warn(ctx, "session close failed", logger.Error(err))
	}
	log.Info(ctx, "client disconnected", logger.String("reason", reason))
}

func (h *Handler) pump(ctx context.Context, conn *websocket.Conn, stream Stream, log logger.Logger) string {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return h.reason(stream, err)
		}
		if mt != websocket.TextMessage {
			metrics.RecordWSMessage("binary")
			continue
		}

		d, err := Decode(data, time.Now())
		if err != nil {
			metrics.RecordWSDecodeError()
			log.Warn(ctx, "skipping message", logger.Error(err), logger.String("frame", clip(data)))
			continue
		}
		metrics.RecordWSMessage(d.Type)
		if !d.Known {
			log.Debug(ctx, "ignoring unknown control", logger.String("type", d.Type), logger.String("frame", clip(data)))
			continue
		}

		if err := stream.Enqueue(ctx, d.Event); err != nil {
			log.Debug(ctx, "session stopped taking events", logger.Error(err))
			return ReasonFailed
		}
	}
}

func (h *Handler) reason(stream Stream, err error) string {
	select {
	case <-stream.Done():
		return ReasonFailed
	default:
	}
	if h.isClosed() {
		return ReasonShutdown
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return ReasonClientClosed
	}
	return ReasonTransport
}

func (h *Handler) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Handler) track(c *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.wg.Done()
}

// Active returns the number of open connections.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown refuses new connections, sends a going-away close to every
// client and waits for their sessions to end.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	deadline := time.Now().Add(closeGrace)
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		_ = c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("websocket shutdown: %w", ctx.Err())
	}
}

func clip(b []byte) string {
	if len(b) > maxLoggedFrame {
		return string(b[:maxLoggedFrame]) + "..."
	}
	return string(b)
}
