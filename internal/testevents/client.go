package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/okian/droidpad/pkg/logger"
)

// ClientHeader carries the simulated client's id. The bridge ignores it;
// it lets log lines on both sides be matched up.
const ClientHeader = "X-Droidpad-Client"

// simClient is one simulated phone.
type simClient struct {
	id   string
	conn *websocket.Conn
	log  logger.Logger
}

func dial(ctx context.Context, config *Config) (*simClient, error) {
	id := uuid.New().String()
	dialer := websocket.Dialer{HandshakeTimeout: config.Timeout}
	header := http.Header{}
	header.Set(ClientHeader, id)

	conn, resp, err := dialer.DialContext(ctx, config.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", config.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", config.URL, err)
	}
	return &simClient{
		id:   id,
		conn: conn,
		log:  logger.Get().With(logger.String("client", id)),
	}, nil
}

// play sends every step in order. It returns the number of frames
// written before the first failure.
func (c *simClient) play(ctx context.Context, script Script, verbose bool) (int, error) {
	sent := 0
	for _, step := range script.Steps {
		raw, err := json.Marshal(step.Frame)
		if err != nil {
			return sent, fmt.Errorf("marshal frame: %w", err)
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return sent, fmt.Errorf("write frame %d: %w", sent, err)
		}
		sent++
		if verbose {
			c.log.Debug(ctx, "frame sent", logger.String("frame", string(raw)))
		}
		if step.Pause > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(step.Pause):
			}
		}
	}
	return sent, nil
}

// close says goodbye the way a browser tab does.
func (c *simClient) close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
