package ws

import "errors"

// Sentinel kinds for WebSocket errors.
var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
	ErrShutdown    = errors.New("websocket handler shut down")
)
