package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType marks a frame whose type has no registered handler.
// The reader logs it and drops the frame without closing the connection.
var ErrUnknownType = errors.New("unknown message type")

// ConnContext carries the per-frame state handlers need: the connection's
// registry id, the live transport for direct replies, and the original
// frame bytes for verbatim relay.
type ConnContext struct {
	ConnID string
	conn   *clientConn
	raw    []byte
}

// routeError is a failure surfaced to the sender as an error-typed reply;
// everything else is logged and dropped.
type routeError struct {
	message  string
	roomID   string
	joinCode string
}

func (e *routeError) Error() string { return e.message }

// internal (untyped) handler signature.
type rawHandler func(c *ConnContext, payload json.RawMessage) error

// Router maps message types to handlers; the union of registered types is
// the whole wire protocol.
type Router struct {
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// RegisterHandler binds a message type to a strongly-typed handler.
func RegisterHandler[Req any](r *Router, msgType string, h func(c *ConnContext, req Req) error) {
	if msgType == "" {
		panic("ws router: empty message type")
	}

	r.handlers[msgType] = func(c *ConnContext, payload json.RawMessage) error {
		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return fmt.Errorf("decode %s payload: %w", msgType, err)
			}
		}
		return h(c, req)
	}
}

// RegisterRaw binds a message type to a handler that forwards the payload
// without decoding it.
func (r *Router) RegisterRaw(msgType string, h rawHandler) {
	if msgType == "" {
		panic("ws router: empty message type")
	}
	r.handlers[msgType] = h
}

// dispatch is called by the server's reader loop.
func (r *Router) dispatch(c *ConnContext, env Envelope) error {
	h, ok := r.handlers[env.Type]
	if !ok {
		return ErrUnknownType
	}
	return h(c, env.Payload)
}
