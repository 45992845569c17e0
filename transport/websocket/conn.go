package websocket

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mitchellvdhut/quizzap/quiz/protocol"
)

const (
	// Time allowed to complete the opening handshake.
	handshakeTimeout = 10 * time.Second

	// Time allowed to write a packet to the peer.
	writeWait = 10 * time.Second
)

var (
	// ErrUnknownAction is returned when a handler slot is addressed with an
	// action outside the protocol enumeration. This is a programmer error,
	// reported synchronously.
	ErrUnknownAction = errors.New("no handler slot for action")

	// ErrConnClosed is returned by Send after the connection has closed.
	ErrConnClosed = errors.New("connection closed")
)

// Handler consumes one inbound packet. Handlers run on the connection's
// read-loop goroutine; they must not block on another inbound packet.
type Handler func(*protocol.Packet)

// Conn is one client connection to a quiz session endpoint. It owns the
// underlying socket, the handler slot table, and any pending correlations.
type Conn struct {
	ws  *websocket.Conn
	log zerolog.Logger

	mu        sync.Mutex
	handlers  map[protocol.Action]Handler
	onDefault Handler
	pending   map[protocol.Action]*PendingCall

	writeMu sync.Mutex

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens a connection to url. The handler table starts with one empty
// slot per protocol action; inbound packets for empty slots are logged and
// dropped. Dispatch does not begin until Start is called, giving the owner
// a window to wire its steady-state handlers without racing early frames.
func Dial(ctx context.Context, url string, log zerolog.Logger) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c := &Conn{
		ws:       ws,
		log:      log,
		handlers: make(map[protocol.Action]Handler, len(protocol.Actions())),
		pending:  make(map[protocol.Action]*PendingCall),
		done:     make(chan struct{}),
	}

	for _, action := range protocol.Actions() {
		c.handlers[action] = nil
	}

	return c, nil
}

// Start launches the read loop. Frames received by the peer before Start
// are buffered by the socket, not lost. Calling Start again is a no-op.
func (c *Conn) Start() {
	c.startOnce.Do(func() {
		go c.readLoop()
	})
}

// SetHandler installs the steady-state handler for one action slot. Passing
// nil clears the slot. Addressing an action outside the enumeration is a
// programmer error.
func (c *Conn) SetHandler(action protocol.Action, h Handler) error {
	if !action.Valid() {
		return ErrUnknownAction
	}
	c.mu.Lock()
	c.handlers[action] = h
	c.mu.Unlock()
	return nil
}

// OnDefault installs the handler for packets whose action tag is outside the
// enumeration.
func (c *Conn) OnDefault(h Handler) {
	c.mu.Lock()
	c.onDefault = h
	c.mu.Unlock()
}

// Send serializes one outbound packet and transmits it. There is no
// acknowledgement at this layer; use Await for correlated exchanges.
func (c *Conn) Send(action protocol.Action, message string, payload interface{}) error {
	data, err := protocol.Encode(action, message, payload)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	return nil
}

// Close tears down the connection. It is safe to call more than once.
// Pending correlations are not settled here; their timers settle them.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// Done is closed once the connection has shut down, either by Close or by a
// read failure.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// readLoop is the single dispatch path: frames are processed strictly in
// arrival order, so a handler substitution installed before a send is in
// place before the reply frame is routed.
func (c *Conn) readLoop() {
	defer c.Close()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Debug().Err(err).Msg("websocket read failed, closing")
			}
			return
		}

		if msgType != websocket.TextMessage {
			c.log.Warn().Int("type", msgType).Msg("dropping non-text frame")
			continue
		}
		if len(bytes.TrimSpace(data)) == 0 {
			c.log.Warn().Msg("dropping empty frame")
			continue
		}

		pkt, err := protocol.Decode(data)
		if err != nil {
			c.log.Warn().Err(err).Str("frame", string(data)).Msg("dropping unparsable frame")
			continue
		}

		c.route(pkt)
	}
}

// route invokes exactly one handler for the packet: the slot matching its
// action tag, or the default handler for unrecognized tags.
func (c *Conn) route(pkt *protocol.Packet) {
	c.mu.Lock()
	h, known := c.handlers[pkt.Action]
	if !known {
		h = c.onDefault
	}
	c.mu.Unlock()

	if h == nil {
		if known {
			c.log.Warn().Stringer("action", pkt.Action).Msg("no handler installed for action")
		} else {
			c.log.Error().Stringer("action", pkt.Action).Msg("unhandled action")
		}
		return
	}

	h(pkt)
}
