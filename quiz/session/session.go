package session

import (
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchellvdhut/quizzap/quiz/protocol"
	socket "github.com/mitchellvdhut/quizzap/transport/websocket"
)

// Session is the state shared by both roles: the owned connection, the role
// tag, and the lifecycle state. A Session owns its Conn exclusively; closing
// the session closes the connection.
type Session struct {
	conn    *socket.Conn
	role    protocol.Role
	log     zerolog.Logger
	timeout time.Duration

	mu        sync.Mutex
	state     protocol.State
	sessionID string
}

func newSession(conn *socket.Conn, role protocol.Role, timeout time.Duration, log zerolog.Logger) *Session {
	return &Session{
		conn:    conn,
		role:    role,
		log:     log,
		timeout: timeout,
		state:   protocol.StateQuizReady,
	}
}

// Role reports whether this session is the host or a player.
func (s *Session) Role() protocol.Role {
	return s.role
}

// State returns the current lifecycle state.
func (s *Session) State() protocol.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the identifier players use to join. For hosts it is
// empty until the server's SESSION_CREATED packet arrives; for players it is
// the identifier they joined with.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Conn exposes the owned connection for callers that need to wire
// additional handlers or await custom exchanges.
func (s *Session) Conn() *socket.Conn {
	return s.conn
}

// Close tears down the session and its connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Done is closed when the underlying connection has shut down.
func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

func (s *Session) setState(state protocol.State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()

	if prev != state {
		s.log.Debug().Str("from", string(prev)).Str("to", string(state)).Msg("session state changed")
	}
}

func (s *Session) setSessionID(id string) {
	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()
}

// request performs one correlated exchange: occupy the reply slot, send the
// outbound packet, wait for settlement. The slot is occupied before the send
// so the reply frame cannot race past the substitution.
func (s *Session) request(reply, action protocol.Action, message string, payload interface{}) (socket.Result, error) {
	pending, err := s.conn.Await(reply, s.timeout)
	if err != nil {
		return socket.Result{}, err
	}

	if err := s.conn.Send(action, message, payload); err != nil {
		// The pending call settles via its timer, restoring the slot.
		return socket.Result{}, err
	}

	return pending.Wait()
}

// sessionURL assembles the connection endpoint:
// <base>/<entryPoint>/<resourceID>?<query>.
func sessionURL(base, entryPoint, resourceID string, query url.Values) string {
	return base + "/" + entryPoint + "/" + url.PathEscape(resourceID) + "?" + query.Encode()
}
