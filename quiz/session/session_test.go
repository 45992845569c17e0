package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mitchellvdhut/quizzap/quiz/config"
	"github.com/mitchellvdhut/quizzap/quiz/protocol"
)

// fakeQuizServer accepts host and player sockets on the same routes the
// real backend exposes and hands each accepted connection to the test.
type fakeQuizServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	accepted chan *fakeClient
}

// fakeClient is one accepted socket, with the connect-time routing and
// query data captured for handshake assertions.
type fakeClient struct {
	ws      *websocket.Conn
	vars    map[string]string
	query   url.Values
	inbound chan *protocol.Packet
}

func newFakeQuizServer(t *testing.T) *fakeQuizServer {
	t.Helper()
	f := &fakeQuizServer{accepted: make(chan *fakeClient, 4)}
	r := mux.NewRouter()
	r.HandleFunc("/quizCreate/{quiz_id}", f.handleConnect)
	r.HandleFunc("/quizJoin/{session_id}", f.handleConnect)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeQuizServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &fakeClient{
		ws:      ws,
		vars:    mux.Vars(r),
		query:   r.URL.Query(),
		inbound: make(chan *protocol.Packet, 8),
	}
	go c.readLoop()
	f.accepted <- c
}

func (f *fakeQuizServer) waitClient(t *testing.T) *fakeClient {
	t.Helper()
	select {
	case c := <-f.accepted:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no client connected")
		return nil
	}
}

func (f *fakeQuizServer) config() *config.Config {
	return &config.Config{
		SocketURL:    "ws" + strings.TrimPrefix(f.srv.URL, "http"),
		AccessToken:  "secret",
		AwaitTimeout: 2 * time.Second,
	}
}

func (c *fakeClient) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			close(c.inbound)
			return
		}
		pkt, err := protocol.Decode(data)
		if err != nil {
			continue
		}
		c.inbound <- pkt
	}
}

// send pushes a server-shaped frame, status code included, to the client.
func (c *fakeClient) send(t *testing.T, status int, action protocol.Action, message string, payload interface{}) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	frame, err := json.Marshal(protocol.Packet{
		StatusCode: status,
		Action:     action,
		Message:    message,
		Payload:    raw,
	})
	require.NoError(t, err)
	require.NoError(t, c.ws.WriteMessage(websocket.TextMessage, frame))
}

func (c *fakeClient) recv(t *testing.T) *protocol.Packet {
	t.Helper()
	select {
	case pkt, ok := <-c.inbound:
		if !ok {
			t.Fatal("client connection closed before a packet arrived")
		}
		return pkt
	case <-time.After(2 * time.Second):
		t.Fatal("no packet from client")
		return nil
	}
}

func waitSignal[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	panic("unreachable")
}

func TestSessionURL(t *testing.T) {
	query := url.Values{}
	query.Set("username", "bob marley")
	query.Set("client_token", "tok-1")

	got := sessionURL("ws://localhost:8000/api/latest/sockets", "quizJoin", "abc/77", query)
	want := "ws://localhost:8000/api/latest/sockets/quizJoin/abc%2F77?client_token=tok-1&username=bob+marley"
	require.Equal(t, want, got)
}
