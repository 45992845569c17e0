package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mitchellvdhut/quizzap/api"
	"github.com/mitchellvdhut/quizzap/quiz/config"
	"github.com/mitchellvdhut/quizzap/quiz/identity"
	"github.com/mitchellvdhut/quizzap/quiz/protocol"
	"github.com/mitchellvdhut/quizzap/quiz/session"
	socket "github.com/mitchellvdhut/quizzap/transport/websocket"
)

// fakeController scripts a host session without a real socket.
type fakeController struct {
	sessionID string
	state     protocol.State
	question  *protocol.Question
	startErr  error
	calls     []string
	callbacks session.HostCallbacks
}

func (f *fakeController) SessionID() string     { return f.sessionID }
func (f *fakeController) State() protocol.State { return f.state }
func (f *fakeController) Close() error          { f.calls = append(f.calls, "Close"); return nil }

func (f *fakeController) StartNextQuestion() (socket.Result, error) {
	f.calls = append(f.calls, "StartNextQuestion")
	if f.startErr != nil {
		return socket.Result{OK: false, Message: "timed out"}, f.startErr
	}
	// A live session announces the question through the callback before the
	// start call returns.
	if f.question != nil && f.callbacks.OnQuestionInfo != nil {
		f.callbacks.OnQuestionInfo(*f.question)
	}
	return socket.Result{OK: true, Message: "success"}, nil
}

func (f *fakeController) StopQuestion() (socket.Result, error) {
	f.calls = append(f.calls, "StopQuestion")
	return socket.Result{OK: true, Message: "success"}, nil
}

func (f *fakeController) SendChat(message string) (socket.Result, error) {
	f.calls = append(f.calls, "SendChat:"+message)
	return socket.Result{OK: true, Message: "success"}, nil
}

func (f *fakeController) CloseSession() (socket.Result, error) {
	f.calls = append(f.calls, "CloseSession")
	return socket.Result{OK: true, Message: "success"}, nil
}

func testServer(t *testing.T, apiURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		SocketURL:    "ws://localhost:8000/api/latest/sockets",
		APIURL:       apiURL,
		AccessToken:  "secret",
		AwaitTimeout: time.Second,
	}
	return NewServer(cfg, identity.Static("tok-1"))
}

// hostFake installs a scripted opener and runs host_session through it.
// The captured callbacks let the test replay broadcast events.
func hostFake(t *testing.T, s *Server, fake *fakeController) session.HostCallbacks {
	t.Helper()
	var captured session.HostCallbacks
	s.open = func(ctx context.Context, cfg *config.Config, quizID string, ident identity.Provider, callbacks session.HostCallbacks) (hostController, error) {
		captured = callbacks
		fake.callbacks = callbacks
		callbacks.OnSessionCreated(fake.sessionID)
		return fake, nil
	}

	result, err := s.handleHostSession(context.Background(), callRequest("host_session", map[string]interface{}{
		"quiz_id": "42",
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), fake.sessionID)
	return captured
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := testServer(t, "http://localhost:8000/api/latest")
	require.NotNil(t, s.mcpServer)
	require.NotNil(t, s.apiClient)
	require.NotNil(t, s.open)
}

func TestHandleListQuizzes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quiz", r.URL.Path)
		json.NewEncoder(w).Encode([]api.Quiz{
			{ID: 1, Name: "Geography", Creator: api.Creator{Username: "mitchell"}},
			{ID: 2, Name: "History", Creator: api.Creator{Username: "mitchell"}},
		})
	}))
	defer srv.Close()

	s := testServer(t, srv.URL)
	result, err := s.handleListQuizzes(context.Background(), callRequest("list_quizzes", map[string]interface{}{}))
	require.NoError(t, err)

	text := textOf(t, result)
	require.Contains(t, text, "Quizzes (2)")
	require.Contains(t, text, "#1 Geography")
	require.Contains(t, text, "#2 History")
}

func TestHandleCreateQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateQuizRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Geography", req.Name)
		require.Len(t, req.Questions, 1)
		require.True(t, req.Questions[0].Answers[0].IsCorrect)

		json.NewEncoder(w).Encode(api.Quiz{ID: 9, Name: req.Name, Questions: req.Questions})
	}))
	defer srv.Close()

	s := testServer(t, srv.URL)
	result, err := s.handleCreateQuiz(context.Background(), callRequest("create_quiz", map[string]interface{}{
		"name": "Geography",
		"questions": []interface{}{
			map[string]interface{}{
				"description": "Capital of France",
				"time_limit":  30,
				"answers": []interface{}{
					map[string]interface{}{"description": "Paris", "is_correct": true},
					map[string]interface{}{"description": "Lyon"},
				},
			},
		},
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), "Created quiz #9")
}

func TestHandleDeleteQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/quiz/7", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := testServer(t, srv.URL)
	result, err := s.handleDeleteQuiz(context.Background(), callRequest("delete_quiz", map[string]interface{}{
		"quiz_id": float64(7),
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), "Deleted quiz #7")
}

func TestHandleHostSession(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77", state: protocol.StateQuizReady}
	hostFake(t, s, fake)

	_, ok := s.lookupSession("77")
	require.True(t, ok)
}

func TestHandleHostSessionNoAnnouncement(t *testing.T) {
	s := testServer(t, "http://unused")
	s.cfg.AwaitTimeout = 20 * time.Millisecond

	fake := &fakeController{sessionID: "77"}
	s.open = func(ctx context.Context, cfg *config.Config, quizID string, ident identity.Provider, callbacks session.HostCallbacks) (hostController, error) {
		return fake, nil
	}

	result, err := s.handleHostSession(context.Background(), callRequest("host_session", map[string]interface{}{
		"quiz_id": "42",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, fake.calls, "Close")
}

func TestHandleStartQuestion(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77", state: protocol.StateQuizReady}
	hostFake(t, s, fake)

	fake.question = &protocol.Question{
		ID:          "q1",
		Name:        "q1",
		Description: "Capital of France",
		TimeLimit:   30,
		Answers: []protocol.Answer{
			{ID: "a1", Description: "Paris", IsCorrect: true},
			{ID: "a2", Description: "Lyon"},
		},
	}

	result, err := s.handleStartQuestion(context.Background(), callRequest("start_question", map[string]interface{}{
		"session_id": "77",
	}))
	require.NoError(t, err)

	text := textOf(t, result)
	require.Contains(t, text, "Capital of France")
	require.Contains(t, text, "[*] Paris")
	require.Contains(t, text, "[ ] Lyon")
}

func TestHandleStartQuestionTimeout(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77", startErr: errors.New("timed out")}
	hostFake(t, s, fake)

	result, err := s.handleStartQuestion(context.Background(), callRequest("start_question", map[string]interface{}{
		"session_id": "77",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleStopQuestion(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77"}
	hostFake(t, s, fake)

	result, err := s.handleStopQuestion(context.Background(), callRequest("stop_question", map[string]interface{}{
		"session_id": "77",
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), "voting closed")
	require.Contains(t, fake.calls, "StopQuestion")
}

func TestHandleSendChat(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77"}
	hostFake(t, s, fake)

	result, err := s.handleSendChat(context.Background(), callRequest("send_chat", map[string]interface{}{
		"session_id": "77",
		"message":    "welcome everyone",
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), "Message sent")
	require.Contains(t, fake.calls, "SendChat:welcome everyone")
}

func TestHandleSessionState(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77", state: protocol.StateIdle}
	callbacks := hostFake(t, s, fake)

	callbacks.OnUserConnect("bob")
	callbacks.OnChatMessage("bob", "hi")
	callbacks.OnScoreInfo([]protocol.UserScore{{Username: "bob", Score: 120, Streak: 3}})

	result, err := s.handleSessionState(context.Background(), callRequest("session_state", map[string]interface{}{
		"session_id": "77",
	}))
	require.NoError(t, err)

	text := textOf(t, result)
	require.Contains(t, text, "State: IDLE")
	require.Contains(t, text, "joined: bob")
	require.Contains(t, text, "chat bob: hi")
	require.Contains(t, text, "score bob: 120 (streak 3)")

	// Events drain on read.
	result, err = s.handleSessionState(context.Background(), callRequest("session_state", map[string]interface{}{
		"session_id": "77",
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), "No new events")
}

func TestHandleCloseSession(t *testing.T) {
	s := testServer(t, "http://unused")
	fake := &fakeController{sessionID: "77"}
	hostFake(t, s, fake)

	result, err := s.handleCloseSession(context.Background(), callRequest("close_session", map[string]interface{}{
		"session_id": "77",
	}))
	require.NoError(t, err)
	require.Contains(t, textOf(t, result), "Session closed")
	require.Contains(t, fake.calls, "CloseSession")

	_, ok := s.lookupSession("77")
	require.False(t, ok)
}

func TestHandleUnknownSession(t *testing.T) {
	s := testServer(t, "http://unused")

	result, err := s.handleStopQuestion(context.Background(), callRequest("stop_question", map[string]interface{}{
		"session_id": "nope",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}
