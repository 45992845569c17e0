package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mitchellvdhut/quizzap/api"
	"github.com/mitchellvdhut/quizzap/quiz/config"
	"github.com/mitchellvdhut/quizzap/quiz/identity"
	"github.com/mitchellvdhut/quizzap/quiz/protocol"
	"github.com/mitchellvdhut/quizzap/quiz/session"
	socket "github.com/mitchellvdhut/quizzap/transport/websocket"
)

// hostController is the slice of a host session the tools drive.
type hostController interface {
	SessionID() string
	State() protocol.State
	StartNextQuestion() (socket.Result, error)
	StopQuestion() (socket.Result, error)
	SendChat(message string) (socket.Result, error)
	CloseSession() (socket.Result, error)
	Close() error
}

// sessionOpener dials a host session. Swapped for a fake in tests.
type sessionOpener func(ctx context.Context, cfg *config.Config, quizID string, ident identity.Provider, callbacks session.HostCallbacks) (hostController, error)

// hostedSession is one live session plus a bounded log of the broadcast
// events seen on it, so an agent can poll what happened between calls.
type hostedSession struct {
	controller hostController

	mu           sync.Mutex
	events       []string
	lastQuestion *protocol.Question
}

const maxSessionEvents = 50

func (s *hostedSession) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > maxSessionEvents {
		s.events = s.events[len(s.events)-maxSessionEvents:]
	}
}

func (s *hostedSession) drainEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// Server exposes quiz hosting to MCP agents: quiz CRUD through the
// management API and live session control over the socket.
type Server struct {
	cfg       *config.Config
	apiClient *api.Client
	ident     identity.Provider
	mcpServer *server.MCPServer
	open      sessionOpener

	mu       sync.Mutex
	sessions map[string]*hostedSession
}

// NewServer creates an MCP server bound to the given environment.
func NewServer(cfg *config.Config, ident identity.Provider) *Server {
	s := &Server{
		cfg:       cfg,
		apiClient: api.NewClient(cfg.APIURL, cfg.AccessToken),
		ident:     ident,
		sessions:  make(map[string]*hostedSession),
	}
	s.open = func(ctx context.Context, cfg *config.Config, quizID string, ident identity.Provider, callbacks session.HostCallbacks) (hostController, error) {
		return session.CreateSession(ctx, cfg, quizID, ident, callbacks)
	}

	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Quizzap",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Quizzap - MCP Interface

Host real-time quizzes for a pool of connected players.

TYPICAL FLOW:
1. list_quizzes to see what is available (or create_quiz for a new one)
2. host_session with a quiz id - players join with the returned session id
3. start_question / stop_question to pace the quiz
4. session_state between calls to see joins, votes closing, chat and scores
5. close_session when done

AVAILABLE TOOLS:
- list_quizzes: List quizzes on the server
- create_quiz: Create a new quiz with questions and answers
- delete_quiz: Delete a quiz
- host_session: Open a live hosting session for a quiz
- start_question: Advance the session to its next question
- stop_question: Close voting on the running question
- send_chat: Send a chat message to the player pool
- session_state: Current state plus events since the last check
- close_session: End the session for everyone

NOTE: start_question returns the full question including which answers are
correct. Players only ever see the answer count.`),
	)

	s.registerTools()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_quizzes",
		Description: "List all quizzes available on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListQuizzes)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_quiz",
		Description: "Create a new quiz with questions and answers",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Quiz name",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Quiz description",
				},
				"questions": map[string]interface{}{
					"type":        "array",
					"description": "Questions, each with a description, time_limit in seconds, and answers carrying is_correct flags",
					"items": map[string]interface{}{
						"type": "object",
					},
				},
			},
			Required: []string{"name", "questions"},
		},
	}, s.handleCreateQuiz)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_quiz",
		Description: "Delete a quiz by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"quiz_id": map[string]interface{}{
					"type":        "integer",
					"description": "Quiz id to delete",
				},
			},
			Required: []string{"quiz_id"},
		},
	}, s.handleDeleteQuiz)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "host_session",
		Description: "Open a live hosting session for a quiz. Returns the session id players use to join.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"quiz_id": map[string]interface{}{
					"type":        "string",
					"description": "Quiz id to host",
				},
			},
			Required: []string{"quiz_id"},
		},
	}, s.handleHostSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "start_question",
		Description: "Advance the session to its next question and open voting",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleStartQuestion)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_question",
		Description: "Close voting on the running question",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleStopQuestion)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "send_chat",
		Description: "Send a chat message to the player pool",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message to send",
				},
			},
			Required: []string{"session_id", "message"},
		},
	}, s.handleSendChat)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "session_state",
		Description: "Current session state plus the broadcast events seen since the last check",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleSessionState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "close_session",
		Description: "End the session for everyone and disconnect",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleCloseSession)
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) lookupSession(sessionID string) (*hostedSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.sessions[sessionID]
	return hs, ok
}

// Tool handlers

func (s *Server) handleListQuizzes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quizzes, err := s.apiClient.ListQuizzes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Quizzes (%d):\n\n", len(quizzes))
	for _, q := range quizzes {
		result += fmt.Sprintf("- #%d %s (%d questions) by %s\n",
			q.ID, q.Name, len(q.Questions), q.Creator.Username)
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleCreateQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	// Re-marshal the raw arguments into the API request type rather than
	// walking the nested maps by hand.
	data, err := json.Marshal(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var req api.CreateQuizRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	quiz, err := s.apiClient.CreateQuiz(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created quiz #%d: %s (%d questions)", quiz.ID, quiz.Name, len(quiz.Questions))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleDeleteQuiz(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	id, ok := args["quiz_id"].(float64)
	if !ok {
		return mcp.NewToolResultError("quiz_id must be an integer"), nil
	}

	if err := s.apiClient.DeleteQuiz(ctx, int(id)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted quiz #%d", int(id))), nil
}

func (s *Server) handleHostSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	quizID, _ := args["quiz_id"].(string)
	if quizID == "" {
		return mcp.NewToolResultError("quiz_id is required"), nil
	}

	hs := &hostedSession{}
	created := make(chan string, 1)

	callbacks := session.HostCallbacks{
		OnSessionCreated: func(sessionID string) {
			select {
			case created <- sessionID:
			default:
			}
		},
		OnQuestionInfo: func(q protocol.Question) {
			hs.mu.Lock()
			hs.lastQuestion = &q
			hs.mu.Unlock()
		},
		OnQuestionStop: func() {
			hs.record("question stopped")
		},
		OnChatMessage: func(username, message string) {
			hs.record(fmt.Sprintf("chat %s: %s", username, message))
		},
		OnScoreInfo: func(scores []protocol.UserScore) {
			for _, sc := range scores {
				hs.record(fmt.Sprintf("score %s: %d (streak %d)", sc.Username, sc.Score, sc.Streak))
			}
		},
		OnUserConnect: func(username string) {
			hs.record(fmt.Sprintf("joined: %s", username))
		},
		OnUserDisconnect: func(username string) {
			hs.record(fmt.Sprintf("left: %s", username))
		},
		OnQuizEnd: func() {
			hs.record("quiz ended")
		},
	}

	controller, err := s.open(ctx, s.cfg, quizID, s.ident, callbacks)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hs.controller = controller

	// The session id arrives on the socket right after connect.
	var sessionID string
	select {
	case sessionID = <-created:
	case <-time.After(s.cfg.AwaitTimeout):
		controller.Close()
		return mcp.NewToolResultError("server did not announce a session id"), nil
	}

	s.mu.Lock()
	s.sessions[sessionID] = hs
	s.mu.Unlock()

	result := fmt.Sprintf("Hosting quiz %s\nSession id: %s\nPlayers can join now; use start_question to begin.", quizID, sessionID)
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleStartQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	hs, ok := s.lookupSession(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no hosted session %q", sessionID)), nil
	}

	hs.mu.Lock()
	hs.lastQuestion = nil
	hs.mu.Unlock()

	res, err := hs.controller.StartNextQuestion()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.OK {
		return mcp.NewToolResultText(fmt.Sprintf("Start rejected: %s", res.Message)), nil
	}

	// StartNextQuestion fires the question callback before returning, so
	// the slot is populated on the success path.
	hs.mu.Lock()
	q := hs.lastQuestion
	hs.mu.Unlock()
	if q == nil {
		return mcp.NewToolResultText("Question started"), nil
	}
	return mcp.NewToolResultText(formatQuestion(q)), nil
}

func (s *Server) handleStopQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	hs, ok := s.lookupSession(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no hosted session %q", sessionID)), nil
	}

	res, err := hs.controller.StopQuestion()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.OK {
		return mcp.NewToolResultText(fmt.Sprintf("Stop rejected: %s", res.Message)), nil
	}

	return mcp.NewToolResultText("Question stopped, voting closed"), nil
}

func (s *Server) handleSendChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	message, _ := args["message"].(string)

	hs, ok := s.lookupSession(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no hosted session %q", sessionID)), nil
	}

	res, err := hs.controller.SendChat(message)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.OK {
		return mcp.NewToolResultText(fmt.Sprintf("Send rejected: %s", res.Message)), nil
	}

	return mcp.NewToolResultText("Message sent"), nil
}

func (s *Server) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	hs, ok := s.lookupSession(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no hosted session %q", sessionID)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nState: %s\n", sessionID, hs.controller.State())

	events := hs.drainEvents()
	if len(events) == 0 {
		b.WriteString("No new events.")
	} else {
		b.WriteString("Events since last check:\n")
		for _, e := range events {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleCloseSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	hs, ok := s.lookupSession(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no hosted session %q", sessionID)), nil
	}

	res, err := hs.controller.CloseSession()
	hs.controller.Close()

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.OK {
		return mcp.NewToolResultText(fmt.Sprintf("Close rejected: %s", res.Message)), nil
	}

	return mcp.NewToolResultText("Session closed"), nil
}

// Formatting helpers

func formatQuestion(q *protocol.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %s: %s\n%s\nTime limit: %ds\n\nAnswers:\n", q.ID, q.Name, q.Description, q.TimeLimit)
	for i, a := range q.Answers {
		marker := " "
		if a.IsCorrect {
			marker = "*"
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, marker, a.Description)
	}
	b.WriteString("\n(* marks correct answers; players only see the answer count)")
	return b.String()
}
