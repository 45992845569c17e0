package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mitchellvdhut/quizzap/quiz/protocol"
)

// stubQuiz is the quiz the server runs sessions on.
type stubQuiz struct {
	Name      string              `json:"name"`
	Questions []protocol.Question `json:"questions"`
}

// stubConn is one socket with serialized writes.
type stubConn struct {
	ws       *websocket.Conn
	username string

	mu sync.Mutex
}

func (c *stubConn) send(status int, action protocol.Action, message string, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}
	frame, err := json.Marshal(protocol.Packet{
		StatusCode: status,
		Action:     action,
		Message:    message,
		Payload:    raw,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

type stubServer struct {
	log      zerolog.Logger
	quiz     stubQuiz
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*stubSession
	nextID   int
}

func newStubServer(log zerolog.Logger, quiz stubQuiz) *stubServer {
	return &stubServer{
		log:      log,
		quiz:     quiz,
		sessions: make(map[string]*stubSession),
		nextID:   1,
	}
}

func (s *stubServer) router() *mux.Router {
	r := mux.NewRouter()
	sockets := r.PathPrefix("/api/latest/sockets").Subrouter()
	sockets.HandleFunc("/quizCreate/{quiz_id}", s.handleHost)
	sockets.HandleFunc("/quizJoin/{session_id}", s.handleJoin)
	return r
}

// stubSession is one live session: a host, a pool of players, and a cursor
// into the quiz's question list.
type stubSession struct {
	id  string
	srv *stubServer

	mu      sync.Mutex
	host    *stubConn
	players map[*stubConn]struct{}
	next    int
	current int // -1 when no question is running
	votes   map[string]int
	scores  map[string]*playerScore
}

type playerScore struct {
	score  int
	streak int
}

func (s *stubServer) handleHost(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("access_token") == "" {
		http.Error(w, "missing access token", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	host := &stubConn{ws: ws, username: "host"}

	s.mu.Lock()
	sess := &stubSession{
		id:      fmt.Sprintf("%d", s.nextID),
		srv:     s,
		host:    host,
		players: make(map[*stubConn]struct{}),
		current: -1,
		votes:   make(map[string]int),
		scores:  make(map[string]*playerScore),
	}
	s.nextID++
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log := s.log.With().Str("session_id", sess.id).Str("quiz_id", mux.Vars(r)["quiz_id"]).Logger()
	log.Info().Msg("host connected")

	host.send(200, protocol.ActionStatusCode, "connection successful", nil)
	host.send(200, protocol.ActionSessionCreated, "session created", protocol.SessionID{SessionID: sess.id})

	sess.hostLoop(log)

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	sess.teardown()
	log.Info().Msg("host disconnected, session removed")
}

func (s *stubServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess, ok := s.sessions[mux.Vars(r)["session_id"]]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	player := &stubConn{ws: ws, username: username}

	log := s.log.With().Str("session_id", sess.id).Str("username", username).Logger()
	log.Info().Msg("player joined")

	sess.mu.Lock()
	sess.players[player] = struct{}{}
	sess.scores[username] = &playerScore{}
	sess.mu.Unlock()

	player.send(200, protocol.ActionStatusCode, "connection successful", nil)
	sess.broadcast(player, 200, protocol.ActionUserConnect, "user joined", protocol.Username{Username: username})

	sess.playerLoop(player)

	sess.mu.Lock()
	delete(sess.players, player)
	sess.mu.Unlock()
	sess.broadcast(player, 200, protocol.ActionUserDisconnect, "user left", protocol.Username{Username: username})
	log.Info().Msg("player disconnected")
}

// hostLoop serves host frames until the socket drops or the host closes
// the session.
func (s *stubSession) hostLoop(log zerolog.Logger) {
	for {
		_, data, err := s.host.ws.ReadMessage()
		if err != nil {
			return
		}
		pkt, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed host frame")
			continue
		}

		switch pkt.Action {
		case protocol.ActionQuestionStart:
			s.startQuestion()
		case protocol.ActionQuestionStop:
			s.stopQuestion()
		case protocol.ActionPoolMessage:
			s.relayChat(s.host, pkt)
		case protocol.ActionSessionClose:
			s.host.send(200, protocol.ActionStatusCode, "session closed", nil)
			return
		default:
			log.Warn().Str("action", string(pkt.Action)).Msg("unexpected host action")
		}
	}
}

func (s *stubSession) playerLoop(player *stubConn) {
	for {
		_, data, err := player.ws.ReadMessage()
		if err != nil {
			return
		}
		pkt, err := protocol.Decode(data)
		if err != nil {
			continue
		}

		switch pkt.Action {
		case protocol.ActionSubmitVote:
			s.recordVote(player, pkt)
		case protocol.ActionPoolMessage:
			s.relayChat(player, pkt)
		}
	}
}

func (s *stubSession) startQuestion() {
	s.mu.Lock()
	if s.current >= 0 {
		s.mu.Unlock()
		s.host.send(409, protocol.ActionQuestionInfo, "a question is already running", nil)
		return
	}
	if s.next >= len(s.srv.quiz.Questions) {
		s.mu.Unlock()
		s.host.send(404, protocol.ActionQuestionInfo, "quiz has no more questions", nil)
		return
	}
	s.current = s.next
	s.next++
	s.votes = make(map[string]int)
	question := s.srv.quiz.Questions[s.current]
	s.mu.Unlock()

	s.host.send(200, protocol.ActionQuestionInfo, "question started", question)
	s.broadcast(s.host, 200, protocol.ActionQuestionStart, "question started",
		protocol.AnswerCount{AnswerCount: len(question.Answers)})
}

func (s *stubSession) stopQuestion() {
	s.mu.Lock()
	if s.current < 0 {
		s.mu.Unlock()
		s.host.send(409, protocol.ActionQuestionStop, "no question running", nil)
		return
	}
	question := s.srv.quiz.Questions[s.current]
	s.current = -1
	finished := s.next >= len(s.srv.quiz.Questions)

	// Votes carry the answer's position in the question, not its ID.
	correct := make(map[int]bool)
	for i, a := range question.Answers {
		if a.IsCorrect {
			correct[i] = true
		}
	}
	var scores []protocol.UserScore
	for username, score := range s.scores {
		if vote, voted := s.votes[username]; voted && correct[vote] {
			score.score += 100
			score.streak++
		} else {
			score.streak = 0
		}
		scores = append(scores, protocol.UserScore{
			Username: username,
			Score:    score.score,
			Streak:   score.streak,
		})
	}
	s.mu.Unlock()

	s.everyone(200, protocol.ActionQuestionStop, "question stopped", nil)
	s.host.send(200, protocol.ActionScoreInfo, "scores", scores)
	if finished {
		s.everyone(200, protocol.ActionQuizEnd, "quiz ended", nil)
	}
}

func (s *stubSession) recordVote(player *stubConn, pkt *protocol.Packet) {
	vote, err := protocol.Payload[protocol.Vote](pkt)
	if err != nil {
		player.send(400, protocol.ActionStatusCode, "bad vote payload", nil)
		return
	}

	s.mu.Lock()
	if s.current < 0 {
		s.mu.Unlock()
		player.send(409, protocol.ActionStatusCode, "no question running", nil)
		return
	}
	s.votes[player.username] = vote.Vote
	s.mu.Unlock()

	player.send(200, protocol.ActionStatusCode, "vote counted", nil)
}

func (s *stubSession) relayChat(from *stubConn, pkt *protocol.Packet) {
	msg, err := protocol.Payload[protocol.Message](pkt)
	if err != nil {
		return
	}
	s.everyone(200, protocol.ActionPoolMessage, "new message", protocol.ReceiveMessage{
		Username: from.username,
		Message:  msg.Message,
	})
}

// broadcast sends to everyone except the given connection.
func (s *stubSession) broadcast(except *stubConn, status int, action protocol.Action, message string, payload interface{}) {
	for _, conn := range s.conns() {
		if conn == except {
			continue
		}
		conn.send(status, action, message, payload)
	}
}

// everyone sends to the host and all players.
func (s *stubSession) everyone(status int, action protocol.Action, message string, payload interface{}) {
	for _, conn := range s.conns() {
		conn.send(status, action, message, payload)
	}
}

func (s *stubSession) conns() []*stubConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := []*stubConn{s.host}
	for p := range s.players {
		conns = append(conns, p)
	}
	return conns
}

func (s *stubSession) teardown() {
	s.broadcast(s.host, 200, protocol.ActionSessionClose, "session closed", nil)
	for _, conn := range s.conns() {
		conn.ws.Close()
	}
}
