package session

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/mitchellvdhut/quizzap/quiz/config"
	"github.com/mitchellvdhut/quizzap/quiz/identity"
	"github.com/mitchellvdhut/quizzap/quiz/protocol"
	socket "github.com/mitchellvdhut/quizzap/transport/websocket"
)

// HostCallbacks are the inbound hooks of a host session. The first three
// mirror what a hosting UI always needs; the rest are optional and may be
// left nil.
type HostCallbacks struct {
	OnQuestionInfo func(protocol.Question)
	OnQuestionStop func()
	OnChatMessage  func(username, message string)

	OnSessionCreated func(sessionID string)
	OnScoreInfo      func([]protocol.UserScore)
	OnUserConnect    func(username string)
	OnUserDisconnect func(username string)
	OnGlobalMessage  func(message string)
	OnSessionClose   func(message string)
	OnQuizEnd        func()
}

// HostSession is the interaction façade of the participant driving the
// quiz: it starts and stops questions, chats to the pool, and closes the
// session.
type HostSession struct {
	*Session
	callbacks HostCallbacks
}

// CreateSession opens a host connection for the given quiz and wires the
// steady-state callbacks. The server replies with SESSION_CREATED shortly
// after the connection is accepted; SessionID is populated from it.
func CreateSession(ctx context.Context, cfg *config.Config, quizID string, ident identity.Provider, callbacks HostCallbacks) (*HostSession, error) {
	token, err := ident.GetOrCreate()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("access_token", cfg.AccessToken)
	query.Set("client_token", token)

	logger := log.With().Str("role", string(protocol.RoleHost)).Str("quiz_id", quizID).Logger()

	conn, err := socket.Dial(ctx, sessionURL(cfg.SocketURL, "quizCreate", quizID, query), logger)
	if err != nil {
		return nil, err
	}

	h := &HostSession{
		Session:   newSession(conn, protocol.RoleHost, cfg.AwaitTimeout, logger),
		callbacks: callbacks,
	}
	h.wire()
	conn.Start()
	return h, nil
}

// wire installs the steady-state handlers. This is the one-time slot setup;
// afterwards only the correlator's install/restore pairs touch the table.
func (h *HostSession) wire() {
	conn := h.conn
	cb := h.callbacks

	conn.SetHandler(protocol.ActionSessionCreated, func(pkt *protocol.Packet) {
		sid, err := protocol.Payload[protocol.SessionID](pkt)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad SESSION_CREATED payload")
			return
		}
		h.setSessionID(sid.SessionID)
		if cb.OnSessionCreated != nil {
			cb.OnSessionCreated(sid.SessionID)
		}
	})

	conn.SetHandler(protocol.ActionQuestionStop, func(*protocol.Packet) {
		h.setState(protocol.StateIdle)
		if cb.OnQuestionStop != nil {
			cb.OnQuestionStop()
		}
	})

	conn.SetHandler(protocol.ActionPoolMessage, func(pkt *protocol.Packet) {
		msg, err := protocol.Payload[protocol.ReceiveMessage](pkt)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad POOL_MESSAGE payload")
			return
		}
		if cb.OnChatMessage != nil {
			cb.OnChatMessage(msg.Username, msg.Message)
		}
	})

	conn.SetHandler(protocol.ActionScoreInfo, func(pkt *protocol.Packet) {
		if cb.OnScoreInfo == nil {
			return
		}
		scores, err := protocol.Payload[[]protocol.UserScore](pkt)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad SCORE_INFO payload")
			return
		}
		cb.OnScoreInfo(scores)
	})

	conn.SetHandler(protocol.ActionUserConnect, func(pkt *protocol.Packet) {
		if cb.OnUserConnect == nil {
			return
		}
		user, err := protocol.Payload[protocol.Username](pkt)
		if err != nil {
			return
		}
		cb.OnUserConnect(user.Username)
	})

	conn.SetHandler(protocol.ActionUserDisconnect, func(pkt *protocol.Packet) {
		if cb.OnUserDisconnect == nil {
			return
		}
		user, err := protocol.Payload[protocol.Username](pkt)
		if err != nil {
			return
		}
		cb.OnUserDisconnect(user.Username)
	})

	conn.SetHandler(protocol.ActionGlobalMessage, func(pkt *protocol.Packet) {
		if cb.OnGlobalMessage == nil {
			return
		}
		msg, err := protocol.Payload[protocol.Message](pkt)
		if err != nil {
			return
		}
		cb.OnGlobalMessage(msg.Message)
	})

	conn.SetHandler(protocol.ActionSessionClose, func(pkt *protocol.Packet) {
		if cb.OnSessionClose == nil {
			return
		}
		msg, _ := protocol.Payload[protocol.Message](pkt)
		cb.OnSessionClose(msg.Message)
	})

	conn.SetHandler(protocol.ActionQuizEnd, func(*protocol.Packet) {
		h.setState(protocol.StateQuizEnded)
		if cb.OnQuizEnd != nil {
			cb.OnQuizEnd()
		}
	})
}

// StartNextQuestion asks the server to advance to the next question and
// awaits the QUESTION_INFO reply. On success the question-ready callback
// fires once with the decoded question. The state stays as-is: for hosts it
// only moves to IDLE once the stop of a running question is observed.
func (h *HostSession) StartNextQuestion() (socket.Result, error) {
	res, err := h.request(protocol.ActionQuestionInfo, protocol.ActionQuestionStart, "requesting new question", nil)
	if err != nil || !res.OK {
		return res, err
	}

	question, err := protocol.Payload[protocol.Question](res.Packet)
	if err != nil {
		return res, err
	}
	if h.callbacks.OnQuestionInfo != nil {
		h.callbacks.OnQuestionInfo(question)
	}
	return res, nil
}

// StopQuestion closes the running question and awaits the stop
// confirmation. The confirmed stop event moves the session to IDLE.
func (h *HostSession) StopQuestion() (socket.Result, error) {
	res, err := h.request(protocol.ActionQuestionStop, protocol.ActionQuestionStop, "stopping question", nil)
	if err == nil && res.OK {
		h.setState(protocol.StateIdle)
	}
	return res, err
}

// SendChat sends a message to the pool and awaits its echo as delivery
// confirmation. Other participants' messages arrive on the steady-state
// chat callback; the correlator's swap-and-restore keeps the two apart.
func (h *HostSession) SendChat(message string) (socket.Result, error) {
	return h.request(protocol.ActionPoolMessage, protocol.ActionPoolMessage, "it's about sending a message", protocol.Message{Message: message})
}

// CloseSession asks the server to tear the session down for everyone and
// awaits the acknowledgement.
func (h *HostSession) CloseSession() (socket.Result, error) {
	return h.request(protocol.ActionStatusCode, protocol.ActionSessionClose, "closing session", nil)
}
