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

// PlayerCallbacks are the inbound hooks of a player session.
type PlayerCallbacks struct {
	OnQuestionStart func(protocol.AnswerCount)
	OnQuestionStop  func()
	OnChatMessage   func(protocol.ReceiveMessage)

	OnScoreInfo     func([]protocol.UserScore)
	OnUserConnect   func(username string)
	OnGlobalMessage func(message string)
	OnSessionClose  func(message string)
	OnQuizEnd       func()
}

// PlayerSession is the interaction façade of a participant: it submits
// votes, chats, and observes question flow.
type PlayerSession struct {
	*Session
	callbacks PlayerCallbacks
}

// JoinSession opens a player connection to an existing session under the
// given username. Players carry no access token; the username and client
// token ride in the query string.
func JoinSession(ctx context.Context, cfg *config.Config, sessionID, username string, ident identity.Provider, callbacks PlayerCallbacks) (*PlayerSession, error) {
	token, err := ident.GetOrCreate()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("username", username)
	query.Set("client_token", token)

	logger := log.With().Str("role", string(protocol.RolePlayer)).Str("session_id", sessionID).Logger()

	conn, err := socket.Dial(ctx, sessionURL(cfg.SocketURL, "quizJoin", sessionID, query), logger)
	if err != nil {
		return nil, err
	}

	p := &PlayerSession{
		Session:   newSession(conn, protocol.RolePlayer, cfg.AwaitTimeout, logger),
		callbacks: callbacks,
	}
	p.setSessionID(sessionID)
	p.wire()
	conn.Start()
	return p, nil
}

func (p *PlayerSession) wire() {
	conn := p.conn
	cb := p.callbacks

	conn.SetHandler(protocol.ActionQuestionStart, func(pkt *protocol.Packet) {
		count, err := protocol.Payload[protocol.AnswerCount](pkt)
		if err != nil {
			p.log.Warn().Err(err).Msg("bad QUESTION_START payload")
			return
		}
		p.setState(protocol.StateQuestionActive)
		if cb.OnQuestionStart != nil {
			cb.OnQuestionStart(count)
		}
	})

	conn.SetHandler(protocol.ActionQuestionStop, func(*protocol.Packet) {
		p.setState(protocol.StateIdle)
		if cb.OnQuestionStop != nil {
			cb.OnQuestionStop()
		}
	})

	conn.SetHandler(protocol.ActionPoolMessage, func(pkt *protocol.Packet) {
		msg, err := protocol.Payload[protocol.ReceiveMessage](pkt)
		if err != nil {
			p.log.Warn().Err(err).Msg("bad POOL_MESSAGE payload")
			return
		}
		p.setState(protocol.StateIdle)
		if cb.OnChatMessage != nil {
			cb.OnChatMessage(msg)
		}
	})

	conn.SetHandler(protocol.ActionScoreInfo, func(pkt *protocol.Packet) {
		if cb.OnScoreInfo == nil {
			return
		}
		scores, err := protocol.Payload[[]protocol.UserScore](pkt)
		if err != nil {
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
		p.setState(protocol.StateQuizEnded)
		if cb.OnQuizEnd != nil {
			cb.OnQuizEnd()
		}
	})
}

// SubmitVote submits the zero-based position of the chosen answer and
// awaits the server's status acknowledgement.
func (p *PlayerSession) SubmitVote(vote int) (socket.Result, error) {
	return p.request(protocol.ActionStatusCode, protocol.ActionSubmitVote, "submitting vote", protocol.Vote{Vote: vote})
}

// SendChat sends a message to the pool and awaits its echo as delivery
// confirmation.
func (p *PlayerSession) SendChat(message string) (socket.Result, error) {
	return p.request(protocol.ActionPoolMessage, protocol.ActionPoolMessage, "it's about sending a message", protocol.Message{Message: message})
}
