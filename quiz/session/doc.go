// Package session implements the role-specific façades of a live quiz
// session: the host that drives question flow and the player that votes and
// chats.
//
// The session package implements:
//   - Session creation (host) and joining (player) over one socket each
//   - Steady-state callback wiring for broadcast events
//   - Correlated operations (start/stop question, vote, chat) built on the
//     transport's Await
//   - The per-role session lifecycle state machine
//
// State Machine:
//
// Both roles share the lifecycle QUIZ_READY → QUESTION_ACTIVE → IDLE →
// … → QUIZ_ENDED. Transitions are driven by inbound events, never by the
// outbound call itself, so the state always reflects the server-observed
// phase. QUIZ_ENDED is terminal: callers must stop issuing operations after
// it; the engine does not enforce this.
//
// Usage:
//
//	host, err := session.CreateSession(ctx, cfg, quizID, provider, session.HostCallbacks{
//		OnQuestionInfo: func(q protocol.Question) { render(q) },
//		OnQuestionStop: func() { showScores() },
//		OnChatMessage:  func(user, msg string) { appendChat(user, msg) },
//	})
//	if err != nil {
//		return err
//	}
//	defer host.Close()
//
//	result, err := host.StartNextQuestion()
//
// Correlated operations return the transport Result: a negative server
// reply resolves with OK false, while ErrAwaitTimeout reports that no reply
// arrived at all. Both are expected outcomes for callers to handle.
package session
