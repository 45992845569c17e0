package protocol

// Action identifies the semantic category of a packet. The set is closed:
// the server never emits tags outside this enumeration, and clients route
// anything unrecognized to a default handler.
type Action string

const (
	ActionStatusCode     Action = "STATUS_CODE"
	ActionPoolMessage    Action = "POOL_MESSAGE"
	ActionGlobalMessage  Action = "GLOBAL_MESSAGE"
	ActionUserConnect    Action = "USER_CONNECT"
	ActionUserDisconnect Action = "USER_DISCONNECT"
	ActionSessionClose   Action = "SESSION_CLOSE"
	ActionSessionCreated Action = "SESSION_CREATED"
	ActionSubmitVote     Action = "SUBMIT_VOTE"
	ActionQuestionInfo   Action = "QUESTION_INFO"
	ActionQuestionStart  Action = "QUESTION_START"
	ActionQuestionStop   Action = "QUESTION_STOP"
	ActionScoreInfo      Action = "SCORE_INFO"
	ActionQuizEnd        Action = "QUIZ_END"
)

var actions = []Action{
	ActionStatusCode,
	ActionPoolMessage,
	ActionGlobalMessage,
	ActionUserConnect,
	ActionUserDisconnect,
	ActionSessionClose,
	ActionSessionCreated,
	ActionSubmitVote,
	ActionQuestionInfo,
	ActionQuestionStart,
	ActionQuestionStop,
	ActionScoreInfo,
	ActionQuizEnd,
}

// Actions returns every action tag in the protocol.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Valid reports whether a is part of the closed action enumeration.
func (a Action) Valid() bool {
	for _, known := range actions {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}
