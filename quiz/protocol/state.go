package protocol

// State is the session-lifecycle state of an interaction. Transitions are
// driven by inbound events so the state reflects the server-observed phase
// rather than optimistic local intent.
type State string

const (
	// StateQuizReady is the initial state after a session is created or
	// joined, before any question has run.
	StateQuizReady State = "QUIZ_READY"
	// StateQuestionActive means a question is open for votes.
	StateQuestionActive State = "QUESTION_ACTIVE"
	// StateIdle is the between-questions state.
	StateIdle State = "IDLE"
	// StateQuizEnded is terminal; no further outbound operations are
	// meaningful once it is reached.
	StateQuizEnded State = "QUIZ_ENDED"
	// StateLoading marks a request/response exchange in flight. It is
	// available to callers for presentation purposes.
	StateLoading State = "LOADING"
)

// Role distinguishes the two participant kinds of a session.
type Role string

const (
	RoleHost   Role = "HOST"
	RolePlayer Role = "PLAYER"
)
