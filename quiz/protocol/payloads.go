package protocol

// Message is the payload sent with POOL_MESSAGE and GLOBAL_MESSAGE, and the
// shape a host sends when chatting to the pool.
type Message struct {
	Message string `json:"message"`
}

// ReceiveMessage is the payload of a POOL_MESSAGE as delivered to pool
// members: the sender's username plus the text.
type ReceiveMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Username is the payload of USER_CONNECT and USER_DISCONNECT.
type Username struct {
	Username string `json:"username"`
}

// SessionID is the payload of SESSION_CREATED, identifying the session that
// players use to join.
type SessionID struct {
	SessionID string `json:"session_id"`
}

// AnswerCount is the payload of QUESTION_START as seen by players: how many
// answers the active question has, without leaking the answers themselves.
type AnswerCount struct {
	AnswerCount int `json:"answer_count"`
}

// UserScore is one entry of a SCORE_INFO payload.
type UserScore struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
}

// Vote is the payload of SUBMIT_VOTE. The vote is the zero-based position
// of the chosen answer in the question's answer list.
type Vote struct {
	Vote int `json:"vote"`
}

// Answer is one answer option of a question.
type Answer struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
}

// Question is the payload of QUESTION_INFO, and the question shape the REST
// quiz API returns. TimeLimit is in seconds.
type Question struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TimeLimit   int      `json:"time_limit"`
	Answers     []Answer `json:"answers"`
}
