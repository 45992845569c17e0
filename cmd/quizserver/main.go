// Command quizserver runs a minimal in-memory quiz server speaking the
// session wire protocol. It exists for developing the client engine against
// a live socket without the real backend: one built-in quiz (or one loaded
// from a JSON file), sessions in memory, nothing persisted.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/mitchellvdhut/quizzap/quiz/protocol"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	quizFile := flag.String("quiz", "", "quiz JSON file to serve (defaults to a built-in demo quiz)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	quiz := demoQuiz()
	if *quizFile != "" {
		data, err := os.ReadFile(*quizFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", *quizFile).Msg("failed to read quiz file")
		}
		if err := json.Unmarshal(data, &quiz); err != nil {
			log.Fatal().Err(err).Str("file", *quizFile).Msg("failed to parse quiz file")
		}
	}

	srv := newStubServer(log, quiz)

	log.Info().Str("addr", *addr).Str("quiz", quiz.Name).Msg("quiz server listening")
	if err := http.ListenAndServe(*addr, srv.router()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func demoQuiz() stubQuiz {
	return stubQuiz{
		Name: "demo",
		Questions: []protocol.Question{
			{
				ID:          "q1",
				Name:        "q1",
				Description: "Capital of France",
				TimeLimit:   30,
				Answers: []protocol.Answer{
					{ID: "a1", Description: "Paris", IsCorrect: true},
					{ID: "a2", Description: "Lyon"},
					{ID: "a3", Description: "Marseille"},
				},
			},
			{
				ID:          "q2",
				Name:        "q2",
				Description: "Largest planet in the solar system",
				TimeLimit:   20,
				Answers: []protocol.Answer{
					{ID: "a1", Description: "Saturn"},
					{ID: "a2", Description: "Jupiter", IsCorrect: true},
				},
			},
		},
	}
}
