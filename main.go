// Command quizzap is a terminal client for real-time quiz sessions.
//
// It supports four modes:
//  1. "host" – create a session for a quiz and drive it from the keyboard
//  2. "join" – join a running session as a player and vote
//  3. "quizzes" – manage quiz definitions through the management API
//  4. "mcp" – expose quiz hosting as MCP tools on stdio
//
// Configuration comes from the environment (optionally a .env file); see the
// quiz/config package for the recognized variables.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/mitchellvdhut/quizzap/api"
	"github.com/mitchellvdhut/quizzap/quiz/config"
	"github.com/mitchellvdhut/quizzap/quiz/identity"
	"github.com/mitchellvdhut/quizzap/quiz/protocol"
	"github.com/mitchellvdhut/quizzap/quiz/session"
	"github.com/mitchellvdhut/quizzap/transport/mcp"
	socket "github.com/mitchellvdhut/quizzap/transport/websocket"
)

const Version = "1.0.0"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cmd := &cli.Command{
		Name:    "quizzap",
		Usage:   "terminal client for real-time quiz sessions",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			hostCommand(),
			joinCommand(),
			quizzesCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func hostCommand() *cli.Command {
	return &cli.Command{
		Name:      "host",
		Usage:     "create a session for a quiz and drive it",
		ArgsUsage: "<quiz-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			quizID := cmd.Args().First()
			if quizID == "" {
				return fmt.Errorf("quiz id is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			callbacks := session.HostCallbacks{
				OnSessionCreated: func(sessionID string) {
					fmt.Printf("session created: %s (players can join now)\n", sessionID)
				},
				OnQuestionInfo: func(q protocol.Question) {
					fmt.Printf("\nquestion %s: %s (%ds)\n", q.ID, q.Description, q.TimeLimit)
					for i, a := range q.Answers {
						marker := " "
						if a.IsCorrect {
							marker = "*"
						}
						fmt.Printf("  %d. [%s] %s\n", i+1, marker, a.Description)
					}
				},
				OnQuestionStop: func() { fmt.Println("question stopped") },
				OnChatMessage: func(username, message string) {
					fmt.Printf("[%s] %s\n", username, message)
				},
				OnScoreInfo: func(scores []protocol.UserScore) {
					fmt.Println("scores:")
					for _, s := range scores {
						fmt.Printf("  %s: %d (streak %d)\n", s.Username, s.Score, s.Streak)
					}
				},
				OnUserConnect:    func(username string) { fmt.Printf("%s joined\n", username) },
				OnUserDisconnect: func(username string) { fmt.Printf("%s left\n", username) },
				OnQuizEnd:        func() { fmt.Println("quiz ended") },
			}

			h, err := session.CreateSession(ctx, cfg, quizID, identity.NewFileProvider(cfg.ClientTokenPath), callbacks)
			if err != nil {
				return err
			}
			defer h.Close()

			fmt.Println("commands: next, stop, chat <msg>, close, quit")
			return interact(h.Done(), func(verb, rest string) (bool, error) {
				switch verb {
				case "next":
					return report(h.StartNextQuestion())
				case "stop":
					return report(h.StopQuestion())
				case "chat":
					return report(h.SendChat(rest))
				case "close":
					report(h.CloseSession())
					return true, nil
				case "quit":
					return true, nil
				default:
					fmt.Println("commands: next, stop, chat <msg>, close, quit")
					return false, nil
				}
			})
		},
	}
}

func joinCommand() *cli.Command {
	return &cli.Command{
		Name:      "join",
		Usage:     "join a running session as a player",
		ArgsUsage: "<session-id> <username>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sessionID := cmd.Args().Get(0)
			username := cmd.Args().Get(1)
			if sessionID == "" || username == "" {
				return fmt.Errorf("session id and username are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			callbacks := session.PlayerCallbacks{
				OnQuestionStart: func(count protocol.AnswerCount) {
					fmt.Printf("\nquestion started, %d answers: vote with 'vote <n>'\n", count.AnswerCount)
				},
				OnQuestionStop: func() { fmt.Println("voting closed") },
				OnChatMessage: func(msg protocol.ReceiveMessage) {
					fmt.Printf("[%s] %s\n", msg.Username, msg.Message)
				},
				OnScoreInfo: func(scores []protocol.UserScore) {
					for _, s := range scores {
						if s.Username == username {
							fmt.Printf("your score: %d (streak %d)\n", s.Score, s.Streak)
						}
					}
				},
				OnUserConnect:  func(u string) { fmt.Printf("%s joined\n", u) },
				OnSessionClose: func(string) { fmt.Println("session closed by host") },
				OnQuizEnd:      func() { fmt.Println("quiz ended") },
			}

			p, err := session.JoinSession(ctx, cfg, sessionID, username, identity.NewFileProvider(cfg.ClientTokenPath), callbacks)
			if err != nil {
				return err
			}
			defer p.Close()

			fmt.Println("commands: vote <n>, chat <msg>, quit")
			return interact(p.Done(), func(verb, rest string) (bool, error) {
				switch verb {
				case "vote":
					n, err := strconv.Atoi(rest)
					if err != nil || n < 1 {
						fmt.Println("usage: vote <answer number>")
						return false, nil
					}
					// Answers are shown numbered from 1; the protocol
					// carries the zero-based position.
					return report(p.SubmitVote(n - 1))
				case "chat":
					return report(p.SendChat(rest))
				case "quit":
					return true, nil
				default:
					fmt.Println("commands: vote <n>, chat <msg>, quit")
					return false, nil
				}
			})
		},
	}
}

func quizzesCommand() *cli.Command {
	return &cli.Command{
		Name:  "quizzes",
		Usage: "manage quiz definitions on the server",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list quizzes",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := apiClient()
					if err != nil {
						return err
					}
					quizzes, err := client.ListQuizzes(ctx)
					if err != nil {
						return err
					}
					for _, q := range quizzes {
						fmt.Printf("#%d %s (%d questions) by %s\n", q.ID, q.Name, len(q.Questions), q.Creator.Username)
					}
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "create a quiz from a JSON file",
				ArgsUsage: "<file.json>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					file := cmd.Args().First()
					if file == "" {
						return fmt.Errorf("quiz file is required")
					}
					data, err := os.ReadFile(file)
					if err != nil {
						return err
					}
					var req api.CreateQuizRequest
					if err := json.Unmarshal(data, &req); err != nil {
						return fmt.Errorf("parse %s: %w", file, err)
					}

					client, err := apiClient()
					if err != nil {
						return err
					}
					quiz, err := client.CreateQuiz(ctx, req)
					if err != nil {
						return err
					}
					fmt.Printf("created quiz #%d: %s\n", quiz.ID, quiz.Name)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a quiz by id",
				ArgsUsage: "<quiz-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := strconv.Atoi(cmd.Args().First())
					if err != nil {
						return fmt.Errorf("quiz id must be a number")
					}

					client, err := apiClient()
					if err != nil {
						return err
					}
					if err := client.DeleteQuiz(ctx, id); err != nil {
						return err
					}
					fmt.Printf("deleted quiz #%d\n", id)
					return nil
				},
			},
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "expose quiz hosting as MCP tools on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			srv := mcp.NewServer(cfg, identity.NewFileProvider(cfg.ClientTokenPath))
			log.Info().Msg("MCP stdio server ready")
			return srv.ServeStdio()
		},
	}
}

func apiClient() (*api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.APIURL, cfg.AccessToken), nil
}

// interact runs the stdin command loop until the handler says to stop, the
// connection ends, or the process gets an interrupt.
func interact(done <-chan struct{}, handle func(verb, rest string) (bool, error)) error {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	for {
		fmt.Print("> ")
		select {
		case <-done:
			fmt.Println("connection closed")
			return nil
		case <-interrupt:
			fmt.Println()
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
			if verb == "" {
				continue
			}
			stop, err := handle(verb, strings.TrimSpace(rest))
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			if stop {
				return nil
			}
		}
	}
}

// report prints the outcome of a request/response operation. Timeouts and
// rejections are shown, not fatal; the loop keeps running.
func report(res socket.Result, err error) (bool, error) {
	switch {
	case err != nil:
		fmt.Printf("request failed: %v\n", err)
	case !res.OK:
		fmt.Printf("rejected: %s\n", res.Message)
	default:
		fmt.Println("ok")
	}
	return false, nil
}
