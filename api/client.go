package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mitchellvdhut/quizzap/quiz/protocol"
)

// Quiz is a quiz as the management API returns it. Questions carry the
// correct-answer flags here; the live session protocol never exposes them
// to players.
type Quiz struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Creator     Creator             `json:"creator"`
	Questions   []protocol.Question `json:"questions"`
}

// Creator identifies the account that owns a quiz.
type Creator struct {
	Username string `json:"username"`
}

// CreateQuizRequest is the body of a quiz creation call.
type CreateQuizRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Questions   []protocol.Question `json:"questions"`
}

// Client is a thin client for the quiz management REST API. Live sessions
// go over the socket; everything CRUD-shaped goes through here.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a client for the management API rooted at baseURL.
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListQuizzes returns every quiz the access token can see.
func (c *Client) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	var quizzes []Quiz
	if err := c.apiCall(ctx, http.MethodGet, "/quiz", nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// GetQuiz fetches a single quiz by id.
func (c *Client) GetQuiz(ctx context.Context, id int) (*Quiz, error) {
	var quiz Quiz
	if err := c.apiCall(ctx, http.MethodGet, fmt.Sprintf("/quiz/%d", id), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// CreateQuiz registers a new quiz and returns it with its assigned id.
func (c *Client) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*Quiz, error) {
	var quiz Quiz
	if err := c.apiCall(ctx, http.MethodPost, "/quiz", req, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// DeleteQuiz removes a quiz. Sessions already running on it are not
// affected; the server lets them finish.
func (c *Client) DeleteQuiz(ctx context.Context, id int) error {
	return c.apiCall(ctx, http.MethodDelete, fmt.Sprintf("/quiz/%d", id), nil, nil)
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["detail"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}
