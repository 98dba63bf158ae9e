// Package scores submits final scores to the website's scores API and reads
// the player's high score back.
package scores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthenticated is returned when the API rejects the token (HTTP 401).
var ErrUnauthenticated = errors.New("scores: not authenticated")

// ServerError is any other non-2xx response.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("scores: server error %d", e.Status)
	}
	return fmt.Sprintf("scores: server error %d: %s", e.Status, e.Body)
}

// Result is the decoded success response of a submission.
type Result struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	HighScore int    `json:"high_score"`
}

// HighScore is the player's best and current score for a game.
type HighScore struct {
	HighScore        int `json:"high_score"`
	CurrentUserScore int `json:"current_user_score"`
}

// Client talks to /api/<game>/... endpoints.
type Client struct {
	BaseURL string
	Game    string
	Token   string
	HTTP    *http.Client
}

// New returns a client with a 10 second timeout.
func New(baseURL, game, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Game:    game,
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) endpoint(action string) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("scores: bad base url: %w", err)
	}
	return base.JoinPath("api", c.Game, action).String() + "/", nil
}

// Submit posts a final score.
func (c *Client) Submit(ctx context.Context, score int) (Result, error) {
	var res Result
	body, err := json.Marshal(map[string]int{"score": score})
	if err != nil {
		return res, err
	}
	err = c.do(ctx, http.MethodPost, "update-score", bytes.NewReader(body), &res)
	return res, err
}

// HighScore fetches the player's best score.
func (c *Client) HighScore(ctx context.Context) (HighScore, error) {
	var hs HighScore
	err := c.do(ctx, http.MethodGet, "high-score", nil, &hs)
	return hs, err
}

func (c *Client) do(ctx context.Context, method, action string, body io.Reader, out any) error {
	u, err := c.endpoint(action)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("scores: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("scores: %s %s: %w", method, action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("scores: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("scores: decode response: %w", err)
	}
	return nil
}
