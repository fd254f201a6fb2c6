// Package apiclient talks to the leaderboard server over its JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 5 * time.Second

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo int64  `json:"rollNo"`
}

type TimeSubmission struct {
	RollNo     int64  `json:"rollNo"`
	Time       int64  `json:"time"`
	Difficulty string `json:"difficulty,omitempty"`
}

type RecordUser struct {
	Name   string `json:"name"`
	RollNo int64  `json:"rollNo"`
}

// Record is one leaderboard row as served by GET /leaderboard.
type Record struct {
	RollNo     int64      `json:"rollNo"`
	Time       int64      `json:"time"`
	Difficulty string     `json:"difficulty,omitempty"`
	User       RecordUser `json:"user"`
}

type Standing struct {
	Rank       int    `json:"rank"`
	Name       string `json:"name"`
	RollNo     int64  `json:"rollNo"`
	Time       int64  `json:"time"`
	Difficulty string `json:"difficulty,omitempty"`
	Attempts   int    `json:"attempts"`
	Players    int    `json:"players"`
	// Badges are display names, best first.
	Badges []string `json:"badges"`
}

// LiveMessage is pushed on the live feed for every accepted time.
type LiveMessage struct {
	Type       string `json:"t"`
	RollNo     int64  `json:"rollNo"`
	Name       string `json:"name"`
	Time       int64  `json:"time"`
	Difficulty string `json:"difficulty,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New returns a client for the server at baseURL. A nil httpClient gets a
// client with a short timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  log.With().Str("component", "apiclient").Logger(),
	}
}

// Register creates the player. A duplicate roll number comes back as a
// *StatusError for which IsUserExists is true.
func (c *Client) Register(ctx context.Context, name string, rollNo int64) (User, error) {
	var u User
	body := map[string]any{"name": name, "rollNo": rollNo}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// SubmitTime posts a best time and returns the server's acknowledgement.
func (c *Client) SubmitTime(ctx context.Context, sub TimeSubmission) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/time", sub, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]Record, error) {
	var recs []Record
	if err := c.do(ctx, http.MethodGet, "/leaderboard", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) Standing(ctx context.Context, rollNo int64) (Standing, error) {
	var st Standing
	path := "/leaderboard/" + strconv.FormatInt(rollNo, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &st); err != nil {
		return Standing{}, err
	}
	return st, nil
}

// Live subscribes to the live leaderboard feed and calls fn for each message
// until ctx is cancelled or the connection drops.
func (c *Client) Live(ctx context.Context, fn func(LiveMessage)) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/leaderboard/live"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("%w: dialing live feed: %v", ErrNetwork, err)
	}
	defer conn.CloseNow()

	for {
		var msg LiveMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading live feed: %w", err)
		}
		fn(msg)
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("request failed")
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
