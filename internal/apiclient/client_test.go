package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func TestRegister(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Name   string `json:"name"`
			RollNo int64  `json:"rollNo"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.RollNo == 7 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user already exists"})
			return
		}
		writeJSON(w, http.StatusOK, User{ID: "u1", Name: body.Name, RollNo: body.RollNo})
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	u, err := c.Register(context.Background(), "Ana", 42)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Name != "Ana" || u.RollNo != 42 {
		t.Errorf("user = %+v", u)
	}

	_, err = c.Register(context.Background(), "Ana", 7)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 StatusError", err)
	}
	if !IsUserExists(err) {
		t.Errorf("IsUserExists(%v) = false", err)
	}
}

func TestSubmitTime(t *testing.T) {
	var got TimeSubmission
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Time received: 312"})
	}))
	defer ts.Close()

	msg, err := New(ts.URL+"/", nil).SubmitTime(context.Background(), TimeSubmission{RollNo: 3, Time: 312, Difficulty: "hard"})
	if err != nil {
		t.Fatalf("SubmitTime: %v", err)
	}
	if msg != "Time received: 312" {
		t.Errorf("message = %q", msg)
	}
	if got.RollNo != 3 || got.Time != 312 || got.Difficulty != "hard" {
		t.Errorf("server saw %+v", got)
	}
}

func TestLeaderboard(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Record{
			{RollNo: 1, Time: 210, User: RecordUser{Name: "A", RollNo: 1}},
			{RollNo: 2, Time: 330, Difficulty: "easy", User: RecordUser{Name: "B", RollNo: 2}},
		})
	}))
	defer ts.Close()

	recs, err := New(ts.URL, nil).Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(recs) != 2 || recs[1].User.Name != "B" || recs[1].Difficulty != "easy" {
		t.Errorf("records = %+v", recs)
	}
}

func TestStanding(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leaderboard/21" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no time recorded for this roll number"})
			return
		}
		writeJSON(w, http.StatusOK, Standing{Rank: 1, Name: "Ana", RollNo: 21, Time: 180, Attempts: 3, Players: 4, Badges: []string{"Lightning", "Champion"}})
	}))
	defer ts.Close()

	c := New(ts.URL, nil)
	st, err := c.Standing(context.Background(), 21)
	if err != nil {
		t.Fatalf("Standing: %v", err)
	}
	if st.Rank != 1 || st.Players != 4 || len(st.Badges) != 2 {
		t.Errorf("standing = %+v", st)
	}

	_, err = c.Standing(context.Background(), 5)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("err = %v, want 404 StatusError", err)
	}
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url, nil).Leaderboard(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestServerErrorWithoutBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New(ts.URL, nil).Standing(context.Background(), 9)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 500 {
		t.Fatalf("err = %v", err)
	}
	if IsUserExists(err) {
		t.Errorf("500 should not look like a duplicate user")
	}
}

func TestLive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leaderboard/live" {
			http.NotFound(w, r)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		wsjson.Write(r.Context(), conn, LiveMessage{Type: "time", RollNo: 5, Name: "E", Time: 199})
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []LiveMessage
	err := New(ts.URL, nil).Live(ctx, func(m LiveMessage) { got = append(got, m) })
	if err == nil {
		t.Errorf("expected an error after the server closed the feed")
	}
	if len(got) != 1 || got[0].RollNo != 5 || got[0].Time != 199 {
		t.Errorf("messages = %+v", got)
	}
}
