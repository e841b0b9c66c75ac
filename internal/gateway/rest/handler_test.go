package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Xausdorf/decision-room/internal/domain"
	"github.com/Xausdorf/decision-room/internal/repository/memory"
	"github.com/Xausdorf/decision-room/internal/tiebreak"
	"github.com/Xausdorf/decision-room/internal/usecase"
)

var resolvedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type firstSource struct{}

func (firstSource) IntN(int) int { return 0 }
func (firstSource) Float64() float64 { return 0 }

type client struct {
	t      *testing.T
	engine *gin.Engine
}

func newClient(t *testing.T) *client {
	gin.SetMode(gin.TestMode)
	var ids atomic.Int64
	repo := memory.NewRoomRepository(nil, zerolog.Nop(), time.Second)
	rooms := usecase.NewRoom(repo, tiebreak.NewSelector(firstSource{}), zerolog.Nop(),
		usecase.WithClock(func() time.Time { return resolvedAt }),
		usecase.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", ids.Add(1)) }),
	)
	return &client{t: t, engine: NewHandler(rooms, zerolog.Nop(), 2*time.Second).Engine()}
}

func (c *client) do(method, path, user string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	return w
}

func (c *client) room(method, path, user string, body any) roomView {
	c.t.Helper()
	w := c.do(method, path, user, body)
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var room roomView
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &room))
	return room
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func (c *client) createRoom(user, title string) roomView {
	c.t.Helper()
	w := c.do(http.MethodPost, "/rooms", user, gin.H{"title": title})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	var room roomView
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &room))
	return room
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRoomLifecycle(t *testing.T) {
	req := require.New(t)
	c := newClient(t)

	room := c.createRoom("alice", "Lunch")
	req.Equal(domain.StateCollecting, room.State)
	base := "/rooms/" + room.ID

	joined := c.room(http.MethodPost, "/rooms/join", "bob", gin.H{"code": room.Code})
	req.Equal(room.ID, joined.ID)
	c.room(http.MethodPost, base+"/join", "carol", nil)

	room = c.room(http.MethodPost, base+"/options", "bob", gin.H{"text": "Pizza"})
	room = c.room(http.MethodPost, base+"/options", "carol", gin.H{"text": "Tacos"})
	pizza, tacos := room.Options[0].ID, room.Options[1].ID

	room = c.room(http.MethodPost, base+"/voting/start", "alice", nil)
	req.Equal(domain.StateVoting, room.State)

	c.room(http.MethodPost, base+"/votes", "bob", gin.H{"optionId": pizza})
	c.room(http.MethodPost, base+"/votes", "carol", gin.H{"optionId": tacos})

	w := c.do(http.MethodGet, base+"/votes/me", "bob", nil)
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(fmt.Sprintf(`{"voted":true,"optionId":%q}`, pizza), w.Body.String())

	w = c.do(http.MethodGet, base+"/tally", "bob", nil)
	req.Equal(http.StatusOK, w.Code)
	var tally tallyResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &tally))
	req.True(tally.IsTie)
	req.Equal(2, tally.Total)
	req.Equal([]string{pizza, tacos}, tally.Tied)

	room = c.room(http.MethodPost, base+"/voting/end", "alice", nil)
	req.Equal(domain.StateTieDetected, room.State)
	req.Nil(room.Result)

	w = c.do(http.MethodPost, base+"/tiebreak", "alice", gin.H{"method": "coin"})
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	var resolved resolveTieResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resolved))
	req.Equal(domain.StateClosed, resolved.Room.State)
	req.Equal(pizza, resolved.Room.Result.WinningOptionID)
	req.Equal(domain.TiebreakerCoin, resolved.Room.Result.Tiebreaker)
	req.Equal(resolvedAt.Add(2*time.Second), resolved.RevealAt)

	w = c.do(http.MethodGet, "/rooms/history", "carol", nil)
	req.Equal(http.StatusOK, w.Code)
	var history []roomView
	req.NoError(json.Unmarshal(w.Body.Bytes(), &history))
	req.Len(history, 1)

	w = c.do(http.MethodGet, "/rooms", "bob", nil)
	req.Equal(http.StatusOK, w.Code)
	var list roomsResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &list))
	req.Empty(list.Open)
	req.Len(list.Closed, 1)

	w = c.do(http.MethodDelete, base, "alice", nil)
	req.Equal(http.StatusNoContent, w.Code)
	w = c.do(http.MethodGet, base, "alice", nil)
	req.Equal(http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	c := newClient(t)
	room := c.createRoom("alice", "Lunch")
	base := "/rooms/" + room.ID
	c.room(http.MethodPost, base+"/join", "bob", nil)

	cases := map[string]struct {
		method, path, user string
		body               any
		status             int
		code               string
	}{
		"no identity":           {http.MethodPost, base + "/join", "", nil, http.StatusUnauthorized, "authentication_required"},
		"unknown room":          {http.MethodGet, "/rooms/missing", "bob", nil, http.StatusNotFound, "room_not_found"},
		"anonymous view":        {http.MethodGet, base, "", nil, http.StatusUnauthorized, "authentication_required"},
		"outsider view":         {http.MethodGet, base, "eve", nil, http.StatusForbidden, "authorization_denied"},
		"participant starts":    {http.MethodPost, base + "/voting/start", "bob", nil, http.StatusForbidden, "authorization_denied"},
		"creator leaves":        {http.MethodPost, base + "/leave", "alice", nil, http.StatusForbidden, "creator_cannot_leave"},
		"not enough options":    {http.MethodPost, base + "/voting/start", "alice", nil, http.StatusConflict, "insufficient_options"},
		"vote while collecting": {http.MethodPost, base + "/votes", "bob", gin.H{"optionId": "x"}, http.StatusConflict, "invalid_state"},
		"empty option":          {http.MethodPost, base + "/options", "bob", gin.H{"text": "  "}, http.StatusUnprocessableEntity, "invalid_input"},
		"unknown method":        {http.MethodPost, base + "/tiebreak", "alice", gin.H{"method": "roulette"}, http.StatusUnprocessableEntity, "invalid_input"},
		"missing vote option":   {http.MethodPost, base + "/votes", "bob", gin.H{}, http.StatusBadRequest, "bad_request"},
		"unknown code":          {http.MethodPost, "/rooms/join", "bob", gin.H{"code": "ZZZZZZ"}, http.StatusNotFound, "room_not_found"},
		"anonymous list":        {http.MethodGet, "/rooms", "", nil, http.StatusUnauthorized, "authentication_required"},
		"anonymous delete":      {http.MethodDelete, base, "", nil, http.StatusUnauthorized, "authentication_required"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := c.do(tc.method, tc.path, tc.user, tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			require.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestRoomViewHidesBallots(t *testing.T) {
	req := require.New(t)
	c := newClient(t)

	room := c.createRoom("alice", "Lunch")
	base := "/rooms/" + room.ID
	c.room(http.MethodPost, base+"/join", "bob", nil)
	c.room(http.MethodPost, base+"/options", "bob", gin.H{"text": "Pizza"})
	room = c.room(http.MethodPost, base+"/options", "alice", gin.H{"text": "Tacos"})
	pizza := room.Options[0].ID
	c.room(http.MethodPost, base+"/voting/start", "alice", nil)

	voted := c.room(http.MethodPost, base+"/votes", "bob", gin.H{"optionId": pizza})
	req.Equal(pizza, voted.MyVote)
	req.Equal(1, voted.Options[0].Votes)

	w := c.do(http.MethodGet, base, "alice", nil)
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	req.NotContains(w.Body.String(), `"votes":[`)
	req.NotContains(w.Body.String(), "myVote")

	var view roomView
	req.NoError(json.Unmarshal(w.Body.Bytes(), &view))
	req.Equal([]int{1, 0}, []int{view.Options[0].Votes, view.Options[1].Votes})
	req.Empty(view.MyVote)
	req.Equal([]string{"alice", "bob"}, view.Participants)

	view = c.room(http.MethodGet, base, "bob", nil)
	req.Equal(pizza, view.MyVote)
}

func TestPermissions(t *testing.T) {
	req := require.New(t)
	c := newClient(t)
	room := c.createRoom("alice", "Lunch")

	w := c.do(http.MethodGet, "/rooms/"+room.ID+"/permissions", "alice", nil)
	req.Equal(http.StatusOK, w.Code)

	var perms map[usecase.Action]permission
	req.NoError(json.Unmarshal(w.Body.Bytes(), &perms))
	req.Len(perms, len(usecase.Actions))
	req.True(perms[usecase.ActionAddOption].Allowed)
	req.True(perms[usecase.ActionDelete].Allowed)
	req.False(perms[usecase.ActionLeave].Allowed)
	req.NotEmpty(perms[usecase.ActionLeave].Reason)
	req.False(perms[usecase.ActionStartVoting].Allowed)
}

func TestKindOf(t *testing.T) {
	req := require.New(t)

	status, code, ok := kindOf(fmt.Errorf("%w: option x", usecase.ErrOptionNotFound))
	req.True(ok)
	req.Equal(http.StatusNotFound, status)
	req.Equal("option_not_found", code)

	_, _, ok = kindOf(fmt.Errorf("disk full"))
	req.False(ok)
}
