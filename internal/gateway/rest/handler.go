// Package rest exposes the room lifecycle over HTTP/JSON. The acting user is
// taken from the X-User-ID header, set by the identity proxy in front of the
// service.
package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/Xausdorf/decision-room/internal/domain"
	"github.com/Xausdorf/decision-room/internal/usecase"
)

const (
	UserHeader = "X-User-ID"
	userKey    = "user"
)

type Handler struct {
	rooms       *usecase.Room
	log         zerolog.Logger
	revealDelay time.Duration
}

func NewHandler(rooms *usecase.Room, log zerolog.Logger, revealDelay time.Duration) *Handler {
	return &Handler{
		rooms:       rooms,
		log:         log,
		revealDelay: revealDelay,
	}
}

// Engine builds the gin engine serving every route.
func (h *Handler) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.requestLog)
	r.Use(identity)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	rooms := r.Group("/rooms")
	rooms.POST("", h.createRoom)
	rooms.GET("", h.listRooms)
	rooms.GET("/history", h.listHistory)
	rooms.POST("/join", h.joinByCode)

	room := rooms.Group("/:id")
	room.GET("", h.getRoom)
	room.DELETE("", h.deleteRoom)
	room.POST("/join", h.joinRoom)
	room.POST("/leave", h.leaveRoom)
	room.POST("/options", h.addOption)
	room.POST("/voting/start", h.startVoting)
	room.POST("/votes", h.castVote)
	room.GET("/votes/me", h.myVote)
	room.POST("/voting/end", h.endVoting)
	room.POST("/tiebreak", h.resolveTie)
	room.GET("/tally", h.tally)
	room.GET("/permissions", h.permissions)

	return r
}

func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("dur", time.Since(start)).
		Msg("http")
}

func identity(c *gin.Context) {
	c.Set(userKey, c.GetHeader(UserHeader))
	c.Next()
}

func userOf(c *gin.Context) string {
	return c.GetString(userKey)
}

type createRoomRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type joinByCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type addOptionRequest struct {
	Text string `json:"text"`
}

type castVoteRequest struct {
	OptionID string `json:"optionId" binding:"required"`
}

type resolveTieRequest struct {
	Method domain.Tiebreaker `json:"method" binding:"required"`
}

type resolveTieResponse struct {
	Room roomView `json:"room"`
	// RevealAt - when clients should stop the animation and show the winner.
	RevealAt time.Time `json:"revealAt"`
}

type roomsResponse struct {
	Open   []roomView `json:"open"`
	Closed []roomView `json:"closed"`
}

type voteResponse struct {
	Voted    bool   `json:"voted"`
	OptionID string `json:"optionId,omitempty"`
}

type tallyResponse struct {
	Counts map[string]int `json:"counts"`
	Tied   []string       `json:"tied"`
	Max    int            `json:"max"`
	Total  int            `json:"total"`
	IsTie  bool           `json:"isTie"`
}

type permission struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user := userOf(c)
	room, err := h.rooms.CreateRoom(c.Request.Context(), user, req.Title, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRoomView(room, user))
}

func (h *Handler) listRooms(c *gin.Context) {
	user := userOf(c)
	rooms, err := h.rooms.ListUserRooms(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	open, closed := lo.FilterReject(rooms, func(room domain.Room, _ int) bool {
		return room.IsOpen()
	})
	c.JSON(http.StatusOK, roomsResponse{
		Open:   newRoomViews(open, user),
		Closed: newRoomViews(closed, user),
	})
}

func (h *Handler) listHistory(c *gin.Context) {
	user := userOf(c)
	rooms, err := h.rooms.ListHistory(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoomViews(rooms, user))
}

func (h *Handler) joinByCode(c *gin.Context) {
	var req joinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.rooms.JoinByCode(c.Request.Context(), req.Code, userOf(c)))
}

func (h *Handler) getRoom(c *gin.Context) {
	h.respond(c)(h.rooms.ViewRoom(c.Request.Context(), c.Param("id"), userOf(c)))
}

func (h *Handler) deleteRoom(c *gin.Context) {
	if err := h.rooms.DeleteRoom(c.Request.Context(), c.Param("id"), userOf(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) joinRoom(c *gin.Context) {
	h.respond(c)(h.rooms.JoinRoom(c.Request.Context(), c.Param("id"), userOf(c)))
}

func (h *Handler) leaveRoom(c *gin.Context) {
	h.respond(c)(h.rooms.LeaveRoom(c.Request.Context(), c.Param("id"), userOf(c)))
}

func (h *Handler) addOption(c *gin.Context) {
	var req addOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.rooms.AddOption(c.Request.Context(), c.Param("id"), userOf(c), req.Text))
}

func (h *Handler) startVoting(c *gin.Context) {
	h.respond(c)(h.rooms.StartVoting(c.Request.Context(), c.Param("id"), userOf(c)))
}

func (h *Handler) castVote(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.rooms.CastVote(c.Request.Context(), c.Param("id"), userOf(c), req.OptionID))
}

func (h *Handler) myVote(c *gin.Context) {
	user := userOf(c)
	if user == "" {
		h.fail(c, usecase.ErrAuthenticationRequired)
		return
	}
	optionID, ok, err := h.rooms.UserVote(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, voteResponse{Voted: ok, OptionID: optionID})
}

func (h *Handler) endVoting(c *gin.Context) {
	h.respond(c)(h.rooms.EndVoting(c.Request.Context(), c.Param("id"), userOf(c)))
}

func (h *Handler) resolveTie(c *gin.Context) {
	var req resolveTieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user := userOf(c)
	room, err := h.rooms.ResolveTie(c.Request.Context(), c.Param("id"), user, req.Method)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resolveTieResponse{
		Room:     newRoomView(room, user),
		RevealAt: room.Result.ResolvedAt.Add(h.revealDelay),
	})
}

func (h *Handler) tally(c *gin.Context) {
	t, err := h.rooms.Tally(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tallyResponse{
		Counts: t.Counts,
		Tied:   t.Tied,
		Max:    t.Max,
		Total:  t.Total(),
		IsTie:  t.IsTie(),
	})
}

func (h *Handler) permissions(c *gin.Context) {
	perms, err := h.rooms.Permissions(c.Request.Context(), c.Param("id"), userOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.MapValues(perms, func(err error, _ usecase.Action) permission {
		if err != nil {
			return permission{Reason: err.Error()}
		}
		return permission{Allowed: true}
	}))
}

// respond writes the room an operation returned as seen by the caller, or
// its error.
func (h *Handler) respond(c *gin.Context) func(domain.Room, error) {
	return func(room domain.Room, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, newRoomView(room, userOf(c)))
	}
}
