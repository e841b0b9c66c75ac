package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xausdorf/decision-room/internal/usecase"
)

type errorKind struct {
	err    error
	status int
	code   string
}

// errorKinds is matched in order, the first kind the error wraps wins.
var errorKinds = []errorKind{
	{usecase.ErrAuthenticationRequired, http.StatusUnauthorized, "authentication_required"},
	{usecase.ErrAuthorizationDenied, http.StatusForbidden, "authorization_denied"},
	{usecase.ErrCreatorCannotLeave, http.StatusForbidden, "creator_cannot_leave"},
	{usecase.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
	{usecase.ErrOptionNotFound, http.StatusNotFound, "option_not_found"},
	{usecase.ErrNotFound, http.StatusNotFound, "not_found"},
	{usecase.ErrRoomClosed, http.StatusConflict, "room_closed"},
	{usecase.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{usecase.ErrInsufficientOptions, http.StatusConflict, "insufficient_options"},
	{usecase.ErrTiebreakerNotApplicable, http.StatusConflict, "tiebreaker_not_applicable"},
	{usecase.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
}

// kindOf returns the status and code of a known error kind.
func kindOf(err error) (int, string, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code, true
		}
	}
	return 0, "", false
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code, ok := kindOf(err)
	if !ok {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
}
