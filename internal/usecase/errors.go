package usecase

import (
	"errors"
	"fmt"
)

// Every lifecycle operation fails with exactly one of these kinds, wrapped
// with the details of the rejection. None of them is transient.
var (
	ErrAuthenticationRequired  = errors.New("authentication required")
	ErrAuthorizationDenied     = errors.New("authorization denied")
	ErrNotFound                = errors.New("not found")
	ErrRoomNotFound            = fmt.Errorf("room %w", ErrNotFound)
	ErrOptionNotFound          = fmt.Errorf("option %w", ErrNotFound)
	ErrInvalidState            = errors.New("invalid state")
	ErrInsufficientOptions     = errors.New("insufficient options")
	ErrTiebreakerNotApplicable = errors.New("tiebreaker not applicable")
	ErrCreatorCannotLeave      = errors.New("creator cannot leave")
	ErrRoomClosed              = errors.New("room closed")
	ErrInvalidInput            = errors.New("invalid input")
)

// ErrCodeTaken is returned by a repository when an open room already holds
// the join code of the room being inserted.
var ErrCodeTaken = errors.New("room code taken")
