package usecase

import (
	"fmt"

	"github.com/Xausdorf/decision-room/internal/domain"
)

// Action - operation a user may attempt on a room.
type Action string

const (
	ActionView        Action = "view"
	ActionJoin        Action = "join"
	ActionLeave       Action = "leave"
	ActionAddOption   Action = "add_option"
	ActionStartVoting Action = "start_voting"
	ActionVote        Action = "vote"
	ActionEndVoting   Action = "end_voting"
	ActionResolveTie  Action = "resolve_tie"
	ActionDelete      Action = "delete"
)

// Actions lists every action in the order they usually occur.
var Actions = []Action{
	ActionView,
	ActionJoin,
	ActionLeave,
	ActionAddOption,
	ActionStartVoting,
	ActionVote,
	ActionEndVoting,
	ActionResolveTie,
	ActionDelete,
}

// Role - relation of a user to a room.
type Role string

const (
	RoleNonMember   Role = "non-member"
	RoleParticipant Role = "participant"
	RoleCreator     Role = "creator"
)

func RoleOf(room *domain.Room, userID string) Role {
	switch {
	case room.IsCreator(userID):
		return RoleCreator
	case room.IsParticipant(userID):
		return RoleParticipant
	default:
		return RoleNonMember
	}
}

// CanPerform decides whether the user may perform action on the room in its
// current state. It returns nil when allowed and the rejection otherwise.
// Checks run in a fixed order: identity, role, then phase.
// Payload checks (option lookup, tie cardinality) are left to the operation.
func CanPerform(room *domain.Room, userID string, action Action) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	role := RoleOf(room, userID)

	switch action {
	case ActionView:
		return requireRole(role, action, RoleParticipant, RoleCreator)
	case ActionJoin:
		if !room.IsOpen() {
			return fmt.Errorf("%w: room %s", ErrRoomClosed, room.ID)
		}
		return nil
	case ActionLeave:
		if role == RoleCreator {
			return ErrCreatorCannotLeave
		}
		return requireState(room, action, domain.StateCollecting, domain.StateVoting, domain.StateTieDetected)
	case ActionAddOption:
		if err := requireRole(role, action, RoleParticipant, RoleCreator); err != nil {
			return err
		}
		return requireState(room, action, domain.StateCollecting)
	case ActionStartVoting:
		if err := requireRole(role, action, RoleCreator); err != nil {
			return err
		}
		if err := requireState(room, action, domain.StateCollecting); err != nil {
			return err
		}
		if len(room.Options) < 2 {
			return fmt.Errorf("%w: %d options, at least 2 required", ErrInsufficientOptions, len(room.Options))
		}
		return nil
	case ActionVote:
		if err := requireRole(role, action, RoleParticipant, RoleCreator); err != nil {
			return err
		}
		return requireState(room, action, domain.StateVoting)
	case ActionEndVoting:
		if err := requireRole(role, action, RoleCreator); err != nil {
			return err
		}
		return requireState(room, action, domain.StateVoting)
	case ActionResolveTie:
		if err := requireRole(role, action, RoleCreator); err != nil {
			return err
		}
		return requireState(room, action, domain.StateTieDetected)
	case ActionDelete:
		return requireRole(role, action, RoleCreator)
	}
	return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
}

func requireRole(role Role, action Action, allowed ...Role) error {
	for _, r := range allowed {
		if role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not %s", ErrAuthorizationDenied, role, action)
}

func requireState(room *domain.Room, action Action, allowed ...domain.State) error {
	for _, s := range allowed {
		if room.State == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while room is %s", ErrInvalidState, action, room.State)
}
