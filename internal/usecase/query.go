package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/Xausdorf/decision-room/internal/domain"
)

func (r *Room) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	return r.repo.GetByID(ctx, roomID)
}

// ViewRoom returns the room to one of its members. Gateways showing a room to
// a user go through here rather than GetRoom.
func (r *Room) ViewRoom(ctx context.Context, roomID, userID string) (domain.Room, error) {
	if userID == "" {
		return domain.Room{}, ErrAuthenticationRequired
	}
	room, err := r.repo.GetByID(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if err := CanPerform(&room, userID, ActionView); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// ListUserRooms returns the rooms the user takes part in, newest first.
func (r *Room) ListUserRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	if userID == "" {
		return nil, ErrAuthenticationRequired
	}
	rooms, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	rooms = lo.Filter(rooms, func(room domain.Room, _ int) bool {
		return room.IsParticipant(userID) || room.IsCreator(userID)
	})
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

// ListHistory returns the user's decided rooms, most recently resolved first.
func (r *Room) ListHistory(ctx context.Context, userID string) ([]domain.Room, error) {
	rooms, err := r.ListUserRooms(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms = lo.Filter(rooms, func(room domain.Room, _ int) bool {
		return room.State == domain.StateClosed && room.Result != nil
	})
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].Result.ResolvedAt.After(rooms[j].Result.ResolvedAt)
	})
	return rooms, nil
}

// UserVote returns the option the user currently votes for in the room.
func (r *Room) UserVote(ctx context.Context, roomID, userID string) (string, bool, error) {
	room, err := r.repo.GetByID(ctx, roomID)
	if err != nil {
		return "", false, err
	}
	optionID, ok := room.VoteOf(userID)
	return optionID, ok, nil
}

func (r *Room) HasUserVoted(ctx context.Context, roomID, userID string) (bool, error) {
	_, ok, err := r.UserVote(ctx, roomID, userID)
	return ok, err
}

func (r *Room) Tally(ctx context.Context, roomID string) (domain.Tally, error) {
	room, err := r.repo.GetByID(ctx, roomID)
	if err != nil {
		return domain.Tally{}, err
	}
	return domain.TallyVotes(&room), nil
}

// IsTied reports whether the room's current votes leave several options
// sharing the lead while the decision is still pending.
func (r *Room) IsTied(ctx context.Context, roomID string) (bool, error) {
	room, err := r.repo.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room.State != domain.StateVoting && room.State != domain.StateTieDetected {
		return false, nil
	}
	return domain.TallyVotes(&room).IsTie(), nil
}

// CanPerform exposes the authorization decision for a stored room so that
// user interfaces enable exactly the actions the engine accepts.
func (r *Room) CanPerform(ctx context.Context, roomID, userID string, action Action) error {
	room, err := r.repo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	return CanPerform(&room, userID, action)
}

// Permissions evaluates every action for the user, nil meaning allowed.
func (r *Room) Permissions(ctx context.Context, roomID, userID string) (map[Action]error, error) {
	room, err := r.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(Actions, func(a Action) (Action, error) {
		return a, CanPerform(&room, userID, a)
	}), nil
}
