package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Xausdorf/decision-room/internal/domain"
	"github.com/Xausdorf/decision-room/internal/random"
	"github.com/Xausdorf/decision-room/internal/tiebreak"
)

const maxCodeAttempts = 16

// RoomRepository stores room aggregates. UpdateByID and DeleteByID must run
// their callback and the write as one atomic step per room; a callback error
// leaves the stored room untouched.
type RoomRepository interface {
	Insert(ctx context.Context, room domain.Room) error
	GetByID(ctx context.Context, id string) (domain.Room, error)
	// GetByCode prefers the open room holding code over closed ones.
	GetByCode(ctx context.Context, code string) (domain.Room, error)
	UpdateByID(ctx context.Context, id string, updateFn func(room *domain.Room) error) (domain.Room, error)
	DeleteByID(ctx context.Context, id string, checkFn func(room *domain.Room) error) error
	List(ctx context.Context) ([]domain.Room, error)
}

type TiebreakSelector interface {
	Select(method domain.Tiebreaker, candidates []string) (string, error)
}

// Room is the lifecycle engine, the only mutator of room aggregates.
type Room struct {
	repo     RoomRepository
	selector TiebreakSelector
	log      zerolog.Logger

	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

type RoomOption func(*Room)

func WithClock(now func() time.Time) RoomOption {
	return func(r *Room) { r.now = now }
}

func WithIDGenerator(newID func() string) RoomOption {
	return func(r *Room) { r.newID = newID }
}

func WithCodeGenerator(newCode func() (string, error)) RoomOption {
	return func(r *Room) { r.newCode = newCode }
}

func NewRoom(repo RoomRepository, selector TiebreakSelector, log zerolog.Logger, opts ...RoomOption) *Room {
	r := &Room{
		repo:     repo,
		selector: selector,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
		newCode:  random.NewCode,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Room) CreateRoom(ctx context.Context, userID, title, description string) (domain.Room, error) {
	if userID == "" {
		return domain.Room{}, ErrAuthenticationRequired
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Room{}, fmt.Errorf("%w: empty title", ErrInvalidInput)
	}

	for range maxCodeAttempts {
		code, err := r.newCode()
		if err != nil {
			return domain.Room{}, err
		}
		room := domain.NewRoom(r.newID(), code, title, strings.TrimSpace(description), userID, r.now())
		err = r.repo.Insert(ctx, *room)
		if errors.Is(err, ErrCodeTaken) {
			r.log.Debug().Str("code", code).Msg("room code collision, retrying")
			continue
		}
		if err != nil {
			return domain.Room{}, fmt.Errorf("could not save room: %w", err)
		}
		r.log.Info().Str("room", room.ID).Str("code", room.Code).Str("creator", userID).Msg("room created")
		return room.Clone(), nil
	}
	return domain.Room{}, fmt.Errorf("could not allocate a room code after %d attempts: %w", maxCodeAttempts, ErrCodeTaken)
}

// update runs fn on the room as one atomic read-modify-write, after the
// caller is known to be authenticated.
func (r *Room) update(ctx context.Context, roomID, userID string, fn func(room *domain.Room) error) (domain.Room, error) {
	if userID == "" {
		return domain.Room{}, ErrAuthenticationRequired
	}
	return r.repo.UpdateByID(ctx, roomID, fn)
}

// JoinRoom adds the user to the participants. Joining twice is a no-op.
func (r *Room) JoinRoom(ctx context.Context, roomID, userID string) (domain.Room, error) {
	return r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionJoin); err != nil {
			return err
		}
		room.AddParticipant(userID)
		return nil
	})
}

// JoinByCode joins the open room holding code.
func (r *Room) JoinByCode(ctx context.Context, code, userID string) (domain.Room, error) {
	if userID == "" {
		return domain.Room{}, ErrAuthenticationRequired
	}
	code = random.NormalizeCode(code)
	if !random.IsValidCode(code) {
		return domain.Room{}, fmt.Errorf("%w: no room with code %q", ErrRoomNotFound, code)
	}
	room, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		return domain.Room{}, err
	}
	return r.JoinRoom(ctx, room.ID, userID)
}

// LeaveRoom removes the user from the participants. Votes of a user leaving
// during the voting phase are withdrawn; later phases keep them frozen.
func (r *Room) LeaveRoom(ctx context.Context, roomID, userID string) (domain.Room, error) {
	return r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionLeave); err != nil {
			return err
		}
		if !room.IsParticipant(userID) {
			return nil
		}
		room.RemoveParticipant(userID)
		if room.State == domain.StateVoting {
			room.WithdrawVote(userID)
		}
		return nil
	})
}

func (r *Room) AddOption(ctx context.Context, roomID, userID, text string) (domain.Room, error) {
	text = strings.TrimSpace(text)
	return r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionAddOption); err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("%w: empty option text", ErrInvalidInput)
		}
		room.AddOption(domain.NewOption(r.newID(), text, userID))
		return nil
	})
}

func (r *Room) StartVoting(ctx context.Context, roomID, userID string) (domain.Room, error) {
	room, err := r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionStartVoting); err != nil {
			return err
		}
		room.State = domain.StateVoting
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	r.log.Info().Str("room", roomID).Int("options", len(room.Options)).Msg("voting started")
	return room, nil
}

// CastVote replaces any previous vote of the user with a vote for optionID.
func (r *Room) CastVote(ctx context.Context, roomID, userID, optionID string) (domain.Room, error) {
	return r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionVote); err != nil {
			return err
		}
		idx := room.OptionIndex(optionID)
		if idx < 0 {
			return fmt.Errorf("%w: %s in room %s", ErrOptionNotFound, optionID, room.ID)
		}
		room.ReplaceVote(userID, idx)
		return nil
	})
}

// EndVoting closes the room when a single option leads, otherwise the room
// waits for a tie-break. A room where nobody voted counts as a tie.
func (r *Room) EndVoting(ctx context.Context, roomID, userID string) (domain.Room, error) {
	room, err := r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionEndVoting); err != nil {
			return err
		}
		tally := domain.TallyVotes(room)
		if winner, ok := tally.Winner(); ok {
			room.Close(winner, "", r.now())
			return nil
		}
		room.State = domain.StateTieDetected
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}

	if room.Result != nil {
		r.log.Info().Str("room", roomID).Str("winner", room.Result.WinningOptionID).Msg("voting ended with a winner")
	} else {
		r.log.Info().Str("room", roomID).Msg("voting ended in a tie")
	}
	return room, nil
}

// ResolveTie draws the winner among the tied options and closes the room.
// The draw commits immediately; revealing it later is up to the caller.
func (r *Room) ResolveTie(ctx context.Context, roomID, userID string, method domain.Tiebreaker) (domain.Room, error) {
	if userID == "" {
		return domain.Room{}, ErrAuthenticationRequired
	}
	if _, err := domain.ParseTiebreaker(string(method)); err != nil {
		return domain.Room{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	room, err := r.update(ctx, roomID, userID, func(room *domain.Room) error {
		if err := CanPerform(room, userID, ActionResolveTie); err != nil {
			return err
		}
		tied := domain.TallyVotes(room).Tied
		if !tiebreak.Applicable(method, len(tied)) {
			return fmt.Errorf("%w: %s with %d tied options", ErrTiebreakerNotApplicable, method, len(tied))
		}
		winner, err := r.selector.Select(method, tied)
		if errors.Is(err, tiebreak.ErrNotApplicable) {
			return fmt.Errorf("%w: %w", ErrTiebreakerNotApplicable, err)
		}
		if err != nil {
			return fmt.Errorf("could not draw tie-break winner: %w", err)
		}
		room.Close(winner, method, r.now())
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	r.log.Info().Str("room", roomID).Str("method", string(method)).Str("winner", room.Result.WinningOptionID).Msg("tie resolved")
	return room, nil
}

// DeleteRoom removes the room for good. Only its creator may do so.
func (r *Room) DeleteRoom(ctx context.Context, roomID, userID string) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	if err := r.repo.DeleteByID(ctx, roomID, func(room *domain.Room) error {
		return CanPerform(room, userID, ActionDelete)
	}); err != nil {
		return err
	}
	r.log.Info().Str("room", roomID).Str("user", userID).Msg("room deleted")
	return nil
}
