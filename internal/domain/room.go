package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

// State - phase of a room's lifecycle.
type State string

const (
	StateCollecting  State = "Collecting"
	StateVoting      State = "Voting"
	StateTieDetected State = "TieDetected"
	StateClosed      State = "Closed"
)

func (s State) Valid() bool {
	switch s {
	case StateCollecting, StateVoting, StateTieDetected, StateClosed:
		return true
	}
	return false
}

// Tiebreaker - randomized method used to pick a winner among tied options.
type Tiebreaker string

const (
	TiebreakerDice    Tiebreaker = "dice"
	TiebreakerSpinner Tiebreaker = "spinner"
	TiebreakerCoin    Tiebreaker = "coin"
)

var ErrUnknownTiebreaker = errors.New("unknown tiebreaker")

func ParseTiebreaker(s string) (Tiebreaker, error) {
	switch t := Tiebreaker(s); t {
	case TiebreakerDice, TiebreakerSpinner, TiebreakerCoin:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTiebreaker, s)
}

// Room - decision room aggregate. Mutated only through the lifecycle engine.
type Room struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	State       State     `json:"state"`
	// Participants - user IDs with set semantics, creator always included.
	Participants []string `json:"participants"`
	// Options - in submission order, which is also the tie-break candidate order.
	Options []Option `json:"options"`
	Result  *Result  `json:"result"`
}

// Option - candidate choice proposed by a participant.
type Option struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	SubmittedBy string `json:"submittedBy"`
	// Votes - IDs of users currently voting for this option.
	Votes []string `json:"votes"`
}

// Result - outcome of a closed room.
type Result struct {
	WinningOptionID string `json:"winningOptionId"`
	// Tiebreaker - empty when the room was decided by votes alone.
	Tiebreaker Tiebreaker `json:"tiebreaker,omitempty"`
	ResolvedAt time.Time  `json:"resolvedAt"`
}

func NewRoom(id, code, title, description, creatorID string, createdAt time.Time) *Room {
	return &Room{
		ID:           id,
		Code:         code,
		Title:        title,
		Description:  description,
		CreatorID:    creatorID,
		CreatedAt:    createdAt.UTC(),
		State:        StateCollecting,
		Participants: []string{creatorID},
		Options:      []Option{},
	}
}

func NewOption(id, text, submittedBy string) Option {
	return Option{
		ID:          id,
		Text:        text,
		SubmittedBy: submittedBy,
		Votes:       []string{},
	}
}

// Clone returns a deep copy that shares no slices with r.
func (r *Room) Clone() Room {
	c := *r
	c.Participants = slices.Clone(r.Participants)
	if r.Options != nil {
		c.Options = make([]Option, len(r.Options))
		for i, o := range r.Options {
			o.Votes = slices.Clone(o.Votes)
			c.Options[i] = o
		}
	}
	if r.Result != nil {
		res := *r.Result
		c.Result = &res
	}
	return c
}

func (r *Room) IsOpen() bool {
	return r.State != StateClosed
}

func (r *Room) IsCreator(userID string) bool {
	return userID != "" && r.CreatorID == userID
}

func (r *Room) IsParticipant(userID string) bool {
	return lo.Contains(r.Participants, userID)
}

func (r *Room) AddParticipant(userID string) {
	if !r.IsParticipant(userID) {
		r.Participants = append(r.Participants, userID)
	}
}

func (r *Room) RemoveParticipant(userID string) {
	r.Participants = lo.Without(r.Participants, userID)
}

// OptionIndex returns the position of the option with the given ID, or -1.
func (r *Room) OptionIndex(optionID string) int {
	return slices.IndexFunc(r.Options, func(o Option) bool { return o.ID == optionID })
}

func (r *Room) AddOption(o Option) {
	r.Options = append(r.Options, o)
}

// VoteOf returns the option the user currently votes for.
func (r *Room) VoteOf(userID string) (string, bool) {
	for _, o := range r.Options {
		if lo.Contains(o.Votes, userID) {
			return o.ID, true
		}
	}
	return "", false
}

// WithdrawVote removes the user from every option's vote set.
func (r *Room) WithdrawVote(userID string) {
	for i := range r.Options {
		r.Options[i].Votes = lo.Without(r.Options[i].Votes, userID)
	}
}

// ReplaceVote moves the user's single vote to the option at idx.
func (r *Room) ReplaceVote(userID string, idx int) {
	r.WithdrawVote(userID)
	r.Options[idx].Votes = append(r.Options[idx].Votes, userID)
}

// Close records the winner and moves the room to its terminal state.
func (r *Room) Close(winningOptionID string, tiebreaker Tiebreaker, at time.Time) {
	r.Result = &Result{
		WinningOptionID: winningOptionID,
		Tiebreaker:      tiebreaker,
		ResolvedAt:      at.UTC(),
	}
	r.State = StateClosed
}

var ErrInvariantViolated = errors.New("room invariant violated")

// Validate checks the invariants every observable room must satisfy.
// Used on records coming back from storage.
func (r *Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvariantViolated)
	}
	if !r.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvariantViolated, r.State)
	}
	if !r.IsParticipant(r.CreatorID) {
		return fmt.Errorf("%w: creator %s is not a participant", ErrInvariantViolated, r.CreatorID)
	}
	if len(lo.Uniq(r.Participants)) != len(r.Participants) {
		return fmt.Errorf("%w: duplicate participants", ErrInvariantViolated)
	}
	voted := make(map[string]string)
	for _, o := range r.Options {
		for _, v := range o.Votes {
			if prev, ok := voted[v]; ok {
				return fmt.Errorf("%w: user %s votes for both %s and %s", ErrInvariantViolated, v, prev, o.ID)
			}
			voted[v] = o.ID
		}
	}
	if (r.Result != nil) != (r.State == StateClosed) {
		return fmt.Errorf("%w: result presence does not match state %s", ErrInvariantViolated, r.State)
	}
	if r.Result != nil && r.OptionIndex(r.Result.WinningOptionID) < 0 {
		return fmt.Errorf("%w: winning option %s is not in the room", ErrInvariantViolated, r.Result.WinningOptionID)
	}
	return nil
}
