package rest

import (
	"time"

	"github.com/samber/lo"

	"github.com/Xausdorf/decision-room/internal/domain"
)

// roomView - room as shown to one user. Votes are reported as counts, the
// only ballot revealed is the user's own.
type roomView struct {
	ID           string         `json:"id"`
	Code         string         `json:"code"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	CreatorID    string         `json:"creatorId"`
	CreatedAt    time.Time      `json:"createdAt"`
	State        domain.State   `json:"state"`
	Participants []string       `json:"participants"`
	Options      []optionView   `json:"options"`
	MyVote       string         `json:"myVote,omitempty"`
	Result       *domain.Result `json:"result"`
}

type optionView struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	SubmittedBy string `json:"submittedBy"`
	Votes       int    `json:"votes"`
}

func newRoomView(room domain.Room, userID string) roomView {
	myVote, _ := room.VoteOf(userID)
	return roomView{
		ID:           room.ID,
		Code:         room.Code,
		Title:        room.Title,
		Description:  room.Description,
		CreatorID:    room.CreatorID,
		CreatedAt:    room.CreatedAt,
		State:        room.State,
		Participants: room.Participants,
		Options: lo.Map(room.Options, func(o domain.Option, _ int) optionView {
			return optionView{
				ID:          o.ID,
				Text:        o.Text,
				SubmittedBy: o.SubmittedBy,
				Votes:       len(o.Votes),
			}
		}),
		MyVote: myVote,
		Result: room.Result,
	}
}

func newRoomViews(rooms []domain.Room, userID string) []roomView {
	return lo.Map(rooms, func(room domain.Room, _ int) roomView {
		return newRoomView(room, userID)
	})
}
