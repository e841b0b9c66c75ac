package ttadapter

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/Xausdorf/decision-room/internal/domain"
)

// RoomModel is the tuple stored in the rooms space:
//
//	[id, code, title, description, creator_id, created_at, state,
//	 participants, options, result]
//
// created_at and resolved_at are unix nanoseconds, an option is
// [id, text, submitted_by, votes] and result is nil or
// [winning_option_id, tiebreaker, resolved_at].
type RoomModel struct {
	Room domain.Room
}

const (
	roomModelFields   = 10
	optionModelFields = 4
	resultModelFields = 3
)

func NewRoomModel(room *domain.Room) *RoomModel {
	return &RoomModel{Room: room.Clone()}
}

func (m *RoomModel) ToRoom() domain.Room {
	return m.Room.Clone()
}

func (m *RoomModel) EncodeMsgpack(e *msgpack.Encoder) error {
	r := &m.Room
	if err := e.EncodeArrayLen(roomModelFields); err != nil {
		return err
	}
	for _, s := range []string{r.ID, r.Code, r.Title, r.Description, r.CreatorID} {
		if err := e.EncodeString(s); err != nil {
			return err
		}
	}
	if err := e.EncodeInt(r.CreatedAt.UnixNano()); err != nil {
		return err
	}
	if err := e.EncodeString(string(r.State)); err != nil {
		return err
	}
	if err := encodeStrings(e, r.Participants); err != nil {
		return err
	}

	if err := e.EncodeArrayLen(len(r.Options)); err != nil {
		return err
	}
	for _, o := range r.Options {
		if err := e.EncodeArrayLen(optionModelFields); err != nil {
			return err
		}
		if err := e.EncodeString(o.ID); err != nil {
			return err
		}
		if err := e.EncodeString(o.Text); err != nil {
			return err
		}
		if err := e.EncodeString(o.SubmittedBy); err != nil {
			return err
		}
		if err := encodeStrings(e, o.Votes); err != nil {
			return err
		}
	}

	if r.Result == nil {
		return e.EncodeNil()
	}
	if err := e.EncodeArrayLen(resultModelFields); err != nil {
		return err
	}
	if err := e.EncodeString(r.Result.WinningOptionID); err != nil {
		return err
	}
	if err := e.EncodeString(string(r.Result.Tiebreaker)); err != nil {
		return err
	}
	return e.EncodeInt(r.Result.ResolvedAt.UnixNano())
}

func (m *RoomModel) DecodeMsgpack(d *msgpack.Decoder) error {
	var err error
	var l int
	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	if l != roomModelFields {
		return fmt.Errorf("array len doesn't match: %d", l)
	}

	r := domain.Room{}
	for _, s := range []*string{&r.ID, &r.Code, &r.Title, &r.Description, &r.CreatorID} {
		if *s, err = d.DecodeString(); err != nil {
			return err
		}
	}
	if r.CreatedAt, err = decodeTime(d); err != nil {
		return err
	}
	var state string
	if state, err = d.DecodeString(); err != nil {
		return err
	}
	r.State = domain.State(state)
	if r.Participants, err = decodeStrings(d); err != nil {
		return err
	}

	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	r.Options = make([]domain.Option, max(l, 0))
	for i := range r.Options {
		if r.Options[i], err = decodeOption(d); err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
	}

	if r.Result, err = decodeResult(d); err != nil {
		return fmt.Errorf("result: %w", err)
	}
	m.Room = r
	return nil
}

func decodeOption(d *msgpack.Decoder) (domain.Option, error) {
	var o domain.Option
	l, err := d.DecodeArrayLen()
	if err != nil {
		return o, err
	}
	if l != optionModelFields {
		return o, fmt.Errorf("array len doesn't match: %d", l)
	}
	if o.ID, err = d.DecodeString(); err != nil {
		return o, err
	}
	if o.Text, err = d.DecodeString(); err != nil {
		return o, err
	}
	if o.SubmittedBy, err = d.DecodeString(); err != nil {
		return o, err
	}
	if o.Votes, err = decodeStrings(d); err != nil {
		return o, err
	}
	return o, nil
}

func decodeResult(d *msgpack.Decoder) (*domain.Result, error) {
	c, err := d.PeekCode()
	if err != nil {
		return nil, err
	}
	if c == msgpcode.Nil {
		return nil, d.DecodeNil()
	}

	l, err := d.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if l != resultModelFields {
		return nil, fmt.Errorf("array len doesn't match: %d", l)
	}
	res := &domain.Result{}
	if res.WinningOptionID, err = d.DecodeString(); err != nil {
		return nil, err
	}
	var method string
	if method, err = d.DecodeString(); err != nil {
		return nil, err
	}
	res.Tiebreaker = domain.Tiebreaker(method)
	if res.ResolvedAt, err = decodeTime(d); err != nil {
		return nil, err
	}
	return res, nil
}

func encodeStrings(e *msgpack.Encoder, ss []string) error {
	if err := e.EncodeArrayLen(len(ss)); err != nil {
		return err
	}
	for _, s := range ss {
		if err := e.EncodeString(s); err != nil {
			return err
		}
	}
	return nil
}

func decodeStrings(d *msgpack.Decoder) ([]string, error) {
	l, err := d.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	ss := make([]string, max(l, 0))
	for i := range ss {
		if ss[i], err = d.DecodeString(); err != nil {
			return nil, err
		}
	}
	return ss, nil
}

func decodeTime(d *msgpack.Decoder) (time.Time, error) {
	ns, err := d.DecodeInt64()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}
