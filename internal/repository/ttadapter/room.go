package ttadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/tarantool/go-tarantool/v2"

	"github.com/Xausdorf/decision-room/internal/domain"
)

const (
	DefaultRoomSpace = "rooms"
	primaryIndex     = "primary"
)

// RoomAdapter persists the room collection in a Tarantool space with the
// room id as primary key.
type RoomAdapter struct {
	conn  *tarantool.Connection
	space string
}

func NewRoomAdapter(conn *tarantool.Connection, space string) *RoomAdapter {
	if space == "" {
		space = DefaultRoomSpace
	}
	return &RoomAdapter{
		conn:  conn,
		space: space,
	}
}

func (a *RoomAdapter) LoadAll(ctx context.Context) ([]domain.Room, error) {
	var res []RoomModel
	if err := a.conn.Do(
		tarantool.NewSelectRequest(a.space).
			Context(ctx).
			Index(primaryIndex).
			Iterator(tarantool.IterAll).
			Key([]interface{}{}),
	).GetTyped(&res); err != nil {
		return nil, fmt.Errorf("could not select typed rooms in tarantool: %w", err)
	}
	return lo.Map(res, func(m RoomModel, _ int) domain.Room {
		return m.ToRoom()
	}), nil
}

// SaveAll replaces every given room and deletes stored rooms missing from
// rooms. Failures of single requests are collected, not aborted on.
func (a *RoomAdapter) SaveAll(ctx context.Context, rooms []domain.Room) error {
	stored, err := a.LoadAll(ctx)
	if err != nil {
		return err
	}
	current := lo.SliceToMap(rooms, func(room domain.Room) (string, struct{}) {
		return room.ID, struct{}{}
	})

	var errs []error
	for i := range rooms {
		if _, err = a.conn.Do(
			tarantool.NewReplaceRequest(a.space).
				Context(ctx).
				Tuple(NewRoomModel(&rooms[i])),
		).Get(); err != nil {
			errs = append(errs, fmt.Errorf("could not replace room %s in tarantool: %w", rooms[i].ID, err))
		}
	}
	for _, room := range stored {
		if _, ok := current[room.ID]; ok {
			continue
		}
		if _, err = a.conn.Do(
			tarantool.NewDeleteRequest(a.space).
				Context(ctx).
				Index(primaryIndex).
				Key(tarantool.StringKey{S: room.ID}),
		).Get(); err != nil {
			errs = append(errs, fmt.Errorf("could not delete room %s in tarantool: %w", room.ID, err))
		}
	}
	return errors.Join(errs...)
}
