package ttadapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Xausdorf/decision-room/internal/domain"
)

func testRoom() *domain.Room {
	room := domain.NewRoom("room-1", "K7Q2ZP", "Lunch", "where do we eat", "alice",
		time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC))
	room.AddParticipant("bob")
	room.AddOption(domain.NewOption("opt-pizza", "Pizza", "alice"))
	room.AddOption(domain.NewOption("opt-tacos", "Tacos", "bob"))
	room.State = domain.StateVoting
	room.ReplaceVote("bob", 1)
	return room
}

func TestRoomModelCodec(t *testing.T) {
	t.Run("open room", func(t *testing.T) {
		req := require.New(t)
		room := testRoom()

		raw, err := msgpack.Marshal(NewRoomModel(room))
		req.NoError(err)

		var decoded RoomModel
		req.NoError(msgpack.Unmarshal(raw, &decoded))
		req.Equal(*room, decoded.ToRoom())
		req.Nil(decoded.Room.Result)
	})

	t.Run("closed by tiebreak", func(t *testing.T) {
		req := require.New(t)
		room := testRoom()
		room.Close("opt-tacos", domain.TiebreakerSpinner, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC))

		raw, err := msgpack.Marshal(NewRoomModel(room))
		req.NoError(err)

		var decoded RoomModel
		req.NoError(msgpack.Unmarshal(raw, &decoded))
		req.Equal(*room, decoded.ToRoom())
		req.NoError(decoded.Room.Validate())
	})
}

func TestRoomModelIsTuple(t *testing.T) {
	req := require.New(t)

	raw, err := msgpack.Marshal(NewRoomModel(testRoom()))
	req.NoError(err)

	var tuple []interface{}
	req.NoError(msgpack.Unmarshal(raw, &tuple))
	req.Len(tuple, roomModelFields)
	req.Equal("room-1", tuple[0])
	req.Equal("Voting", tuple[6])
	req.Nil(tuple[9])
}

func TestRoomModelRejectsShortTuple(t *testing.T) {
	raw, err := msgpack.Marshal([]interface{}{"room-1", "K7Q2ZP"})
	require.NoError(t, err)

	var decoded RoomModel
	require.Error(t, msgpack.Unmarshal(raw, &decoded))
}
