package badgeradapter

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Xausdorf/decision-room/internal/domain"
)

func setupTestDB(t *testing.T) *badger.DB {
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRoom(id string) domain.Room {
	room := domain.NewRoom(id, "K7Q2ZP", "Lunch", "", "alice", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	room.AddParticipant("bob")
	room.AddOption(domain.NewOption(id+"-pizza", "Pizza", "alice"))
	room.AddOption(domain.NewOption(id+"-tacos", "Tacos", "bob"))
	return *room
}

func TestRoomAdapter_SaveAndLoad(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	adapter := NewRoomAdapter(setupTestDB(t), zerolog.Nop())

	rooms, err := adapter.LoadAll(ctx)
	req.NoError(err)
	req.Empty(rooms)

	open := testRoom("r1")
	closed := testRoom("r2")
	closed.State = domain.StateVoting
	closed.ReplaceVote("bob", 1)
	closed.Close("r2-tacos", domain.TiebreakerDice, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC))

	req.NoError(adapter.SaveAll(ctx, []domain.Room{open, closed}))

	rooms, err = adapter.LoadAll(ctx)
	req.NoError(err)
	req.Equal([]domain.Room{open, closed}, rooms)
}

func TestRoomAdapter_SaveAllDropsStaleRooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := setupTestDB(t)
	adapter := NewRoomAdapter(db, zerolog.Nop())

	req.NoError(adapter.SaveAll(ctx, []domain.Room{testRoom("r1"), testRoom("r2")}))
	req.NoError(adapter.SaveAll(ctx, []domain.Room{testRoom("r2")}))

	rooms, err := adapter.LoadAll(ctx)
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal("r2", rooms[0].ID)

	err = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey("r1"))
		return err
	})
	req.ErrorIs(err, badger.ErrKeyNotFound)
}

func TestRoomAdapter_IgnoresForeignKeys(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := setupTestDB(t)
	adapter := NewRoomAdapter(db, zerolog.Nop())

	req.NoError(db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("meta:version"), []byte("1"))
	}))
	req.NoError(adapter.SaveAll(ctx, []domain.Room{testRoom("r1")}))

	rooms, err := adapter.LoadAll(ctx)
	req.NoError(err)
	req.Len(rooms, 1)

	req.NoError(db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("meta:version"))
		return err
	}))
}

func TestRoomAdapter_PersistsAcrossReopen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	db, err := Open(dir)
	req.NoError(err)
	req.NoError(NewRoomAdapter(db, zerolog.Nop()).SaveAll(ctx, []domain.Room{testRoom("r1")}))
	req.NoError(db.Close())

	db, err = Open(dir)
	req.NoError(err)
	defer db.Close()

	rooms, err := NewRoomAdapter(db, zerolog.Nop()).LoadAll(ctx)
	req.NoError(err)
	req.Equal([]domain.Room{testRoom("r1")}, rooms)
}
