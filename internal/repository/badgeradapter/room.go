// Package badgeradapter keeps the room collection in an embedded BadgerDB,
// one JSON record per room under the "room:" key prefix.
package badgeradapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/Xausdorf/decision-room/internal/domain"
)

var roomPrefix = []byte("room:")

func roomKey(id string) []byte {
	return append(bytes.Clone(roomPrefix), id...)
}

type RoomAdapter struct {
	db  *badger.DB
	log zerolog.Logger
}

func NewRoomAdapter(db *badger.DB, log zerolog.Logger) *RoomAdapter {
	return &RoomAdapter{
		db:  db,
		log: log,
	}
}

// Open opens (or creates) the database at path. An empty path keeps the
// database in memory.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger at %q: %w", path, err)
	}
	return db, nil
}

func (a *RoomAdapter) LoadAll(ctx context.Context) ([]domain.Room, error) {
	rooms := []domain.Room{}
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = roomPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var room domain.Room
				if err := json.Unmarshal(v, &room); err != nil {
					return fmt.Errorf("failed to unmarshal room %s: %w", item.Key(), err)
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not load rooms from badger: %w", err)
	}
	return rooms, nil
}

// SaveAll writes rooms and drops stored rooms missing from them, in one
// transaction.
func (a *RoomAdapter) SaveAll(ctx context.Context, rooms []domain.Room) error {
	values := make(map[string][]byte, len(rooms))
	for i := range rooms {
		data, err := json.Marshal(&rooms[i])
		if err != nil {
			return fmt.Errorf("failed to marshal room %s: %w", rooms[i].ID, err)
		}
		values[string(roomKey(rooms[i].ID))] = data
	}

	err := a.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = roomPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, ok := values[string(key)]; !ok {
				stale = append(stale, key)
			}
		}
		it.Close()

		if err := ctx.Err(); err != nil {
			return err
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for key, data := range values {
			if err := txn.Set([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not save rooms to badger: %w", err)
	}
	a.log.Debug().Int("rooms", len(rooms)).Msg("rooms written to badger")
	return nil
}
