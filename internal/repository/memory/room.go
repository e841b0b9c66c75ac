// Package memory holds the in-memory room collection the lifecycle engine
// works on. Each room has its own lock, so operations on distinct rooms never
// wait for each other. Every change schedules a save of the whole collection
// through a PersistenceAdapter; saving happens in the background and its
// failures are logged, never reported to the operation that caused them.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/Xausdorf/decision-room/internal/domain"
	"github.com/Xausdorf/decision-room/internal/usecase"
)

var ErrDuplicateID = errors.New("room id already exists")

type entry struct {
	mu      sync.Mutex
	room    domain.Room
	deleted bool
}

type RoomRepository struct {
	// mu guards the maps. Lock order is mu, then an entry's mu.
	mu     sync.RWMutex
	rooms  map[string]*entry
	byCode map[string][]string

	adapter PersistenceAdapter
	timeout time.Duration
	dirty   chan struct{}
	saveMu  sync.Mutex
	log     zerolog.Logger
}

func NewRoomRepository(adapter PersistenceAdapter, log zerolog.Logger, saveTimeout time.Duration) *RoomRepository {
	if adapter == nil {
		adapter = NopAdapter{}
	}
	return &RoomRepository{
		rooms:   make(map[string]*entry),
		byCode:  make(map[string][]string),
		adapter: adapter,
		timeout: saveTimeout,
		dirty:   make(chan struct{}, 1),
		log:     log,
	}
}

// Load fills the repository from the adapter. Records breaking a room
// invariant are skipped.
func (r *RoomRepository) Load(ctx context.Context) error {
	rooms, err := r.adapter.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("could not load rooms: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	loaded := 0
	for _, room := range rooms {
		if err = room.Validate(); err != nil {
			r.log.Warn().Err(err).Str("room", room.ID).Msg("skipping stored room")
			continue
		}
		if _, ok := r.rooms[room.ID]; ok {
			r.log.Warn().Str("room", room.ID).Msg("skipping duplicate stored room")
			continue
		}
		r.rooms[room.ID] = &entry{room: room.Clone()}
		r.byCode[room.Code] = append(r.byCode[room.Code], room.ID)
		loaded++
	}
	r.log.Info().Int("rooms", loaded).Msg("rooms loaded")
	return nil
}

func (r *RoomRepository) Insert(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, room.ID)
	}
	for _, id := range r.byCode[room.Code] {
		e := r.rooms[id]
		e.mu.Lock()
		open := e.room.IsOpen()
		e.mu.Unlock()
		if open {
			return fmt.Errorf("%w: %s", usecase.ErrCodeTaken, room.Code)
		}
	}
	r.rooms[room.ID] = &entry{room: room.Clone()}
	r.byCode[room.Code] = append(r.byCode[room.Code], room.ID)
	r.changed()
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	e := r.entry(id)
	if e == nil {
		return domain.Room{}, notFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Room{}, notFound(id)
	}
	return e.room.Clone(), nil
}

func (r *RoomRepository) GetByCode(ctx context.Context, code string) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byCode[code]))
	for _, id := range r.byCode[code] {
		entries = append(entries, r.rooms[id])
	}
	r.mu.RUnlock()

	var closed *domain.Room
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			room := e.room.Clone()
			if room.IsOpen() {
				e.mu.Unlock()
				return room, nil
			}
			closed = &room
		}
		e.mu.Unlock()
	}
	if closed != nil {
		return *closed, nil
	}
	return domain.Room{}, fmt.Errorf("%w: no room with code %s", usecase.ErrRoomNotFound, code)
}

// UpdateByID applies updateFn to a copy of the room under the room's lock and
// stores the copy only when updateFn succeeds.
func (r *RoomRepository) UpdateByID(ctx context.Context, id string, updateFn func(room *domain.Room) error) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	e := r.entry(id)
	if e == nil {
		return domain.Room{}, notFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Room{}, notFound(id)
	}
	work := e.room.Clone()
	if err := updateFn(&work); err != nil {
		return domain.Room{}, err
	}
	e.room = work
	r.changed()
	return work.Clone(), nil
}

func (r *RoomRepository) DeleteByID(ctx context.Context, id string, checkFn func(room *domain.Room) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.rooms[id]
	if e == nil {
		return notFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	room := e.room.Clone()
	if checkFn != nil {
		if err := checkFn(&room); err != nil {
			return err
		}
	}
	e.deleted = true
	delete(r.rooms, id)
	if ids := lo.Without(r.byCode[room.Code], id); len(ids) > 0 {
		r.byCode[room.Code] = ids
	} else {
		delete(r.byCode, room.Code)
	}
	r.changed()
	return nil
}

// List returns a copy of every room, oldest first.
func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// Run saves the collection after changes until ctx is done. Bursts of
// changes are coalesced into one save.
func (r *RoomRepository) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.dirty:
			_ = r.save(ctx)
		}
	}
}

// Flush saves the collection synchronously, e.g. on shutdown.
func (r *RoomRepository) Flush(ctx context.Context) error {
	select {
	case <-r.dirty:
	default:
	}
	return r.save(ctx)
}

func (r *RoomRepository) save(ctx context.Context) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	rooms := r.snapshot()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.adapter.SaveAll(ctx, rooms); err != nil {
		r.log.Error().Err(err).Int("rooms", len(rooms)).Msg("could not persist rooms")
		return err
	}
	r.log.Debug().Int("rooms", len(rooms)).Msg("rooms persisted")
	return nil
}

func (r *RoomRepository) changed() {
	select {
	case r.dirty <- struct{}{}:
	default:
	}
}

func (r *RoomRepository) entry(id string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

func (r *RoomRepository) snapshot() []domain.Room {
	r.mu.RLock()
	entries := lo.Values(r.rooms)
	r.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			rooms = append(rooms, e.room.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", usecase.ErrRoomNotFound, id)
}
