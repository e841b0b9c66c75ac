//go:generate go run go.uber.org/mock/mockgen -source=adapter.go -destination=../../mocks/mock_persistence_adapter.go -package=mocks
package memory

import (
	"context"

	"github.com/Xausdorf/decision-room/internal/domain"
)

// PersistenceAdapter loads and saves the whole room collection as an opaque
// blob. SaveAll replaces whatever was stored before.
type PersistenceAdapter interface {
	LoadAll(ctx context.Context) ([]domain.Room, error)
	SaveAll(ctx context.Context, rooms []domain.Room) error
}

// NopAdapter keeps nothing, rooms live as long as the process.
type NopAdapter struct{}

func (NopAdapter) LoadAll(context.Context) ([]domain.Room, error) { return nil, nil }

func (NopAdapter) SaveAll(context.Context, []domain.Room) error { return nil }
