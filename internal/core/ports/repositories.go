package ports

import (
	"context"

	"newspulse/internal/core/domain"
)

type StreamRepository interface {
	Put(ctx context.Context, stream *domain.Stream) error
	GetByID(ctx context.Context, id string) (*domain.Stream, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*domain.Stream, error)
	ListEnded(ctx context.Context) ([]*domain.Stream, error)
}
