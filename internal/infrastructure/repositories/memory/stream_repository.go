package memory

import (
	"context"
	"sync"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
)

type MemoryStreamRepository struct {
	streams map[string]*domain.Stream
	mu      sync.RWMutex
}

func NewMemoryStreamRepository() ports.StreamRepository {
	return &MemoryStreamRepository{
		streams: make(map[string]*domain.Stream),
	}
}

// Put stores or replaces a stream. Replacement is deliberate: stream
// creation is last-create-wins.
func (r *MemoryStreamRepository) Put(ctx context.Context, stream *domain.Stream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streams[stream.ID] = stream
	return nil
}

func (r *MemoryStreamRepository) GetByID(ctx context.Context, id string) (*domain.Stream, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stream, exists := r.streams[id]
	if !exists {
		return nil, domain.ErrStreamNotFound
	}
	return stream, nil
}

func (r *MemoryStreamRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.streams[id]; !exists {
		return domain.ErrStreamNotFound
	}
	delete(r.streams, id)
	return nil
}

func (r *MemoryStreamRepository) ListActive(ctx context.Context) ([]*domain.Stream, error) {
	return r.listByStatus(domain.StreamActive), nil
}

func (r *MemoryStreamRepository) ListEnded(ctx context.Context) ([]*domain.Stream, error) {
	return r.listByStatus(domain.StreamEnded), nil
}

func (r *MemoryStreamRepository) listByStatus(status domain.StreamStatus) []*domain.Stream {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Stream
	for _, stream := range r.streams {
		if stream.Status == status {
			matched = append(matched, stream)
		}
	}
	return matched
}
