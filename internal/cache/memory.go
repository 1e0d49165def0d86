// Package cache provides popular-film caches backed by Redis or process memory.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/filmorate/backend/internal/models"
)

type popularEntry struct {
	generation int64
	films      []models.Film
	expires    time.Time
}

// MemoryPopular caches popular-film lists in process memory for a fixed TTL.
type MemoryPopular struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	generation int64
	items      map[int]popularEntry
}

// NewMemoryPopular returns an in-process cache whose entries live for ttl.
func NewMemoryPopular(ttl time.Duration) *MemoryPopular {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryPopular{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[int]popularEntry),
	}
}

// Generation reports the current cache generation.
func (c *MemoryPopular) Generation(context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

// Get returns a copy of the cached list for count while it is fresh and
// belongs to generation.
func (c *MemoryPopular) Get(_ context.Context, generation int64, count int) ([]models.Film, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[count]
	current := c.generation
	c.mu.RUnlock()

	if !ok || entry.generation != generation || generation != current || !c.now().Before(entry.expires) {
		return nil, false, nil
	}
	return cloneFilms(entry.films), true, nil
}

// Set stores a copy of films for count. Lists computed under an older
// generation are dropped.
func (c *MemoryPopular) Set(_ context.Context, generation int64, count int, films []models.Film) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return nil
	}
	c.items[count] = popularEntry{
		generation: generation,
		films:      cloneFilms(films),
		expires:    c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate drops every cached list and starts a new generation.
func (c *MemoryPopular) Invalidate(context.Context) error {
	c.mu.Lock()
	c.generation++
	clear(c.items)
	c.mu.Unlock()
	return nil
}

func cloneFilms(films []models.Film) []models.Film {
	out := make([]models.Film, len(films))
	for i, f := range films {
		f.Genres = slices.Clone(f.Genres)
		out[i] = f
	}
	return out
}
