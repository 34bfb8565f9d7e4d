package glyph

import (
	"fmt"

	"github.com/gogpu/chatglyph/cache"
	"github.com/gogpu/chatglyph/internal/logging"
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithAtlasHook registers fn to run on the render goroutine after each
// published record is stored. Hosts use it to re-register their glyph atlas.
func WithAtlasHook(fn func(rec *Record)) StoreOption {
	return func(s *Store) {
		s.onStore = fn
	}
}

// Store maps codepoints to glyph records. Reads are safe from any
// goroutine. Writes belong to the render goroutine: call Put from it
// directly, or Publish from anywhere else.
type Store struct {
	records *cache.Sharded[rune, *Record]
	queue   *RenderQueue
	onStore func(rec *Record)
}

// NewStore creates an empty store whose published records are applied by
// queue.
func NewStore(queue *RenderQueue, opts ...StoreOption) *Store {
	s := &Store{
		records: cache.NewSharded[rune, *Record](0, cache.RuneHasher),
		queue:   queue,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores rec. It must run on the render goroutine.
func (s *Store) Put(rec *Record) error {
	if rec == nil || rec.Image == nil {
		return ErrNilImage
	}
	if rec.Codepoint == NoCodepoint {
		return ErrNoCodepoint
	}
	if !s.records.PutIfAbsent(rec.Codepoint, rec) {
		return fmt.Errorf("%w: %d (%s)", ErrDuplicateCodepoint, rec.Codepoint, rec.SourcePath)
	}
	if s.onStore != nil {
		s.onStore(rec)
	}
	return nil
}

// Publish queues rec to be stored on the render goroutine. Safe from any
// goroutine. Returns false if the render queue is closed.
func (s *Store) Publish(rec *Record) bool {
	return s.queue.Submit(func() {
		if err := s.Put(rec); err != nil {
			logging.Logger().Error("glyph: publish failed", "err", err)
		}
	})
}

// Get returns the record for cp.
func (s *Store) Get(cp rune) (*Record, bool) {
	return s.records.Get(cp)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return s.records.Len()
}

// Queue returns the render queue the store publishes through.
func (s *Store) Queue() *RenderQueue {
	return s.queue
}
