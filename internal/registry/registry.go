// Package registry holds the process-wide pair→latest-merged-book map.
// It is the only in-process shared mutable state in the service; the
// contract is that every Get observes either the previous or the next
// Put for a pair, never a torn intermediate.
package registry

import (
	"sync"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

// Registry is safe for concurrent reads and writes.
type Registry struct {
	mu     sync.RWMutex
	books  map[domain.Pair]domain.Book
}

// New returns an initialized, empty Registry.
func New() *Registry {
	r := &Registry{}
	r.Init()
	return r
}

// Init is idempotent; it ensures the underlying map exists.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.books == nil {
		r.books = make(map[domain.Pair]domain.Book)
	}
}

// Get returns the latest published Book for pair, or ok=false if none has
// been published yet.
func (r *Registry) Get(pair domain.Pair) (domain.Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[pair]
	return b, ok
}

// Put atomically overwrites the entry for pair with book. Readers never
// observe a partially-updated Book because the whole value is replaced
// under the write lock.
func (r *Registry) Put(pair domain.Pair, b domain.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.books == nil {
		r.books = make(map[domain.Pair]domain.Book)
	}
	r.books[pair] = b
}

// Flush clears all entries, used at shutdown.
func (r *Registry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = make(map[domain.Pair]domain.Book)
}
