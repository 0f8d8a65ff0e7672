package ledger

import (
	"errors"
	"sync"
)

var (
	ErrUnknownTitle = errors.New("unknown title asset")
	ErrNotOwner     = errors.New("caller does not own title asset")
)

// TitleRegistry is the in-memory non-fungible asset registry. Each title is a
// unique record identified by a monotonically assigned id.
type TitleRegistry struct {
	mu       sync.Mutex
	nextID   uint64
	owners   map[uint64]string
	metadata map[uint64]string
}

func NewTitleRegistry() *TitleRegistry {
	return &TitleRegistry{
		owners:   make(map[uint64]string),
		metadata: make(map[uint64]string),
	}
}

// SafeMint creates a new title owned by to and returns its id.
func (r *TitleRegistry) SafeMint(to, metadata string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.owners[id] = to
	r.metadata[id] = metadata
	return id
}

func (r *TitleRegistry) OwnerOf(id uint64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return "", ErrUnknownTitle
	}
	return owner, nil
}

// SafeTransferFrom moves a title from from to to. Fails unless from currently
// owns the title.
func (r *TitleRegistry) SafeTransferFrom(from, to string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return ErrUnknownTitle
	}
	if owner != from {
		return ErrNotOwner
	}
	r.owners[id] = to
	return nil
}
