package directory

import (
	"fmt"
	"sync"

	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// TemplateSet is one versioned recipe for instantiating a listing and its
// escrow engines. New listings always use the highest registered version;
// listings built from older versions keep running unchanged.
type TemplateSet struct {
	Version     int
	NewListing  func(id uint64, name string, fundingToken listing.FungibleLedger, goal uint64, media string, deps listing.Deps) *listing.Listing
	Description string
}

// Registry holds every registered template set.
type Registry struct {
	mu     sync.RWMutex
	sets   map[int]TemplateSet
	active int
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[int]TemplateSet)}
}

// Register adds a template set. The highest version becomes active.
func (r *Registry) Register(set TemplateSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set.NewListing == nil {
		return fmt.Errorf("template set %d has no listing constructor", set.Version)
	}
	if _, exists := r.sets[set.Version]; exists {
		return fmt.Errorf("template set %d already registered", set.Version)
	}
	r.sets[set.Version] = set
	if set.Version > r.active {
		r.active = set.Version
	}
	return nil
}

// Active returns the template set new listings are built from.
func (r *Registry) Active() (TemplateSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[r.active]
	if !ok {
		return TemplateSet{}, fmt.Errorf("no template set registered")
	}
	return set, nil
}

// Version returns a specific template set.
func (r *Registry) Version(v int) (TemplateSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[v]
	if !ok {
		return TemplateSet{}, fmt.Errorf("no template set version %d", v)
	}
	return set, nil
}

// DefaultTemplateSet is the v1 recipe wiring the stock engine constructors.
func DefaultTemplateSet() TemplateSet {
	return TemplateSet{
		Version:     1,
		NewListing:  listing.NewListing,
		Description: "crowdfunded fractional ownership with reverse-auction buyouts",
	}
}
