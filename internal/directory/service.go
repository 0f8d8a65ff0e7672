package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// Notifier delivers directory events to connected clients.
type Notifier interface {
	Broadcast(event string, data map[string]interface{})
}

// CreateListingRequest carries the parameters for a new listing.
type CreateListingRequest struct {
	Name  string `json:"name"`
	Goal  uint64 `json:"goal"`
	Media string `json:"media"` // JSON metadata document
}

// Service is the listing directory: it instantiates listings from the active
// template set, hands out monotonically increasing ids starting at zero and
// resolves ids back to handles.
type Service interface {
	NewListing(ctx context.Context, caller string, req CreateListingRequest) (*listing.Listing, error)
	Get(id uint64) (*listing.Listing, error)
	List() []*listing.Listing
	NumListings() uint64
}

type service struct {
	registry     *Registry
	fundingToken listing.FungibleLedger
	deps         listing.Deps
	admin        AdminChecker
	repo         Repository
	notifier     Notifier
	logger       *zap.Logger

	mu       sync.RWMutex
	listings []*listing.Listing
}

// AdminChecker gates listing creation to platform administrators.
type AdminChecker interface {
	IsAdmin(account string) bool
}

func NewService(
	registry *Registry,
	fundingToken listing.FungibleLedger,
	deps listing.Deps,
	admin AdminChecker,
	repo Repository,
	notifier Notifier,
	logger *zap.Logger,
) Service {
	return &service{
		registry:     registry,
		fundingToken: fundingToken,
		deps:         deps,
		admin:        admin,
		repo:         repo,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *service) NewListing(ctx context.Context, caller string, req CreateListingRequest) (*listing.Listing, error) {
	if !s.admin.IsAdmin(caller) {
		return nil, listing.ErrUnauthorized
	}
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Goal == 0 {
		return nil, errors.New("goal must be positive")
	}
	set, err := s.registry.Active()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := uint64(len(s.listings))
	l := set.NewListing(id, req.Name, s.fundingToken, req.Goal, req.Media, s.deps)
	s.listings = append(s.listings, l)
	s.mu.Unlock()

	if s.repo != nil {
		record := &ListingRecord{
			ListingID: id,
			Name:      req.Name,
			Goal:      req.Goal,
			Status:    l.Status().String(),
			Template:  set.Version,
		}
		if req.Media != "" {
			record.Media = datatypes.JSON(req.Media)
		}
		if err := s.repo.Create(ctx, record); err != nil {
			s.logger.Warn("listing record not persisted",
				zap.Uint64("listing_id", id), zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.Broadcast("NewListing", map[string]interface{}{
			"listing_id": id,
			"name":       req.Name,
			"goal":       req.Goal,
		})
	}

	s.logger.Info("listing created",
		zap.Uint64("listing_id", id),
		zap.String("name", req.Name),
		zap.Uint64("goal", req.Goal),
		zap.Int("template_version", set.Version))
	return l, nil
}

func (s *service) Get(id uint64) (*listing.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.listings)) {
		return nil, fmt.Errorf("no listing %d", id)
	}
	return s.listings[id], nil
}

func (s *service) List() []*listing.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*listing.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

func (s *service) NumListings() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.listings))
}
