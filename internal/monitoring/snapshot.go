package monitoring

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// Directory is the slice of the listing directory the snapshotter reads.
type Directory interface {
	List() []*listing.Listing
}

// Snapshotter periodically logs the derived status of every listing and its
// rounds. It is strictly read-only: statuses are lazy and advance themselves;
// the snapshot only observes.
type Snapshotter struct {
	directory Directory
	logger    *zap.Logger
	cron      *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewSnapshotter(directory Directory, logger *zap.Logger) *Snapshotter {
	return &Snapshotter{
		directory: directory,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start schedules snapshots on the given cron expression.
func (s *Snapshotter) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("snapshotter already running")
	}
	if _, err := s.cron.AddFunc(spec, s.Snapshot); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.running = true
	return nil
}

func (s *Snapshotter) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
}

// Snapshot logs one pass over every listing.
func (s *Snapshotter) Snapshot() {
	for _, l := range s.directory.List() {
		fields := []zap.Field{
			zap.Uint64("listing_id", l.ID()),
			zap.String("status", l.Status().String()),
		}
		if iro := l.IRO(); iro != nil {
			fields = append(fields,
				zap.String("iro_status", iro.Status().String()),
				zap.Uint64("committed", iro.Committed()),
				zap.Uint64("goal", iro.Goal()))
		}
		for i, b := range l.Buyouts() {
			fields = append(fields,
				zap.String(fmt.Sprintf("buyout_%d_status", i), b.Status().String()))
		}
		s.logger.Info("listing snapshot", fields...)
	}
}
