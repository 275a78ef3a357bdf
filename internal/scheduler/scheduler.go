package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/b31417592/location-insights/internal/geo"
	"github.com/b31417592/location-insights/internal/store"
	"github.com/b31417592/location-insights/internal/traffic"
	"github.com/go-co-op/gocron"
)

const (
	refreshRadiusMeters = 2000
	refreshTopN         = 3
	perTargetTimeout    = 2 * time.Minute
)

// Scheduler periodically refreshes foot-traffic rankings for saved targets.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *traffic.Service
	targets   *store.TargetStore
	cache     *store.SnapshotCache
	interval  time.Duration
	limit     int
}

// New creates a Scheduler that refreshes up to limit recent targets every
// interval.
func New(service *traffic.Service, targets *store.TargetStore, cache *store.SnapshotCache, interval time.Duration, limit int) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		targets:   targets,
		cache:     cache,
		interval:  interval,
		limit:     limit,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.refreshAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refreshAll() {
	log.Println("scheduler: running foot traffic refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	targets, err := s.targets.RecentTargets(ctx, s.limit)
	cancel()
	if err != nil {
		log.Printf("ERROR: scheduler: load targets: %v", err)
		return
	}
	if len(targets) == 0 {
		log.Println("scheduler: no targets to refresh")
		return
	}

	var wg sync.WaitGroup
	for _, target := range targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refreshTarget(target)
		}()
	}
	wg.Wait()

	log.Println("scheduler: completed foot traffic refresh job")
}

func (s *Scheduler) refreshTarget(target store.Target) {
	ctx, cancel := context.WithTimeout(context.Background(), perTargetTimeout)
	defer cancel()

	query := target.BusinessType
	if query == "" {
		query = "business"
	}

	out, err := s.service.Resolve(ctx, traffic.SearchQuery{
		QueryText:    query,
		Center:       geo.Coordinate{Latitude: target.Latitude, Longitude: target.Longitude},
		RadiusMeters: refreshRadiusMeters,
		TopN:         refreshTopN,
	})
	if err != nil {
		log.Printf("scheduler: refresh failed for %s: %v", target.PublicID, err)
		return
	}
	if out.Kind != traffic.OutcomeRanked {
		log.Printf("scheduler: refresh for %s ended %s; skipping", target.PublicID, out.Kind)
		return
	}

	snap := store.TrafficSnapshot{
		Timestamp: time.Now().UTC(),
		Source:    "besttime",
		Venues:    out.Venues,
	}
	s.cache.Add(target.PublicID, snap)

	details, err := json.Marshal(snap)
	if err != nil {
		log.Printf("scheduler: encode snapshot for %s: %v", target.PublicID, err)
		return
	}
	if err := s.targets.SaveTrafficRecord(ctx, target.ID, snap.Source, details); err != nil {
		log.Printf("scheduler: persist snapshot for %s: %v", target.PublicID, err)
	}
}
