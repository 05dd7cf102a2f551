package indexer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/livetuner/live-tuner/internal/catalog"
	"github.com/livetuner/live-tuner/internal/feed"
	"github.com/livetuner/live-tuner/internal/metrics"
)

// ServiceLister is the slice of the feed client a refresh needs.
type ServiceLister interface {
	Services(ctx context.Context, typ string) ([]feed.Service, error)
	Schedule(ctx context.Context, serviceIDs []string) ([]feed.ScheduleItem, error)
}

// Indexer owns the catalog snapshot and refreshes it from the feed.
type Indexer struct {
	feed            ServiceLister
	cat             *catalog.Catalog
	serviceType     string
	primaryLocale   string
	secondaryLocale string
}

// New returns an Indexer that refreshes cat from lister. serviceType filters
// the services listing (e.g. "tv"); primary/secondary drive locale fallback.
func New(lister ServiceLister, cat *catalog.Catalog, serviceType, primaryLocale, secondaryLocale string) *Indexer {
	return &Indexer{
		feed:            lister,
		cat:             cat,
		serviceType:     serviceType,
		primaryLocale:   primaryLocale,
		secondaryLocale: secondaryLocale,
	}
}

// Catalog returns the owned catalog.
func (ix *Indexer) Catalog() *catalog.Catalog { return ix.cat }

// Refresh fetches services, then the schedule filtered to exactly the
// returned service ids, builds the catalog, and swaps the snapshot in one
// step. The schedule fetch depends on the services result, so the two
// requests are strictly sequential. If either fetch fails the previous
// snapshot stays in place and the error is returned; a partial catalog is
// never published.
func (ix *Indexer) Refresh(ctx context.Context) (Stats, error) {
	start := time.Now()

	services, err := ix.feed.Services(ctx, ix.serviceType)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return Stats{}, fmt.Errorf("refresh: services: %w", err)
	}
	ids := make([]string, 0, len(services))
	for _, s := range services {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		// No services to filter the schedule by; an unfiltered schedule
		// query would return entries no channel can own. Publish an empty
		// catalog without the second fetch.
		ix.cat.Replace(nil, nil)
		metrics.Refreshes.WithLabelValues("ok").Inc()
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
		log.Printf("indexer: refresh done in %s: no services", time.Since(start).Round(time.Millisecond))
		return Stats{}, nil
	}

	schedule, err := ix.feed.Schedule(ctx, ids)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return Stats{}, fmt.Errorf("refresh: schedule: %w", err)
	}

	channels, programs, stats := BuildCatalog(services, schedule, ix.primaryLocale, ix.secondaryLocale, func(entryID string, err error) {
		log.Printf("indexer: dropped entry %q: %v", entryID, err)
	})
	ix.cat.Replace(channels, programs)

	metrics.Refreshes.WithLabelValues("ok").Inc()
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	log.Printf("indexer: refresh done in %s: %s", time.Since(start).Round(time.Millisecond), stats)
	return stats, nil
}
