// Package indexer turns raw metadata-API payloads into the in-memory catalog:
// a pure build step (this file) and a refresh orchestrator (indexer.go).
package indexer

import (
	"errors"
	"fmt"

	"github.com/livetuner/live-tuner/internal/catalog"
	"github.com/livetuner/live-tuner/internal/feed"
	"github.com/livetuner/live-tuner/internal/metrics"
)

// ErrDataShape marks a raw entry missing a required field (locale titles,
// channel id). The entry is dropped; the build goes on.
var ErrDataShape = errors.New("indexer: payload missing required field")

// ErrConsistency marks a schedule entry referencing a channel that is not in
// the retained channel set. The services and schedule listings are fetched
// with the same id filter, so this should not happen; when it does, the entry
// is dropped rather than crashing the build.
var ErrConsistency = errors.New("indexer: schedule entry references unknown channel")

// Stats tracks what a build dropped. Drops never abort the build and never
// reach the UI; they surface here, in the prometheus counters, and via DropLog.
type Stats struct {
	Channels           int
	Programs           int
	DroppedServices    int // services without a resolvable title
	DroppedDataShape   int // schedule entries missing required fields
	DroppedConsistency int // schedule entries referencing unretained channels
}

func (s Stats) String() string {
	return fmt.Sprintf("channels=%d programs=%d dropped(services=%d shape=%d consistency=%d)",
		s.Channels, s.Programs, s.DroppedServices, s.DroppedDataShape, s.DroppedConsistency)
}

// DropLog receives one call per dropped entry. Nil disables per-entry
// reporting; counters in Stats are always kept.
type DropLog func(entryID string, err error)

// BuildCatalog maps raw services + raw schedule to the (channels, programs)
// pair. Pure: same inputs give structurally identical outputs, with channel
// and program order taken from the feed.
//
// Rules, in order:
//  1. each service becomes a channel candidate; its title comes from
//     localePick(primary, secondary) and a service with neither locale is
//     dropped (ErrDataShape)
//  2. candidates with no schedule entry referencing them are dropped —
//     a channel is published iff something currently airs on it
//  3. each schedule entry resolves its channel by exact id against the
//     retained set; misses are dropped (ErrConsistency)
//  4. artwork: content's own image, else the parent series cover, else empty
//  5. on-demand media: first publication event (feed order, no re-sort) that
//     is currently airing, of on-demand type, with an available media asset
//  6. title via localePick (required), description via localePick (optional)
//  7. playback token "play/<contentID>/<mediaID>" iff a media asset resolved
func BuildCatalog(services []feed.Service, schedule []feed.ScheduleItem, primary, secondary string, dropLog DropLog) ([]catalog.Channel, []catalog.Program, Stats) {
	var stats Stats
	drop := func(id string, err error) {
		if dropLog != nil {
			dropLog(id, err)
		}
	}

	// Step 1: channel candidates, feed order.
	candidates := make([]catalog.Channel, 0, len(services))
	for _, s := range services {
		if s.ID == "" {
			stats.DroppedServices++
			metrics.BuildDropped.WithLabelValues("data_shape").Inc()
			drop(s.ID, fmt.Errorf("%w: service id", ErrDataShape))
			continue
		}
		title, ok := localePick(s.Title, primary, secondary)
		if !ok {
			stats.DroppedServices++
			metrics.BuildDropped.WithLabelValues("data_shape").Inc()
			drop(s.ID, fmt.Errorf("%w: service title in %q/%q", ErrDataShape, primary, secondary))
			continue
		}
		candidates = append(candidates, catalog.Channel{ID: s.ID, Title: title})
	}

	// Step 2: retain only channels something currently airs on.
	referenced := make(map[string]bool, len(schedule))
	for _, it := range schedule {
		referenced[it.Service.ID] = true
	}
	channels := make([]catalog.Channel, 0, len(candidates))
	byID := make(map[string]catalog.Channel, len(candidates))
	for _, ch := range candidates {
		if !referenced[ch.ID] {
			continue
		}
		channels = append(channels, ch)
		byID[ch.ID] = ch
	}

	// Steps 3-7: programs, feed order. Channels exist before any program is
	// built, so every emitted program's ChannelID resolves within this pair.
	programs := make([]catalog.Program, 0, len(schedule))
	for _, it := range schedule {
		if it.Service.ID == "" || it.ID == "" || it.Content.ID == "" {
			stats.DroppedDataShape++
			metrics.BuildDropped.WithLabelValues("data_shape").Inc()
			drop(it.ID, fmt.Errorf("%w: schedule entry ids", ErrDataShape))
			continue
		}
		ch, ok := byID[it.Service.ID]
		if !ok {
			stats.DroppedConsistency++
			metrics.BuildDropped.WithLabelValues("consistency").Inc()
			drop(it.ID, fmt.Errorf("%w: %s", ErrConsistency, it.Service.ID))
			continue
		}
		title, ok := localePick(it.Content.Title, primary, secondary)
		if !ok {
			stats.DroppedDataShape++
			metrics.BuildDropped.WithLabelValues("data_shape").Inc()
			drop(it.ID, fmt.Errorf("%w: content title in %q/%q", ErrDataShape, primary, secondary))
			continue
		}
		description, _ := localePick(it.Content.Description, primary, secondary)

		mediaID := selectMedia(it.Content.PublicationEvents)
		p := catalog.Program{
			ID:          it.ID,
			ContentID:   it.Content.ID,
			ChannelID:   ch.ID,
			ImageID:     selectImage(it.Content),
			MediaID:     mediaID,
			Title:       title,
			Description: description,
			Channel:     ch.Title,
			StartTime:   it.StartTime,
			EndTime:     it.EndTime,
		}
		if mediaID != "" {
			p.PlaybackURL = "play/" + it.Content.ID + "/" + mediaID
		}
		programs = append(programs, p)
	}

	stats.Channels = len(channels)
	stats.Programs = len(programs)
	return channels, programs, stats
}

// localePick returns m[primary] if set, else m[secondary]. ok is false when
// neither locale is populated.
func localePick(m map[string]string, primary, secondary string) (string, bool) {
	if v := m[primary]; v != "" {
		return v, true
	}
	if v := m[secondary]; v != "" {
		return v, true
	}
	return "", false
}

// selectImage resolves artwork: the content's own image wins, else the parent
// series cover, else empty.
func selectImage(c feed.Content) string {
	if c.Image != nil && c.Image.ID != "" {
		return c.Image.ID
	}
	if c.PartOfSeries != nil && c.PartOfSeries.CoverImage != nil {
		return c.PartOfSeries.CoverImage.ID
	}
	return ""
}

// selectMedia scans publication events in feed order and returns the media id
// of the first event that is currently airing, of on-demand type, and whose
// media is marked available. First match wins; there is no secondary sort.
func selectMedia(events []feed.PublicationEvent) string {
	for _, ev := range events {
		if ev.TemporalStatus != feed.TemporalStatusCurrently {
			continue
		}
		if ev.Type != feed.TypeOnDemand {
			continue
		}
		if ev.Media == nil || !ev.Media.Available || ev.Media.ID == "" {
			continue
		}
		return ev.Media.ID
	}
	return ""
}
