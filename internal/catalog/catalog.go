package catalog

import (
	"sync"
	"time"
)

// Channel is a live TV channel that currently has at least one airing program.
// A channel with no live program is never published in a catalog snapshot.
type Channel struct {
	ID    string `json:"id"`    // stable service identifier from the feed
	Title string `json:"title"` // display name after locale fallback
}

// Program is one broadcast slot on a channel.
// ID identifies the schedule entry; ContentID identifies the underlying
// content item and is what the on-demand playout lookup keys on.
type Program struct {
	ID        string `json:"id"`
	ContentID string `json:"content_id"`
	ChannelID string `json:"channel_id"`

	// ImageID is the artwork identifier: the content's own image when set,
	// else the parent series' cover image, else empty.
	ImageID string `json:"image_id,omitempty"`

	// MediaID is the on-demand media asset currently available for this
	// content. Empty when no publication event satisfies the selection rule;
	// the program is then metadata-only (no stream action).
	MediaID string `json:"media_id,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Channel is the owning channel's display title, denormalized at build
	// time. Snapshots are immutable units, so this is never re-synced.
	Channel string `json:"channel"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// PlaybackURL is the navigation token for starting playback
	// ("play/<contentID>/<mediaID>"). Empty iff MediaID is empty.
	PlaybackURL string `json:"playback_url,omitempty"`
}

// Playable reports whether the program has an on-demand asset to stream.
func (p Program) Playable() bool { return p.MediaID != "" }

// Catalog owns the current (channels, programs) snapshot for the process.
// The pair is always replaced as a unit: readers never observe a catalog
// where one half is newer than the other.
type Catalog struct {
	mu       sync.RWMutex
	channels []Channel
	programs []Program
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Replace atomically swaps in a new snapshot.
func (c *Catalog) Replace(channels []Channel, programs []Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels = channels
	c.programs = programs
}

// Snapshot returns copies of the channel and program lists, in feed order.
func (c *Catalog) Snapshot() (channels []Channel, programs []Program) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	channels = make([]Channel, len(c.channels))
	copy(channels, c.channels)
	programs = make([]Program, len(c.programs))
	copy(programs, c.programs)
	return channels, programs
}

// Empty reports whether the current snapshot has no channels.
func (c *Catalog) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.channels) == 0
}

// FirstProgramFor returns the first program in snapshot order whose
// ChannelID matches id. Snapshot order is the tie-break when a channel has
// several current programs.
func (c *Catalog) FirstProgramFor(id string) (Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.programs {
		if p.ChannelID == id {
			return p, true
		}
	}
	return Program{}, false
}
