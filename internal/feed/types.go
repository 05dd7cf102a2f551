package feed

import "time"

// Raw payload shapes from the metadata API. Fields beyond what the catalog
// builder and router consume are left undeclared; encoding/json drops them.

// Service is one raw channel/service entry from the services listing.
type Service struct {
	ID    string            `json:"id"`
	Title map[string]string `json:"title"` // locale tag -> display name
}

// ScheduleItem is one raw broadcast slot from the current-schedule listing.
type ScheduleItem struct {
	ID        string     `json:"id"`
	Service   ServiceRef `json:"service"`
	Content   Content    `json:"content"`
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime"`
}

// ServiceRef links a schedule item to its service.
type ServiceRef struct {
	ID string `json:"id"`
}

// Content is the content item aired in a schedule slot.
type Content struct {
	ID                string             `json:"id"`
	Title             map[string]string  `json:"title"`
	Description       map[string]string  `json:"description"`
	Image             *ImageRef          `json:"image"`
	PartOfSeries      *SeriesRef         `json:"partOfSeries"`
	PublicationEvents []PublicationEvent `json:"publicationEvent"`
}

// ImageRef is an artwork reference.
type ImageRef struct {
	ID string `json:"id"`
}

// SeriesRef carries the parts of a parent series the builder needs
// (currently only the cover image fallback).
type SeriesRef struct {
	ID         string    `json:"id"`
	CoverImage *ImageRef `json:"coverImage"`
}

// PublicationEvent describes one way a content item is (or will be) published.
// The builder selects the first event that is currently airing, of on-demand
// type, with an available media asset.
type PublicationEvent struct {
	ID             string    `json:"id"`
	TemporalStatus string    `json:"temporalStatus"` // e.g. "currently", "future"
	Type           string    `json:"type"`           // e.g. "OnDemandPublication"
	Media          *MediaRef `json:"media"`
}

// Publication event predicates used for on-demand media selection.
const (
	TemporalStatusCurrently = "currently"
	TypeOnDemand            = "OnDemandPublication"
)

// MediaRef is the playable media asset attached to a publication event.
type MediaRef struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
}

// StreamDescriptor is one playout entry for a (content, media) pair.
// URL is encrypted (see internal/streamcipher); it is consumed once per
// route resolution and never stored.
type StreamDescriptor struct {
	URL          string `json:"url"` // Base64(IV || AES-CBC ciphertext)
	Protocol     string `json:"protocol,omitempty"`
	MultiBitrate bool   `json:"multibitrate,omitempty"`
}
