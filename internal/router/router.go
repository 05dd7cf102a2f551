// Package router keeps the UI in sync with the navigable URL fragment.
//
// Each navigation event restarts resolution: look up the selected channel's
// current program in the catalog snapshot, fetch + decrypt its playout when
// it has an on-demand asset, and publish the result to the view. Resolutions
// run concurrently when navigations arrive fast; a generation counter makes
// sure only the newest navigation's result (success or failure) is ever
// published — superseded resolutions are discarded without a trace beyond a
// metrics counter.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/livetuner/live-tuner/internal/catalog"
	"github.com/livetuner/live-tuner/internal/feed"
	"github.com/livetuner/live-tuner/internal/metrics"
	"github.com/livetuner/live-tuner/internal/safeurl"
	"github.com/livetuner/live-tuner/internal/streamcipher"
)

// ErrEmptyCatalog is returned by Start when there is no channel to
// default-route to. Fatal: the application has nothing to show.
var ErrEmptyCatalog = errors.New("router: catalog has no channels")

// ErrNoProgramForChannel marks a fragment whose channel has no current
// program in the snapshot.
var ErrNoProgramForChannel = errors.New("router: no current program for channel")

// ErrBadStreamURL marks a decrypt result that is not an http(s) URL. Padding
// can decrypt "successfully" under a wrong key and still yield UTF-8 junk;
// the scheme check is the last gate before the player sees the string.
var ErrBadStreamURL = errors.New("router: decrypted stream URL has unsupported scheme")

// State is the route controller's lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// View is the presentation layer. ShowProgram's streamURL is empty for
// metadata-only programs (no on-demand asset). Implementations are called
// from resolution goroutines and must be safe for concurrent use.
type View interface {
	ShowProgram(p catalog.Program, streamURL string)
	ShowError(fragment string, err error)
}

// StreamFetcher is the slice of the feed client a resolution needs.
type StreamFetcher interface {
	StreamDescriptor(ctx context.Context, contentID, mediaID string) (feed.StreamDescriptor, error)
}

// Status is a read-only snapshot of the controller, for diagnostics and tests.
type Status struct {
	State     State
	Fragment  string
	ChannelID string
	Program   catalog.Program
	Err       error
}

// Router resolves fragments against the catalog and publishes to the view.
// It holds no catalog state of its own; the snapshot container is shared
// read-only with the indexer.
type Router struct {
	cat     *catalog.Catalog
	streams StreamFetcher
	view    View
	secret  string

	// pubMu serializes the fence re-check and the view delivery as one
	// step. Without it a resolution could pass the fence, get descheduled
	// before calling the view, and land its delivery after a newer
	// navigation's — the view would end up on the superseded program.
	pubMu sync.Mutex

	mu       sync.Mutex
	gen      uint64 // bumped on every navigation; fences stale publishes
	state    State
	fragment string
	channel  string
	program  catalog.Program
	err      error
}

// New returns a Router over cat. secret is the playout decryption key.
func New(cat *catalog.Catalog, streams StreamFetcher, view View, secret string) *Router {
	return &Router{
		cat:     cat,
		streams: streams,
		view:    view,
		secret:  secret,
		state:   StateUninitialized,
	}
}

// Start performs the initial default navigation: the first channel of the
// current snapshot. Returns ErrEmptyCatalog when there is none.
func (r *Router) Start(ctx context.Context) error {
	channels, _ := r.cat.Snapshot()
	if len(channels) == 0 {
		return ErrEmptyCatalog
	}
	r.Navigate(ctx, "channels/"+channels[0].ID)
	return nil
}

// Navigate handles one navigation event. Only "channels/<id>" fragments are
// routed here; fragments for other sections are ignored. A new navigation
// always preempts: whatever resolution is in flight keeps running but can no
// longer publish.
func (r *Router) Navigate(ctx context.Context, fragment string) {
	channelID, ok := parseChannelFragment(fragment)
	if !ok {
		log.Printf("router: ignoring fragment %q", fragment)
		return
	}

	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.state = StateResolving
	r.fragment = fragment
	r.channel = channelID
	r.err = nil
	r.mu.Unlock()

	program, found := r.cat.FirstProgramFor(channelID)
	if !found {
		r.publishError(gen, fragment, fmt.Errorf("%w: %s", ErrNoProgramForChannel, channelID))
		return
	}
	if !program.Playable() {
		// Metadata-only display, no stream fetch.
		r.publishReady(gen, channelID, program, "", "metadata_only")
		return
	}
	go r.resolveStream(ctx, gen, fragment, channelID, program)
}

// resolveStream fetches the playout descriptor and decrypts it. Runs off the
// navigation path; every exit goes through a generation-checked publish.
func (r *Router) resolveStream(ctx context.Context, gen uint64, fragment, channelID string, program catalog.Program) {
	desc, err := r.streams.StreamDescriptor(ctx, program.ContentID, program.MediaID)
	if err != nil {
		r.publishError(gen, fragment, err)
		return
	}
	streamURL, err := streamcipher.Decrypt(desc.URL, r.secret)
	if err != nil {
		r.publishError(gen, fragment, err)
		return
	}
	if !safeurl.IsHTTPOrHTTPS(streamURL) {
		r.publishError(gen, fragment, ErrBadStreamURL)
		return
	}
	r.publishReady(gen, channelID, program, streamURL, "ready")
}

// publishReady transitions to Ready and notifies the view, unless a newer
// navigation has started in the meantime. Holds pubMu across check and
// delivery so a delivery that passed the fence cannot be overtaken by a
// newer one.
func (r *Router) publishReady(gen uint64, channelID string, program catalog.Program, streamURL, outcome string) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		metrics.StaleDiscards.Inc()
		return
	}
	r.state = StateReady
	r.channel = channelID
	r.program = program
	r.err = nil
	r.mu.Unlock()

	metrics.Resolutions.WithLabelValues(outcome).Inc()
	if streamURL != "" {
		log.Printf("router: %s ready: %s (%s)", channelID, program.Title, safeurl.Redact(streamURL))
	} else {
		log.Printf("router: %s ready: %s (no stream)", channelID, program.Title)
	}
	r.view.ShowProgram(program, streamURL)
}

// publishError transitions to Error and notifies the view, unless superseded.
// Error is not terminal: the next navigation restarts resolution.
func (r *Router) publishError(gen uint64, fragment string, err error) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		metrics.StaleDiscards.Inc()
		return
	}
	r.state = StateError
	r.err = err
	r.mu.Unlock()

	metrics.Resolutions.WithLabelValues("error").Inc()
	log.Printf("router: %s failed: %v", fragment, err)
	r.view.ShowError(fragment, err)
}

// Status returns the controller's current position.
func (r *Router) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		State:     r.state,
		Fragment:  r.fragment,
		ChannelID: r.channel,
		Program:   r.program,
		Err:       r.err,
	}
}

// parseChannelFragment extracts the channel id from a "channels/<id>" (or
// "channels/<id>/...") fragment.
func parseChannelFragment(fragment string) (string, bool) {
	fragment = strings.TrimPrefix(fragment, "#")
	parts := strings.Split(fragment, "/")
	if len(parts) < 2 || parts[0] != "channels" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
