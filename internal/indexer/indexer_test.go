package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/livetuner/live-tuner/internal/catalog"
	"github.com/livetuner/live-tuner/internal/feed"
)

// fakeLister scripts the two-phase fetch.
type fakeLister struct {
	services    []feed.Service
	servicesErr error
	schedule    []feed.ScheduleItem
	scheduleErr error

	gotType string
	gotIDs  []string
	calls   []string
}

func (f *fakeLister) Services(ctx context.Context, typ string) ([]feed.Service, error) {
	f.calls = append(f.calls, "services")
	f.gotType = typ
	return f.services, f.servicesErr
}

func (f *fakeLister) Schedule(ctx context.Context, ids []string) ([]feed.ScheduleItem, error) {
	f.calls = append(f.calls, "schedule")
	f.gotIDs = ids
	return f.schedule, f.scheduleErr
}

func TestRefresh_twoPhaseFetchAndSwap(t *testing.T) {
	lister := &fakeLister{
		services: []feed.Service{{ID: "svc1", Title: fiSv("Yksi", "")}},
		schedule: []feed.ScheduleItem{item("p1", "svc1", "x1", fiSv("A", ""), onDemandEvent("m1"))},
	}
	cat := catalog.New()
	ix := New(lister, cat, "tv", "fi", "sv")

	stats, err := ix.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if stats.Channels != 1 || stats.Programs != 1 {
		t.Errorf("stats: %s", stats)
	}
	if lister.gotType != "tv" {
		t.Errorf("service type = %q", lister.gotType)
	}
	// Schedule must be filtered to exactly the ids the services fetch returned.
	if len(lister.gotIDs) != 1 || lister.gotIDs[0] != "svc1" {
		t.Errorf("schedule filter = %v", lister.gotIDs)
	}
	if len(lister.calls) != 2 || lister.calls[0] != "services" || lister.calls[1] != "schedule" {
		t.Errorf("call order = %v", lister.calls)
	}

	channels, programs := cat.Snapshot()
	if len(channels) != 1 || len(programs) != 1 {
		t.Errorf("snapshot: channels=%+v programs=%+v", channels, programs)
	}
}

func TestRefresh_servicesFailureKeepsPreviousSnapshot(t *testing.T) {
	cat := catalog.New()
	cat.Replace([]catalog.Channel{{ID: "old"}}, []catalog.Program{{ID: "oldp", ChannelID: "old"}})

	boom := errors.New("connection refused")
	ix := New(&fakeLister{servicesErr: boom}, cat, "tv", "fi", "sv")

	if _, err := ix.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}
	channels, programs := cat.Snapshot()
	if len(channels) != 1 || channels[0].ID != "old" || len(programs) != 1 {
		t.Errorf("previous snapshot not retained: %+v %+v", channels, programs)
	}
}

func TestRefresh_scheduleFailureKeepsPreviousSnapshot(t *testing.T) {
	cat := catalog.New()
	cat.Replace([]catalog.Channel{{ID: "old"}}, nil)

	lister := &fakeLister{
		services:    []feed.Service{{ID: "svc1", Title: fiSv("Yksi", "")}},
		scheduleErr: feed.ErrTimeout,
	}
	ix := New(lister, cat, "tv", "fi", "sv")

	if _, err := ix.Refresh(context.Background()); !errors.Is(err, feed.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	channels, _ := cat.Snapshot()
	if len(channels) != 1 || channels[0].ID != "old" {
		t.Errorf("previous snapshot not retained: %+v", channels)
	}
}

func TestRefresh_emptyServicesPublishesEmptyCatalog(t *testing.T) {
	// An empty-but-successful services fetch is not a transport failure:
	// the snapshot legitimately becomes empty. The schedule fetch is
	// skipped — with no ids to filter by, it would come back unfiltered.
	cat := catalog.New()
	cat.Replace([]catalog.Channel{{ID: "old"}}, nil)

	lister := &fakeLister{}
	ix := New(lister, cat, "tv", "fi", "sv")
	stats, err := ix.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !cat.Empty() {
		t.Error("catalog should be empty after empty services listing")
	}
	if len(lister.calls) != 1 || lister.calls[0] != "services" {
		t.Errorf("schedule should not be fetched without ids: calls = %v", lister.calls)
	}
	if stats != (Stats{}) {
		t.Errorf("stats: %s", stats)
	}
}

func TestRefresh_idlessServicesSkipSchedule(t *testing.T) {
	// Services whose entries all lack ids leave nothing to filter by.
	lister := &fakeLister{
		services: []feed.Service{{Title: fiSv("Nimetön", "")}},
	}
	cat := catalog.New()
	ix := New(lister, cat, "tv", "fi", "sv")

	if _, err := ix.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(lister.calls) != 1 {
		t.Errorf("calls = %v", lister.calls)
	}
	if !cat.Empty() {
		t.Error("catalog should be empty")
	}
}
