// Command live-tuner: resolve "what can I watch right now" against a
// broadcaster metadata API.
//
//	run      Refresh the catalog, route to the first channel, then read
//	         navigation fragments from stdin (one per line) until EOF.
//	refresh  One-shot: fetch + build the catalog and print the lineup.
//	resolve  One-shot: refresh, resolve a single fragment (e.g.
//	         "channels/yle-tv1"), print the program and stream URL.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/livetuner/live-tuner/internal/catalog"
	"github.com/livetuner/live-tuner/internal/config"
	"github.com/livetuner/live-tuner/internal/feed"
	"github.com/livetuner/live-tuner/internal/indexer"
	"github.com/livetuner/live-tuner/internal/metrics"
	"github.com/livetuner/live-tuner/internal/router"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	configPath := flag.String("config", "", "optional YAML config file")
	envPath := flag.String("env", ".env", "env file to load before reading config")
	flag.Usage = usage
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := flag.Arg(0)
	switch cmd {
	case "run":
		err = runCmd(ctx, cfg)
	case "refresh":
		err = refreshCmd(ctx, cfg)
	case "resolve":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		err = resolveCmd(ctx, cfg, flag.Arg(1))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: live-tuner [flags] <command>

commands:
  run                 refresh catalog, then read fragments from stdin
  refresh             fetch + build the catalog, print the lineup
  resolve <fragment>  resolve one fragment (e.g. channels/yle-tv1)

flags:
`)
	flag.PrintDefaults()
}

func newIndexer(cfg *config.Config) (*indexer.Indexer, *feed.Client, error) {
	client, err := feed.New(feed.Config{
		BaseURL:           cfg.FeedBaseURL,
		AppID:             cfg.AppID,
		AppKey:            cfg.AppKey,
		Timeout:           cfg.FeedTimeout,
		RequestsPerSecond: cfg.FeedRPS,
	})
	if err != nil {
		return nil, nil, err
	}
	ix := indexer.New(client, catalog.New(), cfg.ServiceType, cfg.PrimaryLocale, cfg.SecondaryLocale)
	return ix, client, nil
}

// consoleView prints route resolutions to stdout. done (when non-nil)
// receives one value per publish, for one-shot commands that wait.
type consoleView struct {
	done chan error
}

func (v *consoleView) ShowProgram(p catalog.Program, streamURL string) {
	if streamURL != "" {
		fmt.Printf("▶ %s — %s\n  %s\n", p.Channel, p.Title, streamURL)
	} else {
		fmt.Printf("● %s — %s (no stream available)\n", p.Channel, p.Title)
	}
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	if v.done != nil {
		v.done <- nil
	}
}

func (v *consoleView) ShowError(fragment string, err error) {
	fmt.Printf("✗ %s: %v\n", fragment, err)
	if v.done != nil {
		v.done <- err
	}
}

func runCmd(ctx context.Context, cfg *config.Config) error {
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Printf("metrics: %v", err)
			}
		}()
	}

	ix, client, err := newIndexer(cfg)
	if err != nil {
		return err
	}
	if _, err := ix.Refresh(ctx); err != nil {
		return err
	}

	r := router.New(ix.Catalog(), client, &consoleView{}, cfg.StreamSecret)
	if err := r.Start(ctx); err != nil {
		return err
	}

	// Navigation environment: one fragment per stdin line.
	log.Printf("live-tuner: enter fragments (channels/<id>), ^D to quit")
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		close(lines)
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line != "" {
				r.Navigate(ctx, line)
			}
		}
	}
}

func refreshCmd(ctx context.Context, cfg *config.Config) error {
	ix, _, err := newIndexer(cfg)
	if err != nil {
		return err
	}
	stats, err := ix.Refresh(ctx)
	if err != nil {
		return err
	}
	channels, programs := ix.Catalog().Snapshot()
	for _, ch := range channels {
		fmt.Printf("%s\t%s\n", ch.ID, ch.Title)
		for _, p := range programs {
			if p.ChannelID != ch.ID {
				continue
			}
			mark := " "
			if p.Playable() {
				mark = "▶"
			}
			fmt.Printf("  %s %s–%s  %s\n", mark,
				p.StartTime.Local().Format("15:04"), p.EndTime.Local().Format("15:04"), p.Title)
		}
	}
	log.Printf("refresh: %s", stats)
	return nil
}

func resolveCmd(ctx context.Context, cfg *config.Config, fragment string) error {
	ix, client, err := newIndexer(cfg)
	if err != nil {
		return err
	}
	if _, err := ix.Refresh(ctx); err != nil {
		return err
	}

	view := &consoleView{done: make(chan error, 1)}
	r := router.New(ix.Catalog(), client, view, cfg.StreamSecret)
	r.Navigate(ctx, fragment)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-view.done:
		if err != nil {
			os.Exit(1)
		}
		st := r.Status()
		log.Printf("resolve: %s -> %s", fragment, st.State)
		return nil
	case <-time.After(cfg.FeedTimeout + 5*time.Second):
		return fmt.Errorf("resolve: no result for %q", fragment)
	}
}
