// Package pipeline ties the stages together: identifier resolution, the
// backend lookups, optional variant pinning and either a listing or the
// hand-off to the player.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/cbcsl/cbcsl/internal/core/api"
	"github.com/cbcsl/cbcsl/internal/core/identifier"
	"github.com/cbcsl/cbcsl/internal/core/player"
	"github.com/cbcsl/cbcsl/internal/core/playlist"
	"github.com/cbcsl/cbcsl/internal/core/timeline"
)

// PlayerOptions are handed to the player builder unchanged.
type PlayerOptions struct {
	Executable string
	LogLevel   string
	Proxy      string
	Quality    string
}

// Pipeline runs one invocation. Its fields are read-only once built.
type Pipeline struct {
	Client   api.Client
	Fetcher  *api.Fetcher
	Clock    quartz.Clock
	Location *time.Location
	Log      *zap.SugaredLogger

	// PinVariant resolves the master playlist to its best variant.
	PinVariant bool
	// FullURLs prefixes listing IDs with the watch-page base.
	FullURLs bool

	Player PlayerOptions
}

// Result is a stream the player can open along with the headers it must
// send.
type Result struct {
	ID      string
	URL     string
	Headers map[string]string
	Variant *playlist.Variant // set when the variant was pinned
}

func (p *Pipeline) log() *zap.SugaredLogger {
	if p.Log == nil {
		return zap.NewNop().Sugar()
	}
	return p.Log
}

func (p *Pipeline) generation() identifier.Generation {
	return identifier.Generation(p.Client.Name())
}

// Resolve turns input into a playable stream.
func (p *Pipeline) Resolve(ctx context.Context, input string) (*Result, error) {
	log := p.log()

	id, err := identifier.Resolve(p.generation(), input)
	if err != nil {
		return nil, err
	}
	log.Debugw("resolved identifier", "input", input, "id", id, "backend", p.Client.Name())

	asset, err := p.Client.PlayableAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	stream, err := p.Client.StreamDescriptor(ctx, asset, id)
	if err != nil {
		return nil, err
	}
	if stream.ErrorCode != 0 {
		return nil, &api.UpstreamError{Method: "GET", URL: asset.Key, ErrorCode: stream.ErrorCode}
	}

	res := &Result{
		ID:  id,
		URL: stream.URL,
		Headers: map[string]string{
			"User-Agent": api.UserAgent,
			"Referer":    api.WatchURL(p.Client, id),
		},
	}

	if p.PinVariant {
		if err := p.pin(ctx, res); err != nil {
			return nil, err
		}
	}

	log.Infow("resolved stream", "id", id, "url", res.URL)
	return res, nil
}

// pin replaces the master playlist URL with its highest-bandwidth variant.
func (p *Pipeline) pin(ctx context.Context, res *Result) error {
	body, err := p.Fetcher.Get(ctx, res.URL, res.Headers)
	if err != nil {
		return err
	}
	best, err := playlist.SelectBest(string(body))
	if err != nil {
		return fmt.Errorf("%s: %w", res.URL, err)
	}
	abs, err := playlist.ToAbsolute(res.URL, best.URI)
	if err != nil {
		return err
	}
	p.log().Debugw("pinned variant", "bandwidth", best.Bandwidth, "resolution", best.Resolution, "url", abs)

	res.Variant = &best
	res.URL = abs
	return nil
}

// Entry is a listed item with its timeline classification.
type Entry struct {
	Item  api.ContentItem
	State timeline.State
}

// Entries fetches live/upcoming items, or replays when live is false, and
// classifies each against the pipeline clock.
func (p *Pipeline) Entries(ctx context.Context, live bool) ([]Entry, error) {
	var (
		items []api.ContentItem
		err   error
	)
	if live {
		items, err = p.Client.LiveAndUpcoming(ctx)
	} else {
		items, err = p.Client.Replays(ctx)
	}
	if err != nil {
		return nil, err
	}

	clock := p.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	now := clock.Now()

	if len(items) == 0 {
		p.log().Warnw("listing is empty", "live", live, "backend", p.Client.Name())
	}
	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{Item: item, State: timeline.Classify(item, now, p.Location)}
	}
	return entries, nil
}

// List writes one line per entry.
func (p *Pipeline) List(ctx context.Context, live bool, w io.Writer) error {
	entries, err := p.Entries(ctx, live)
	if err != nil {
		return err
	}

	prefix := ""
	if p.FullURLs {
		prefix = p.Client.WatchBase()
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, timeline.Line(e.Item, e.State, prefix)); err != nil {
			return err
		}
	}
	return nil
}

// Command builds the player invocation for res.
func (p *Pipeline) Command(res *Result) *player.Builder {
	return player.New(p.Player.Executable).
		LogLevel(p.Player.LogLevel).
		Proxy(p.Player.Proxy).
		Headers(res.Headers).
		Stream(res.URL, p.Player.Quality)
}

// Play hands res to the player and waits for it to exit.
func (p *Pipeline) Play(ctx context.Context, res *Result) error {
	return p.Command(res).Run(ctx, p.log())
}

// WriteResult prints the stream URL to out and the headers, in name order,
// to hdr. This is the --no-run output.
func WriteResult(out, hdr io.Writer, res *Result) error {
	if _, err := fmt.Fprintln(out, res.URL); err != nil {
		return err
	}
	names := make([]string, 0, len(res.Headers))
	for name := range res.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(hdr, "%s: %s\n", name, res.Headers[name]); err != nil {
			return err
		}
	}
	return nil
}
