package api

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

const (
	legacyLivePage   = "sports/olympics/live"
	legacyReplayPage = "sports/olympics/replays"
	legacyStateID    = "initialStateDom"
)

// LegacyClient talks to the oldest player generation: listings come from
// the state embedded in player pages, playback from the bistro order
// endpoint and an SMIL manifest.
type LegacyClient struct {
	opts    Options
	fetcher *Fetcher
}

// NewLegacyClient builds the legacy-generation client.
func NewLegacyClient(opts Options) Client {
	return &LegacyClient{opts: opts, fetcher: NewFetcher(opts.HTTPClient, opts.Logger)}
}

func (c *LegacyClient) Name() string { return string(identifier.Legacy) }

func (c *LegacyClient) WatchBase() string { return c.opts.origin() + "/player/play/" }

type legacyState struct {
	Video struct {
		LiveClips struct {
			OnNow    legacyClips `json:"onNow"`
			Upcoming legacyClips `json:"upcoming"`
		} `json:"liveClips"`
		ClipsByCategory map[string]legacyClips `json:"clipsByCategory"`
	} `json:"video"`
}

type legacyClips struct {
	Items []legacyItem `json:"items"`
}

type legacyItem struct {
	ID       json.RawMessage `json:"id"`
	Title    string          `json:"title"`
	Duration float64         `json:"duration"`
	AirDate  json.RawMessage `json:"airDate"` // epoch ms, sometimes quoted
	IsLive   bool            `json:"isLive"`
}

func (c *LegacyClient) LiveAndUpcoming(ctx context.Context) ([]ContentItem, error) {
	state, err := c.state(ctx, orDefault(c.opts.LiveCategory, legacyLivePage))
	if err != nil {
		return nil, err
	}
	var items []ContentItem
	items = c.appendItems(items, state.Video.LiveClips.OnNow.Items, FlagLive)
	items = c.appendItems(items, state.Video.LiveClips.Upcoming.Items, FlagLive)
	return items, nil
}

func (c *LegacyClient) Replays(ctx context.Context) ([]ContentItem, error) {
	state, err := c.state(ctx, orDefault(c.opts.ReplayCategory, legacyReplayPage))
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(state.Video.ClipsByCategory))
	for name := range state.Video.ClipsByCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	var items []ContentItem
	for _, name := range categories {
		items = c.appendItems(items, state.Video.ClipsByCategory[name].Items, FlagVideo)
	}
	return items, nil
}

func (c *LegacyClient) state(ctx context.Context, page string) (*legacyState, error) {
	target := c.opts.origin() + "/player/" + strings.TrimLeft(page, "/")
	body, err := c.fetcher.Get(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	raw, err := embeddedState(target, body, legacyStateID)
	if err != nil {
		return nil, err
	}
	var state legacyState
	if err := decodeJSON(target, raw, "embedded listing state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *LegacyClient) appendItems(dst []ContentItem, src []legacyItem, flag Flag) []ContentItem {
	for _, it := range src {
		id := rawText(it.ID)
		if id == "" {
			c.opts.Logger.Warnw("skipping item with no id", "title", it.Title)
			continue
		}
		aired, err := parseAirTime(it.AirDate)
		if err != nil {
			c.opts.Logger.Warnw("skipping item", "id", id, "title", it.Title, "error", err)
			continue
		}
		dst = append(dst, ContentItem{
			ID:       id,
			Title:    it.Title,
			AiredAt:  aired,
			Duration: time.Duration(math.Round(it.Duration)) * time.Second,
			Flag:     flag,
		})
	}
	return dst
}

func (c *LegacyClient) PlayableAsset(ctx context.Context, id string) (*AssetDescriptor, error) {
	return fetchOrder(ctx, c.fetcher, c.opts.origin(), id)
}

// StreamDescriptor resolves the SMIL manifest behind the platform loader.
func (c *LegacyClient) StreamDescriptor(ctx context.Context, asset *AssetDescriptor, id string) (*StreamDescriptor, error) {
	return fetchSMIL(ctx, c.fetcher, asset.Key, WatchURL(c, id))
}

func init() {
	Register(identifier.Legacy, NewLegacyClient)
}
