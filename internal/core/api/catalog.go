package api

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

const (
	catalogLiveCategory   = "cbc-sports-live"
	catalogReplayCategory = "cbc-sports-replays"
)

// CatalogClient talks to the REST catalog generation: an aggregate items
// endpoint for listings and the bistro order endpoint for playback.
type CatalogClient struct {
	opts    Options
	fetcher *Fetcher
}

// NewCatalogClient builds the catalog-generation client.
func NewCatalogClient(opts Options) Client {
	return &CatalogClient{opts: opts, fetcher: NewFetcher(opts.HTTPClient, opts.Logger)}
}

func (c *CatalogClient) Name() string { return string(identifier.Catalog) }

func (c *CatalogClient) WatchBase() string { return c.opts.origin() + "/player/play/" }

type catalogItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Type        string          `json:"type"`
	PublishedAt json.RawMessage `json:"publishedAt"` // RFC 3339 or epoch ms
	Media       *struct {
		Duration   float64 `json:"duration"`
		StreamType string  `json:"streamType"` // "Live" or "On-Demand"
	} `json:"media"`
}

func (c *CatalogClient) LiveAndUpcoming(ctx context.Context) ([]ContentItem, error) {
	return c.list(ctx, orDefault(c.opts.LiveCategory, catalogLiveCategory), FlagLive)
}

func (c *CatalogClient) Replays(ctx context.Context) ([]ContentItem, error) {
	return c.list(ctx, orDefault(c.opts.ReplayCategory, catalogReplayCategory), FlagVideo)
}

func (c *CatalogClient) list(ctx context.Context, category string, want Flag) ([]ContentItem, error) {
	q := url.Values{}
	q.Set("typeSet", "cbc-ocelot")
	q.Set("categorySet", category)
	q.Set("pageSize", strconv.Itoa(c.opts.pageSize(20)))
	q.Set("sort", "-publishedAt")
	endpoint := c.opts.origin() + "/aggregate_api/v1/items?" + q.Encode()

	body, err := c.fetcher.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var raw []catalogItem
	if err := decodeJSON(endpoint, body, "catalog items", &raw); err != nil {
		return nil, err
	}

	log := c.opts.Logger
	var items []ContentItem
	for _, r := range raw {
		if !strings.EqualFold(r.Type, "video") {
			log.Debugw("skipping non-video item", "id", r.ID, "type", r.Type)
			continue
		}
		item, err := r.toItem()
		if err != nil {
			log.Warnw("skipping item", "id", r.ID, "title", r.Title, "error", err)
			continue
		}
		if item.Flag != want {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r catalogItem) toItem() (ContentItem, error) {
	id := r.ID
	if id == "" && r.URL != "" {
		id = identifier.TrailingID(urlPath(r.URL))
	}
	if id == "" {
		return ContentItem{}, schemaErrorf("", "item has no id")
	}
	aired, err := parseAirTime(r.PublishedAt)
	if err != nil {
		return ContentItem{}, &SchemaError{What: "invalid publishedAt", Err: err}
	}

	item := ContentItem{
		ID:      id,
		Title:   r.Title,
		URL:     r.URL,
		AiredAt: aired,
		Flag:    FlagVideo,
	}
	if r.Media != nil {
		if strings.EqualFold(r.Media.StreamType, "Live") {
			item.Flag = FlagLive
		}
		if r.Media.Duration > 0 {
			item.Duration = time.Duration(math.Round(r.Media.Duration)) * time.Second
		}
	}
	return item, nil
}

func (c *CatalogClient) PlayableAsset(ctx context.Context, id string) (*AssetDescriptor, error) {
	return fetchOrder(ctx, c.fetcher, c.opts.origin(), id)
}

// StreamDescriptor follows the platform-loader key. Catalog keys point at a
// JSON stream descriptor, except for the occasional direct playlist.
func (c *CatalogClient) StreamDescriptor(ctx context.Context, asset *AssetDescriptor, id string) (*StreamDescriptor, error) {
	if isPlaylistKey(asset) {
		return &StreamDescriptor{URL: asset.Key}, nil
	}
	return fetchStreamJSON(ctx, c.fetcher, asset.Key, WatchURL(c, id))
}

func isPlaylistKey(asset *AssetDescriptor) bool {
	if strings.Contains(strings.ToLower(asset.MimeType), "mpegurl") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(urlPath(asset.Key)), ".m3u8")
}

func init() {
	Register(identifier.Catalog, NewCatalogClient)
}
