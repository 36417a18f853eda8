package api

import (
	"context"
	"time"
)

// Flag distinguishes live broadcasts from on-demand video.
type Flag string

const (
	FlagLive  Flag = "Live"
	FlagVideo Flag = "Video"
)

// PlatformLoader is the asset loader whose key points at the playable
// manifest. Other loaders (ads, thumbnails) are ignored.
const PlatformLoader = "PlatformLoader"

// MedianetAsset is the asset type carrying the stream-validation URL on
// pages that embed player state.
const MedianetAsset = "medianet"

// ContentItem is one listable or playable unit, decoded from whichever
// backend generation produced it.
type ContentItem struct {
	ID       string
	Title    string
	URL      string // canonical watch URL, when the backend supplies one
	AiredAt  time.Time
	Duration time.Duration // zero when unknown
	Flag     Flag
	Assets   []AssetDescriptor
}

// IsLive reports whether the item belongs to the live/upcoming category.
func (c *ContentItem) IsLive() bool { return c.Flag == FlagLive }

// Asset returns the first asset whose loader matches, or nil.
func (c *ContentItem) Asset(loader string) *AssetDescriptor {
	return findAsset(c.Assets, loader)
}

func findAsset(assets []AssetDescriptor, loader string) *AssetDescriptor {
	for i := range assets {
		if assets[i].Loader == loader {
			return &assets[i]
		}
	}
	return nil
}

// AssetDescriptor says where to fetch the next manifest stage: an SMIL
// document, a JSON stream descriptor or a master playlist.
type AssetDescriptor struct {
	Loader   string
	Key      string
	MimeType string
}

// StreamDescriptor is the final stage: a URL the player can open.
type StreamDescriptor struct {
	URL string
	// ErrorCode is non-zero when the backend refuses the stream, most often
	// because of geo-blocking.
	ErrorCode int
}

// Client is one generation of the CBC content API.
type Client interface {
	// Name returns the generation name (e.g., "graphql", "legacy")
	Name() string

	// WatchBase is the canonical watch-page URL without the trailing ID.
	// Watch URLs double as Referer for the manifest endpoints.
	WatchBase() string

	// LiveAndUpcoming lists items flagged live, whether started or not.
	LiveAndUpcoming(ctx context.Context) ([]ContentItem, error)

	// Replays lists recent on-demand items.
	Replays(ctx context.Context) ([]ContentItem, error)

	// PlayableAsset finds the descriptor pointing at the next manifest stage.
	PlayableAsset(ctx context.Context, id string) (*AssetDescriptor, error)

	// StreamDescriptor follows the descriptor to the final stream URL.
	StreamDescriptor(ctx context.Context, asset *AssetDescriptor, id string) (*StreamDescriptor, error)
}
