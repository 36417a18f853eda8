package api

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

// contentItemsQuery is the document the CBC player pages send to list
// clips of a category.
const contentItemsQuery = `query clipsFromCategory($categorySlug: String, $page: Int, $pageSize: Int) {
  allContentItems(categorySlugs: [$categorySlug], page: $page, pageSize: $pageSize, typeRestriction: [video], sort: "-publishedAt") {
    nodes {
      id
      url
      title
      flag
      publishedAt
      updatedAt
      type
      media {
        duration
        hasCaptions
        streamType
      }
    }
  }
}`

const (
	graphQLLiveCategory   = "olympics-live"
	graphQLReplayCategory = "olympics-replays"
)

// GraphQLClient talks to the current player API: a GraphQL listing
// endpoint and watch pages embedding the player state.
type GraphQLClient struct {
	opts    Options
	fetcher *Fetcher
}

// NewGraphQLClient builds the current-generation client.
func NewGraphQLClient(opts Options) Client {
	return &GraphQLClient{opts: opts, fetcher: NewFetcher(opts.HTTPClient, opts.Logger)}
}

func (c *GraphQLClient) Name() string { return string(identifier.GraphQL) }

func (c *GraphQLClient) WatchBase() string { return c.opts.origin() + "/player/play/video/" }

type gqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		AllContentItems *struct {
			Nodes []gqlNode `json:"nodes"`
		} `json:"allContentItems"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type gqlNode struct {
	ID          json.RawMessage `json:"id"`
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Flag        string          `json:"flag"`
	PublishedAt json.RawMessage `json:"publishedAt"` // epoch ms or RFC 3339
	Type        string          `json:"type"`
	Media       *struct {
		Duration   float64 `json:"duration"`
		StreamType string  `json:"streamType"`
	} `json:"media"`
}

func (c *GraphQLClient) LiveAndUpcoming(ctx context.Context) ([]ContentItem, error) {
	return c.list(ctx, orDefault(c.opts.LiveCategory, graphQLLiveCategory), FlagLive)
}

func (c *GraphQLClient) Replays(ctx context.Context) ([]ContentItem, error) {
	return c.list(ctx, orDefault(c.opts.ReplayCategory, graphQLReplayCategory), FlagVideo)
}

func (c *GraphQLClient) list(ctx context.Context, category string, want Flag) ([]ContentItem, error) {
	endpoint := c.opts.origin() + "/graphql"
	body, err := c.fetcher.PostJSON(ctx, endpoint, gqlRequest{
		OperationName: "clipsFromCategory",
		Query:         contentItemsQuery,
		Variables: map[string]any{
			"categorySlug": category,
			"page":         1,
			"pageSize":     c.opts.pageSize(20),
		},
	}, nil)
	if err != nil {
		return nil, err
	}

	var resp gqlResponse
	if err := decodeJSON(endpoint, body, "GraphQL response", &resp); err != nil {
		return nil, err
	}
	if resp.Data.AllContentItems == nil {
		if len(resp.Errors) > 0 {
			return nil, schemaErrorf(endpoint, "GraphQL error: %s", resp.Errors[0].Message)
		}
		return nil, schemaErrorf(endpoint, "GraphQL response has no allContentItems")
	}

	log := c.opts.Logger
	var items []ContentItem
	for _, n := range resp.Data.AllContentItems.Nodes {
		// Category listings also return sections and collections.
		if !strings.EqualFold(n.Type, "video") {
			log.Debugw("skipping non-video node", "id", rawText(n.ID), "type", n.Type)
			continue
		}
		if Flag(n.Flag) != want {
			continue
		}
		item, err := n.toItem()
		if err != nil {
			log.Warnw("skipping item", "id", rawText(n.ID), "title", n.Title, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (n gqlNode) toItem() (ContentItem, error) {
	id := ""
	if n.URL != "" {
		id = identifier.TrailingID(urlPath(n.URL))
	}
	if id == "" {
		id = rawText(n.ID)
	}
	if id == "" {
		return ContentItem{}, schemaErrorf("", "item has no id")
	}
	aired, err := parseAirTime(n.PublishedAt)
	if err != nil {
		return ContentItem{}, &SchemaError{What: "invalid publishedAt", Err: err}
	}

	item := ContentItem{
		ID:      id,
		Title:   n.Title,
		URL:     n.URL,
		AiredAt: aired,
		Flag:    Flag(n.Flag),
	}
	if n.Media != nil && n.Media.Duration > 0 {
		item.Duration = time.Duration(math.Round(n.Media.Duration)) * time.Second
	}
	return item, nil
}

// initialState is the part of the watch page player state that carries the
// current clip's assets.
type initialState struct {
	Video struct {
		CurrentClip *struct {
			SourceID    string `json:"sourceId"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Media       struct {
				ID       json.Number `json:"id"`
				Duration float64     `json:"duration"`
				Assets   []struct {
					Key  string `json:"key"`
					Type string `json:"type"`
				} `json:"assets"`
			} `json:"media"`
		} `json:"currentClip"`
	} `json:"video"`
}

// PlayableAsset reads the watch page state and returns its medianet asset.
// Ad-inserted "platform-dai" assets need a separate ad handshake and are
// not used.
func (c *GraphQLClient) PlayableAsset(ctx context.Context, id string) (*AssetDescriptor, error) {
	page := WatchURL(c, id)
	body, err := c.fetcher.Get(ctx, page, nil)
	if err != nil {
		return nil, err
	}
	raw, err := embeddedState(page, body, "")
	if err != nil {
		return nil, err
	}

	var state initialState
	if err := decodeJSON(page, raw, "embedded player state", &state); err != nil {
		return nil, err
	}
	clip := state.Video.CurrentClip
	if clip == nil {
		return nil, schemaErrorf(page, "player state has no current clip")
	}

	assets := make([]AssetDescriptor, 0, len(clip.Media.Assets))
	for _, a := range clip.Media.Assets {
		assets = append(assets, AssetDescriptor{Loader: a.Type, Key: a.Key})
	}
	desc := findAsset(assets, MedianetAsset)
	if desc == nil || desc.Key == "" {
		return nil, schemaErrorf(page, "couldn't find asset of type %q (types: %s)", MedianetAsset, loaderNames(assets))
	}
	c.opts.Logger.Debugw("selected asset", "type", desc.Loader, "key", desc.Key, "title", clip.Title)
	return desc, nil
}

func (c *GraphQLClient) StreamDescriptor(ctx context.Context, asset *AssetDescriptor, id string) (*StreamDescriptor, error) {
	return fetchStreamJSON(ctx, c.fetcher, asset.Key, WatchURL(c, id))
}

func init() {
	Register(identifier.GraphQL, NewGraphQLClient)
}
