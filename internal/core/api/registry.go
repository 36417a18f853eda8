package api

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

// Options configures a Client. Zero values fall back to the generation's
// defaults.
type Options struct {
	// Origin replaces https://www.cbc.ca, mostly for tests.
	Origin     string
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger

	// LiveCategory and ReplayCategory select what the listing endpoints
	// return. Their meaning is generation specific: a GraphQL category slug,
	// a catalog category set or a player page path.
	LiveCategory   string
	ReplayCategory string
	PageSize       int
}

func (o Options) origin() string {
	if o.Origin == "" {
		return DefaultOrigin
	}
	return strings.TrimRight(o.Origin, "/")
}

func (o Options) pageSize(def int) int {
	if o.PageSize > 0 {
		return o.PageSize
	}
	return def
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Constructor builds a Client for one generation.
type Constructor func(opts Options) Client

// constructors maps generations to their client constructors
var constructors = map[identifier.Generation]Constructor{}

// Register adds a constructor for a generation
func Register(g identifier.Generation, c Constructor) {
	constructors[g] = c
}

// New builds the client registered for g.
func New(g identifier.Generation, opts Options) (Client, error) {
	c, ok := constructors[g]
	if !ok {
		return nil, fmt.Errorf("no client registered for backend %q", g)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return c(opts), nil
}

// List returns the registered generations in name order.
func List() []identifier.Generation {
	result := make([]identifier.Generation, 0, len(constructors))
	for g := range constructors {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// WatchURL joins the client's watch base and id.
func WatchURL(c Client, id string) string {
	return c.WatchBase() + id
}

// urlPath returns the path of raw, or raw itself when it does not parse.
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
