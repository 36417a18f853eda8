package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cbcsl/cbcsl/internal/core/api"
	"github.com/cbcsl/cbcsl/internal/core/identifier"
	"github.com/cbcsl/cbcsl/internal/core/pipeline"
)

// upstream serves a legacy order/SMIL chain for id 30045, a graphql watch
// page for 9.111 and a graphql listing with one started and one upcoming
// item.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bistro/order":
			if r.URL.Query().Get("mediaId") == "404" {
				fmt.Fprint(w, `{"items":[{"assetDescriptors":[{"loader":"AdLoader","key":"ads"}]}]}`)
				return
			}
			fmt.Fprintf(w, `{"items":[{"assetDescriptors":[{"loader":"PlatformLoader","key":"%s/smil"}]}]}`, srv.URL)
		case "/smil":
			fmt.Fprint(w, `<smil><body><seq><video src="https://cdn/master.m3u8"/></seq></body></smil>`)
		case "/player/play/video/9.111":
			fmt.Fprintf(w, `<html><script>window.__INITIAL_STATE__ = {"video":{"currentClip":{"media":{"assets":[{"type":"medianet","key":"%s/stream"}]}}}};</script></html>`, srv.URL)
		case "/stream":
			fmt.Fprint(w, `{"url":"https://cdn/live.m3u8"}`)
		default:
			fmt.Fprint(w, `{"data":{"allContentItems":{"nodes":[
{"id":"1","url":"/player/play/video/9.111","title":"Heats","flag":"Live","publishedAt":"1717246800000","type":"video","media":{"duration":7200}},
{"id":"2","url":"/player/play/video/9.222","title":"Final","flag":"Live","publishedAt":"1717257600000","type":"video"}
]}}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, g identifier.Generation, apiKey string) (*Server, *httptest.Server) {
	t.Helper()
	up := upstream(t)
	log := zaptest.NewLogger(t).Sugar()

	client, err := api.New(g, api.Options{Origin: up.URL, HTTPClient: up.Client(), Logger: log})
	require.NoError(t, err)

	mClock := quartz.NewMock(t)
	mClock.Set(time.UnixMilli(1717250400000)) // between the two air times

	p := &pipeline.Pipeline{
		Client:   client,
		Fetcher:  api.NewFetcher(up.Client(), log),
		Clock:    mClock,
		Location: time.UTC,
		Log:      log,
	}
	return NewServer(0, apiKey, p, log), up
}

func get(t *testing.T, s *Server, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	resp := Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, identifier.Legacy, "secret")

	w := get(t, s, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var data map[string]string
	decode(t, w, &data)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "legacy", data["backend"])
}

func TestResolve(t *testing.T) {
	s, up := newTestServer(t, identifier.Legacy, "")

	w := get(t, s, "/api/resolve?id=https://www.cbc.ca/player/play/event-30045", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info StreamInfo
	resp := decode(t, w, &info)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "30045", info.ID)
	assert.Equal(t, "https://cdn/master.m3u8", info.URL)
	assert.Equal(t, up.URL+"/player/play/30045", info.Headers["Referer"])
	assert.Equal(t, api.UserAgent, info.Headers["User-Agent"])
}

func TestResolveErrors(t *testing.T) {
	s, _ := newTestServer(t, identifier.Legacy, "")

	tests := []struct {
		target string
		status int
	}{
		{"/api/resolve", http.StatusBadRequest},
		{"/api/resolve?id=https://example.com/1", http.StatusBadRequest},
		{"/api/resolve?id=404", http.StatusBadGateway},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, s, tt.target, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status, decode(t, w, nil).Code)
		})
	}
}

func TestPlayRedirects(t *testing.T) {
	s, _ := newTestServer(t, identifier.Legacy, "")

	w := get(t, s, "/play/30045", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://cdn/master.m3u8", w.Header().Get("Location"))
}

func TestListing(t *testing.T) {
	s, up := newTestServer(t, identifier.GraphQL, "")

	w := get(t, s, "/api/live", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []ItemInfo
	decode(t, w, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "9.111", items[0].ID)
	assert.Equal(t, "STARTED", items[0].State)
	assert.Equal(t, int64(7200), items[0].Duration)
	assert.Equal(t, up.URL+"/player/play/video/9.111", items[0].WatchURL)
	assert.Equal(t, "UPCOMING", items[1].State)
	assert.Equal(t, "16:00", items[1].When)
}

func TestPlaylist(t *testing.T) {
	s, up := newTestServer(t, identifier.GraphQL, "secret")

	w := get(t, s, "/live.m3u", map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/x-mpegurl", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.Equal(t, `#EXTINF:-1 tvg-id="9.111" group-title="STARTED",Heats`, lines[1])
	assert.Equal(t, "#EXTVLCOPT:http-referrer="+up.URL+"/player/play/video/9.111", lines[2])
	assert.Equal(t, "#EXTVLCOPT:http-user-agent="+api.UserAgent, lines[3])
	assert.Equal(t, "http://example.com/play/9.111?key=secret", lines[4])
}

func TestPlaylistEntryPlays(t *testing.T) {
	s, _ := newTestServer(t, identifier.GraphQL, "secret")

	w := get(t, s, "/live.m3u", map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 9)

	entry := strings.TrimPrefix(lines[4], "http://example.com")
	require.Equal(t, "/play/9.111?key=secret", entry)

	w = get(t, s, entry, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "https://cdn/live.m3u8", w.Header().Get("Location"))
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, identifier.Legacy, "secret")

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/resolve?id=30045", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/play/30045?key=wrong", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/play/30045?key=secreT", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/play/30045?key=secret2", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/resolve?id=30045", map[string]string{"X-API-Key": "secre"}).Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/resolve?id=30045", map[string]string{"X-API-Key": "secret"}).Code)
	assert.Equal(t, http.StatusFound, get(t, s, "/play/30045?key=secret", nil).Code)
}

func TestStopBeforeStart(t *testing.T) {
	s, _ := newTestServer(t, identifier.Legacy, "")

	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, s.Start())
}
