// Package playlist picks a fixed-quality rendition out of an HLS master
// playlist, for players that mishandle adaptive bitrate switching.
package playlist

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
)

// ErrNoVariants is returned when a master playlist lists no renditions.
var ErrNoVariants = errors.New("master playlist has no variants")

// Variant represents a stream variant in a master playlist
type Variant struct {
	URI        string
	Bandwidth  int
	Resolution string // e.g., "1920x1080"
	Codecs     string
	IFrame     bool // from EXT-X-I-FRAME-STREAM-INF
}

// Parse decodes a master playlist and returns its variants in document
// order, I-frame variants included.
func Parse(text string) ([]Variant, error) {
	pl, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		// The decoder refuses documents it cannot classify, which includes a
		// master playlist stripped of every variant.
		if !hasVariantTags(text) {
			return nil, ErrNoVariants
		}
		return nil, fmt.Errorf("malformed playlist: %w", err)
	}
	if listType != m3u8.MASTER {
		return nil, fmt.Errorf("%w: got a media playlist", ErrNoVariants)
	}

	master := pl.(*m3u8.MasterPlaylist)
	variants := make([]Variant, 0, len(master.Variants))
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		variants = append(variants, Variant{
			URI:        v.URI,
			Bandwidth:  int(v.Bandwidth),
			Resolution: v.Resolution,
			Codecs:     v.Codecs,
			IFrame:     v.Iframe,
		})
	}
	return variants, nil
}

func hasVariantTags(text string) bool {
	return strings.Contains(text, "#EXT-X-STREAM-INF") || strings.Contains(text, "#EXT-X-I-FRAME-STREAM-INF")
}

// SelectBest returns the highest bandwidth variant. Ties go to the variant
// that appears first in the document.
func SelectBest(text string) (Variant, error) {
	variants, err := Parse(text)
	if err != nil {
		return Variant{}, err
	}
	best, ok := Best(variants)
	if !ok {
		return Variant{}, ErrNoVariants
	}
	return best, nil
}

// Best is the max-by-bandwidth rule behind SelectBest.
func Best(variants []Variant) (Variant, bool) {
	if len(variants) == 0 {
		return Variant{}, false
	}

	best := variants[0]
	for _, v := range variants[1:] {
		if v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, true
}

// ToAbsolute resolves variantURI against the directory holding the master
// playlist. The master's query string never leaks into the result.
func ToAbsolute(masterURL, variantURI string) (string, error) {
	ref, err := url.Parse(variantURI)
	if err != nil {
		return "", fmt.Errorf("invalid variant URI %q: %w", variantURI, err)
	}
	if ref.IsAbs() {
		return variantURI, nil
	}

	base, err := url.Parse(masterURL)
	if err != nil {
		return "", fmt.Errorf("invalid master URL %q: %w", masterURL, err)
	}
	base.RawQuery = ""
	base.ForceQuery = false
	base.Fragment = ""
	if i := strings.LastIndex(base.Path, "/"); i >= 0 {
		base.Path = base.Path[:i+1]
	} else {
		base.Path = "/"
	}
	base.RawPath = ""

	return base.ResolveReference(ref).String(), nil
}
