package identifier

import (
	"errors"
	"testing"
)

func TestResolveNumericUnchanged(t *testing.T) {
	inputs := []string{"0", "7", "30045", "2413071939", "000123"}
	for _, g := range Generations {
		for _, in := range inputs {
			got, err := Resolve(g, in)
			if err != nil {
				t.Fatalf("Resolve(%s, %q) error: %v", g, in, err)
			}
			if got != in {
				t.Errorf("Resolve(%s, %q) = %q; want %q", g, in, got, in)
			}
		}
	}
}

func TestResolveSlugURLsAllGenerations(t *testing.T) {
	urls := []string{
		"https://www.cbc.ca/player/play/event-name-30045",
		"https://www.cbc.ca/player/play/curling-norway-vs-canada-mixed-doubles-round-robin-30045",
	}
	for _, g := range Generations {
		for _, u := range urls {
			got, err := Resolve(g, u)
			if err != nil {
				t.Fatalf("Resolve(%s, %q) error: %v", g, u, err)
			}
			if got != "30045" {
				t.Errorf("Resolve(%s, %q) = %q; want %q", g, u, got, "30045")
			}
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		gen      Generation
		input    string
		expected string
	}{
		{"legacy plain URL", Legacy, "https://www.cbc.ca/player/play/2413071939", "2413071939"},
		{"legacy without www", Legacy, "https://cbc.ca/player/play/2413071939/", "2413071939"},
		{"catalog dotted bare", Catalog, "1.6329155", "1.6329155"},
		{"catalog dotted URL", Catalog, "https://www.cbc.ca/player/play/1.6329155", "1.6329155"},
		{"graphql dotted bare", GraphQL, "9.6483640", "9.6483640"},
		{"graphql video URL", GraphQL, "https://www.cbc.ca/player/play/video/9.6483640", "9.6483640"},
		{"graphql trailing slash", GraphQL, "https://www.cbc.ca/player/play/video/9.6483640/", "9.6483640"},
		{"graphql slug with query", GraphQL, "https://www.cbc.ca/player/play/video/event-name-30045?autoplay=1", "30045"},
		{"graphql trims space", GraphQL, "  30045 ", "30045"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.gen, tt.input)
			if err != nil {
				t.Fatalf("Resolve(%s, %q) error: %v", tt.gen, tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Resolve(%s, %q) = %q; want %q", tt.gen, tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name  string
		gen   Generation
		input string
	}{
		{"empty", GraphQL, ""},
		{"legacy dotted", Legacy, "https://www.cbc.ca/player/play/1.6329155"},
		{"legacy other host", Legacy, "https://example.com/player/play/123"},
		{"legacy leading id only", Legacy, "https://www.cbc.ca/player/play/123/some-title"},
		{"catalog garbage", Catalog, "not-an-id"},
		{"graphql other host", GraphQL, "https://example.com/video/30045"},
		{"graphql no id", GraphQL, "https://www.cbc.ca/player/sports"},
		{"graphql not a URL", GraphQL, "event-name-30045"},
		{"graphql bare host", GraphQL, "https://www.cbc.ca/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.gen, tt.input)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Resolve(%s, %q) error = %v; want ErrInvalid", tt.gen, tt.input, err)
			}
			var invalid *InvalidError
			if !errors.As(err, &invalid) || invalid.Generation != tt.gen {
				t.Errorf("error %v does not carry generation %s", err, tt.gen)
			}
			if Validate(tt.gen, tt.input) == nil {
				t.Errorf("Validate(%s, %q) accepted input Resolve rejects", tt.gen, tt.input)
			}
		})
	}
}

func TestParseGeneration(t *testing.T) {
	for _, in := range []string{"graphql", "GraphQL", "catalog", "legacy"} {
		if _, err := ParseGeneration(in); err != nil {
			t.Errorf("ParseGeneration(%q) error: %v", in, err)
		}
	}
	if _, err := ParseGeneration("v4"); err == nil {
		t.Error("ParseGeneration(\"v4\") accepted an unknown backend")
	}
}

func TestTrailingID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.cbc.ca/player/play/video/9.6483640", "9.6483640"},
		{"/player/play/event-name-30045", "30045"},
		{"/player/play/event-name-30045/", "30045"},
		{"30045", "30045"},
	}
	for _, tt := range tests {
		if got := TrailingID(tt.input); got != tt.expected {
			t.Errorf("TrailingID(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}
