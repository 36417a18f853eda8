package api

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// StateMarker precedes the player state object that watch pages assign in
// an inline script.
const StateMarker = "window.__INITIAL_STATE__"

var (
	errMarkerNotFound = errors.New("state marker not found")
	errNoObject       = errors.New("no JSON object after marker")
	errUnbalanced     = errors.New("unbalanced JSON object")
)

// scriptWithState returns the text of the first inline <script> that
// contains marker. When scriptID is set only the script with that id is
// considered.
func scriptWithState(page []byte, scriptID, marker string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	var found string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "script" {
			if scriptID == "" || attr(n, "id") == scriptID {
				text := nodeText(n)
				if strings.Contains(text, marker) {
					found = text
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if !walk(doc) {
		return "", errMarkerNotFound
	}
	return found, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// ExtractObject returns the JSON object that starts at the first '{' after
// marker in text. The scan balances braces and skips string literals, so
// trailing statements or other objects on the page are never included.
func ExtractObject(text, marker string) (string, error) {
	i := strings.Index(text, marker)
	if i < 0 {
		return "", errMarkerNotFound
	}
	rest := text[i+len(marker):]
	start := strings.IndexByte(rest, '{')
	if start < 0 {
		return "", errNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(rest); j++ {
		c := rest[j]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[start : j+1], nil
			}
		}
	}
	return "", errUnbalanced
}

// embeddedState pulls the state object out of an HTML page.
func embeddedState(url string, page []byte, scriptID string) ([]byte, error) {
	script, err := scriptWithState(page, scriptID, StateMarker)
	if err != nil {
		return nil, &SchemaError{URL: url, What: "could not find embedded player state " + StateMarker, Err: err}
	}
	obj, err := ExtractObject(script, StateMarker)
	if err != nil {
		return nil, &SchemaError{URL: url, What: "could not extract embedded player state", Err: err}
	}
	return []byte(obj), nil
}
