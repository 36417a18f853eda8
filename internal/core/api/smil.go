package api

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// smilSource returns the src of the first <video> that is a direct child of
// a <seq> container. thePlatform answers blocked requests with a <ref>
// carrying an exception attribute instead of a video, which is reported as
// an UpstreamError.
func smilSource(url string, doc []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false

	var stack []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &SchemaError{URL: url, What: "failed to decode SMIL document", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			if parent == "seq" {
				switch t.Name.Local {
				case "video":
					if src := xmlAttr(t, "src"); src != "" {
						return src, nil
					}
					return "", schemaErrorf(url, "SMIL <video> element has no src")
				case "ref":
					if exc := xmlAttr(t, "exception"); exc != "" {
						return "", &UpstreamError{Method: "GET", URL: url, Err: fmt.Errorf("%s: %s", exc, xmlAttr(t, "abstract"))}
					}
				}
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return "", schemaErrorf(url, "SMIL document has no <video> under <seq>")
}

func xmlAttr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
