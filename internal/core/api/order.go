package api

import (
	"context"
	"net/url"
	"strings"
)

// orderResponse is the bistro order endpoint payload, trimmed to the fields
// the pipeline reads.
type orderResponse struct {
	Items []struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		AssetDescriptors []struct {
			Loader   string  `json:"loader"`
			Key      string  `json:"key"`
			MimeType *string `json:"mimeType"`
		} `json:"assetDescriptors"`
	} `json:"items"`
}

func orderURL(origin, id string) string {
	q := url.Values{}
	q.Set("mediaId", id)
	q.Set("limit", "10")
	q.Set("sort", "dateAired")
	return origin + "/bistro/order?" + q.Encode()
}

// fetchOrder asks the order endpoint for id and returns the descriptor
// served by the platform loader of the first item.
func fetchOrder(ctx context.Context, f *Fetcher, origin, id string) (*AssetDescriptor, error) {
	target := orderURL(origin, id)
	body, err := f.Get(ctx, target, nil)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := decodeJSON(target, body, "order response", &order); err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, schemaErrorf(target, "order response has no items for media %s", id)
	}

	item := order.Items[0]
	assets := make([]AssetDescriptor, 0, len(item.AssetDescriptors))
	for _, d := range item.AssetDescriptors {
		a := AssetDescriptor{Loader: d.Loader, Key: d.Key}
		if d.MimeType != nil {
			a.MimeType = *d.MimeType
		}
		assets = append(assets, a)
	}

	desc := findAsset(assets, PlatformLoader)
	if desc == nil {
		return nil, schemaErrorf(target, "couldn't find asset descriptor with loader %q (loaders: %s)", PlatformLoader, loaderNames(assets))
	}
	if desc.Key == "" {
		return nil, schemaErrorf(target, "asset descriptor %q has an empty key", PlatformLoader)
	}
	f.log.Debugw("selected asset descriptor", "loader", desc.Loader, "key", desc.Key)
	return desc, nil
}

func loaderNames(assets []AssetDescriptor) string {
	if len(assets) == 0 {
		return "none"
	}
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Loader
	}
	return strings.Join(names, ", ")
}

// streamResponse is the stream-validation document returned for medianet
// and platform-loader keys.
type streamResponse struct {
	URL       string `json:"url"`
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}

// fetchStreamJSON follows a stream-validation URL. referer must be the
// watch page or the endpoint refuses the request.
func fetchStreamJSON(ctx context.Context, f *Fetcher, target, referer string) (*StreamDescriptor, error) {
	body, err := f.Get(ctx, target, map[string]string{"Referer": referer})
	if err != nil {
		return nil, err
	}

	var resp streamResponse
	if err := decodeJSON(target, body, "stream descriptor", &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != 0 {
		return nil, &UpstreamError{Method: "GET", URL: target, ErrorCode: resp.ErrorCode, Message: resp.Message}
	}
	if resp.URL == "" {
		return nil, schemaErrorf(target, "stream descriptor has no url")
	}
	return &StreamDescriptor{URL: resp.URL, ErrorCode: resp.ErrorCode}, nil
}

// fetchSMIL follows a SMIL manifest to its video source.
func fetchSMIL(ctx context.Context, f *Fetcher, target, referer string) (*StreamDescriptor, error) {
	body, err := f.Get(ctx, target, map[string]string{"Referer": referer})
	if err != nil {
		return nil, err
	}
	src, err := smilSource(target, body)
	if err != nil {
		return nil, err
	}
	return &StreamDescriptor{URL: src}, nil
}
