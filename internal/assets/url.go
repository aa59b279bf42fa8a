// Package assets builds retrieval URLs for remote assets served by the backend.
package assets

import (
	"net/url"
	"strings"
)

// ViewRoute is the backend route that serves stored assets.
const ViewRoute = "/view"

// BuildViewURL returns origin + /view with filename always set and subfolder and
// assetType set only when non-empty. An origin that fails to parse yields a
// root-relative URL.
func BuildViewURL(origin, filename, subfolder, assetType string) string {
	u, err := url.Parse(strings.TrimSuffix(origin, "/"))
	if err != nil {
		u = &url.URL{}
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + ViewRoute
	u.RawPath = ""

	query := url.Values{}
	query.Set("filename", filename)
	if subfolder != "" {
		query.Set("subfolder", subfolder)
	}
	if assetType != "" {
		query.Set("type", assetType)
	}
	u.RawQuery = query.Encode()
	u.Fragment = ""

	return u.String()
}
