package assets

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildViewURL(t *testing.T) {
	tests := []struct {
		name      string
		origin    string
		filename  string
		subfolder string
		assetType string
		expected  string
	}{
		{"filename only", "http://127.0.0.1:8188", "cat.png", "", "", "http://127.0.0.1:8188/view?filename=cat.png"},
		{"all params", "http://host", "cat.png", "a/b", "output", "http://host/view?filename=cat.png&subfolder=a%2Fb&type=output"},
		{"trailing slash origin", "http://host/", "x.mp4", "", "temp", "http://host/view?filename=x.mp4&type=temp"},
		{"path prefix", "http://host/comfy", "x.png", "", "", "http://host/comfy/view?filename=x.png"},
		{"escaped name", "http://host", "my cat.png", "", "", "http://host/view?filename=my+cat.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildViewURL(tt.origin, tt.filename, tt.subfolder, tt.assetType))
		})
	}
}

func TestBuildViewURL_RoundTrip(t *testing.T) {
	raw := BuildViewURL("https://example.com", "a&b.png", "sub dir", "input")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "/view", u.Path)
	assert.Equal(t, "a&b.png", u.Query().Get("filename"))
	assert.Equal(t, "sub dir", u.Query().Get("subfolder"))
	assert.Equal(t, "input", u.Query().Get("type"))
}
