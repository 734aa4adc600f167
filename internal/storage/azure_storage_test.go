package storage

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlobURL(t *testing.T) {
	container, blob, err := parseBlobURL("https://acct.blob.core.windows.net/shelves/2024/aisle-3.jpg")
	require.NoError(t, err)
	assert.Equal(t, "shelves", container)
	assert.Equal(t, "2024/aisle-3.jpg", blob)

	for _, bad := range []string{
		"https://acct.blob.core.windows.net/",
		"https://acct.blob.core.windows.net/only-container",
		"https://acct.blob.core.windows.net/container/",
		"%zz",
	} {
		_, _, err := parseBlobURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewAzureImageFetcher(t *testing.T) {
	_, err := NewAzureImageFetcher("acct", "not base64 !!", 1024)
	assert.Error(t, err)

	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	f, err := NewAzureImageFetcher("acct", key, 1024)
	require.NoError(t, err)

	assert.True(t, f.Handles("https://acct.blob.core.windows.net/c/b.png"))
	assert.True(t, f.Handles("https://ACCT.blob.core.windows.net/c/b.png"))
	assert.False(t, f.Handles("https://other.blob.core.windows.net/c/b.png"))
	assert.False(t, f.Handles("https://example.com/b.png"))
}
