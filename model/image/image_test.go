package image_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/model/image"
)

type fakeSchema struct {
	Tables []string
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	data, err := image.EncodeBytes([]image.Plugin{
		{ID: "postgres", Payload: fakeSchema{Tables: []string{"todos", "users"}}},
		{ID: "access", Payload: map[string]string{"Todo": "self.ownerId == AuthContext.id"}},
	})
	require.NoError(t, err)

	blobs, err := image.DecodeBytes(data)
	require.NoError(t, err)
	require.Len(t, blobs, 2)

	pg, ok := image.Find(blobs, "postgres")
	require.True(t, ok)
	var schema fakeSchema
	require.NoError(t, image.DecodeBlob(pg, &schema))
	assert.Equal(t, []string{"todos", "users"}, schema.Tables)

	_, ok = image.Find(blobs, "nonexistent")
	assert.False(t, ok)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := image.DecodeBytes([]byte("not an image at all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	data, err := image.EncodeBytes(nil)
	require.NoError(t, err)
	data[4] = 0xFF // corrupt the version field
	_, err = image.DecodeBytes(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}
