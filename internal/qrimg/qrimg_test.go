package qrimg

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	t.Run("renders decodable png of requested size", func(t *testing.T) {
		data, err := PNG("https://rollcall.test/attendance/session-1?signature=abc&timestamp=1700000000000", 200)

		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
		assert.Equal(t, 200, img.Bounds().Dy())
	})

	t.Run("non positive size falls back to default", func(t *testing.T) {
		data, err := PNG("https://rollcall.test/attendance/session-1", 0)

		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, DefaultSize, img.Bounds().Dx())
	})
}

func TestDataURL(t *testing.T) {
	url, err := DataURL("https://rollcall.test/attendance/session-1", 100)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}
