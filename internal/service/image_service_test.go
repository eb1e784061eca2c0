package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"socialnet/internal/config"
	"socialnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageService_StoreWritesWebP(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService(&config.Config{ImageUploadDir: dir, ImageMaxUploadSizeMB: 1})

	content := testPNG(t, 64, 32)
	url, err := svc.Store(context.Background(), UploadImageInput{UserID: 1, Filename: "a.png", Content: content})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, ImageURLPrefix+"/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, ImageURLPrefix+"/")))
	require.NoError(t, err)
	decoded, format, err := image.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 64, decoded.Bounds().Dx())

	again, err := svc.Store(context.Background(), UploadImageInput{UserID: 2, Filename: "b.png", Content: content})
	require.NoError(t, err)
	assert.Equal(t, url, again)
}

func TestImageService_Rejections(t *testing.T) {
	svc := NewImageService(&config.Config{ImageUploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})

	cases := map[string][]byte{
		"empty":     nil,
		"not image": []byte("just some text that is not an image"),
		"too large": append(testPNG(t, 4, 4), make([]byte, 1024*1024)...),
		"truncated": testPNG(t, 16, 16)[:40],
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Store(context.Background(), UploadImageInput{UserID: 1, Content: content})
			require.Error(t, err)
			assert.True(t, models.IsValidation(err))
		})
	}
}

func TestResizeToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4000, 1000))
	out := resizeToFit(src, MaxImageEdge, MaxImageEdge)
	assert.Equal(t, MaxImageEdge, out.Bounds().Dx())
	assert.Equal(t, 512, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, resizeToFit(small, MaxImageEdge, MaxImageEdge))
}

func TestNewImageService_Defaults(t *testing.T) {
	svc := NewImageService(nil)
	assert.Equal(t, DefaultImageUploadDir, svc.UploadDir())
	assert.Equal(t, int64(DefaultImageMaxUploadSizeMB)*1024*1024, svc.maxUploadSizeBytes)
}
