package storage

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	"careercraft/internal/config"
	"careercraft/internal/domain"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// CheckImage accepts jpg, jpeg, png, gif and webp by extension and sniffed
// content, and returns the effective MIME type.
func CheckImage(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := imageTypes[ext]
	if !ok {
		return "", domain.Validation("only jpg, jpeg, png, gif and webp images are allowed")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	sniffed := http.DetectContentType(head)
	if !strings.HasPrefix(sniffed, "image/") {
		return "", domain.Validation("uploaded file is not an image")
	}
	return want, nil
}

// ImageNormalizer re-encodes images to WebP within bounded dimensions.
type ImageNormalizer struct {
	cfg config.ImagesConfig
}

func NewImageNormalizer(cfg config.ImagesConfig) *ImageNormalizer {
	return &ImageNormalizer{cfg: cfg}
}

func (n *ImageNormalizer) Enabled() bool { return n != nil && n.cfg.WebP }

// Normalize returns the WebP payload, its MIME type and the original name
// with a .webp extension. When disabled the input is returned unchanged.
func (n *ImageNormalizer) Normalize(data []byte, filename, mimeType string) ([]byte, string, string, error) {
	if !n.Enabled() {
		return data, filename, mimeType, nil
	}

	img, err := decodeImage(data, filename)
	if err != nil {
		return nil, "", "", domain.Validation("could not decode image")
	}

	b := img.Bounds()
	if (n.cfg.MaxWidth > 0 && b.Dx() > n.cfg.MaxWidth) || (n.cfg.MaxHeight > 0 && b.Dy() > n.cfg.MaxHeight) {
		img = imaging.Fit(img, n.cfg.MaxWidth, n.cfg.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: n.cfg.Quality}); err != nil {
		return nil, "", "", domain.Storage("failed to encode image", fmt.Errorf("webp encode: %w", err))
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".webp"
	return buf.Bytes(), name, "image/webp", nil
}

func decodeImage(data []byte, filename string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(filename), ".webp") {
		return webp.Decode(bytes.NewReader(data))
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
