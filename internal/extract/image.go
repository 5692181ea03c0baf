package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// ImageInfo holds basic metadata for an uploaded image.
type ImageInfo struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageExtSupported reports whether ext (with leading dot) is a decodable
// image format.
func ImageExtSupported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	default:
		return false
	}
}

// DecodeImageInfo reads format and dimensions from image bytes without
// decoding the full pixel data.
func DecodeImageInfo(content []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode image: %w", err)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ImageDataURL encodes image bytes as a base64 data URL for vision models.
// The format is detected from the content.
func ImageDataURL(content []byte) (string, error) {
	info, err := DecodeImageInfo(content)
	if err != nil {
		return "", err
	}
	mime := "image/" + info.Format
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(content)), nil
}
