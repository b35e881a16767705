// Package media stores uploaded category and item pictures.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/nfnt/resize"
)

// ErrUnsupportedFormat is returned for uploads that are not PNG or JPEG.
var ErrUnsupportedFormat = errors.New("unsupported image format, only PNG, JPG and JPEG are allowed")

// ErrImageTooLarge is returned for images whose declared size exceeds
// Uploader.MaxPixels.
var ErrImageTooLarge = errors.New("image dimensions are too large")

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Uploader decodes, downscales and re-encodes uploads as JPEG under Dir.
type Uploader struct {
	Dir       string
	MaxWidth  uint
	MaxPixels int64 // width*height limit checked before decoding
	Quality   int
}

func NewUploader(dir string) *Uploader {
	return &Uploader{Dir: dir, MaxWidth: 800, MaxPixels: 40_000_000, Quality: 80}
}

// Save writes the picture read from r to Dir/subdir and returns its path
// relative to Dir, using forward slashes. The file is named after stem.
func (u *Uploader) Save(r io.Reader, filename, subdir, stem string) (string, error) {
	if !allowedExt[strings.ToLower(filepath.Ext(filename))] {
		return "", ErrUnsupportedFormat
	}

	// The header is read first so oversized pictures are refused before
	// any pixel buffer is allocated.
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if format != "png" && format != "jpeg" {
		return "", ErrUnsupportedFormat
	}
	if u.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > u.MaxPixels {
		return "", ErrImageTooLarge
	}

	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if u.MaxWidth > 0 && uint(img.Bounds().Dx()) > u.MaxWidth {
		img = resize.Resize(u.MaxWidth, 0, img, resize.Lanczos3)
	}

	dir := filepath.Join(u.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	base := slug.Make(stem)
	if base == "" {
		base = "image"
	}
	name := fmt.Sprintf("%s-%s.jpg", base, uuid.New().String())

	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: u.Quality}); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("encode image: %w", err)
	}
	return path.Join(subdir, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are not
// an error.
func (u *Uploader) Remove(rel string) error {
	if rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(u.Dir, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
