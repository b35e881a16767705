package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/itemcatalog-golang/internal/media"
)

// saveUpload stores the optional "image" file of a multipart form under
// subdir and returns its path relative to the uploads directory. It returns
// nil when no file was sent.
func (h *Handlers) saveUpload(c *gin.Context, subdir, stem string) (*string, error) {
	// 1. Get the file from the request
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if file.Size == 0 {
		return nil, nil
	}

	// 2. Decode, downscale and save it as JPEG
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	rel, err := h.Uploads.Save(src, file.Filename, subdir, stem)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// uploadMessage turns an upload failure into a message for the user.
func uploadMessage(err error) string {
	if errors.Is(err, media.ErrUnsupportedFormat) {
		return "Unsupported image format. Only PNG, JPG, JPEG are allowed."
	}
	if errors.Is(err, media.ErrImageTooLarge) {
		return "The uploaded image is too large."
	}
	return "Failed to process the uploaded image."
}

// removeUpload deletes a replaced or orphaned image, logging failures.
func (h *Handlers) removeUpload(rel *string) {
	if rel == nil {
		return
	}
	if err := h.Uploads.Remove(*rel); err != nil {
		h.logger().Warn("Failed to remove image", "path", *rel, "error", err)
	}
}
