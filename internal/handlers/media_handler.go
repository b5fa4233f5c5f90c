package handlers

import (
	"errors"
	"io"
	"log"
	"path/filepath"

	"koleksi/pkg/blobstore"

	"github.com/gofiber/fiber/v2"
)

// BlobReader opens stored blobs by key. *blobstore.Store implements it.
type BlobReader interface {
	Open(key string) (io.ReadCloser, error)
}

// MediaHandler serves stored images.
type MediaHandler struct {
	blobs BlobReader
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(blobs BlobReader) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// RegisterRoutes registers GET /media/* on router.
func (h *MediaHandler) RegisterRoutes(router fiber.Router) {
	router.Get(blobstore.MediaPath+"*", h.HandleGetMedia)
}

// HandleGetMedia streams the blob named by the path after /media/.
func (h *MediaHandler) HandleGetMedia(c *fiber.Ctx) error {
	key := c.Params("*")
	r, err := h.blobs.Open(key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found."})
		}
		log.Printf("Error opening media %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not read media"})
	}
	c.Type(filepath.Ext(key))
	return c.SendStream(r)
}
