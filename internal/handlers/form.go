package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"koleksi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// errUnsupportedMedia is returned for bodies that are neither multipart nor urlencoded.
var errUnsupportedMedia = errors.New("unsupported media type")

// formPayload is a parsed multipart or urlencoded body. Only keys present in the
// request appear in values.
type formPayload struct {
	values map[string]string
	image  *services.Upload
}

func (p formPayload) get(key string) string {
	return p.values[key]
}

func (p formPayload) lookup(key string) *string {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	return &v
}

// readForm parses the request body of a collectible write.
func readForm(c *fiber.Ctx) (formPayload, error) {
	payload := formPayload{values: map[string]string{}}
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))

	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return payload, fmt.Errorf("failed to parse multipart form: %w", err)
		}
		for key, vals := range form.Value {
			if len(vals) > 0 {
				payload.values[key] = vals[0]
			}
		}
		if files := form.File["image"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return payload, fmt.Errorf("failed to open uploaded image: %w", err)
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return payload, fmt.Errorf("failed to read uploaded image: %w", err)
			}
			payload.image = &services.Upload{Filename: files[0].Filename, Data: data}
		}
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			if _, seen := payload.values[string(key)]; !seen {
				payload.values[string(key)] = string(value)
			}
		})
	default:
		return payload, errUnsupportedMedia
	}
	return payload, nil
}
