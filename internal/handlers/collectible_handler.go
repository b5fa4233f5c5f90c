package handlers

import (
	"errors"

	"koleksi/internal/middleware"
	"koleksi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CollectibleHandler handles HTTP requests for collectibles.
type CollectibleHandler struct {
	service *services.CollectibleService
}

// NewCollectibleHandler creates a new CollectibleHandler.
func NewCollectibleHandler(service *services.CollectibleService) *CollectibleHandler {
	return &CollectibleHandler{
		service: service,
	}
}

// RegisterRoutes registers the collectible routes on router.
func (h *CollectibleHandler) RegisterRoutes(router fiber.Router) {
	collectibleRoutes := router.Group("/collectibles")
	collectibleRoutes.Get("/", h.HandleListCollectibles)
	collectibleRoutes.Post("/", h.HandleCreateCollectible)
	collectibleRoutes.Get("/:id", h.HandleGetCollectible)
	collectibleRoutes.Put("/:id", h.HandleUpdateCollectible)
	collectibleRoutes.Patch("/:id", h.HandleUpdateCollectible)
	collectibleRoutes.Delete("/:id", h.HandleDeleteCollectible)
}

// HandleListCollectibles lists the caller's collectibles, optionally only those in ?group=<id>.
func (h *CollectibleHandler) HandleListCollectibles(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "list collectibles")
	}
	collectibles, err := h.service.ListCollectibles(c.UserContext(), principal, services.CollectibleFilter{
		GroupID: c.Query("group"),
	})
	if err != nil {
		return respondError(c, err, "list collectibles")
	}
	return c.JSON(collectibles)
}

// HandleCreateCollectible creates a collectible from a multipart or urlencoded form.
// Any owner field in the form is ignored.
func (h *CollectibleHandler) HandleCreateCollectible(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "create collectible")
	}

	form, err := readForm(c)
	if err != nil {
		return badForm(c, err)
	}

	collectible, err := h.service.CreateCollectible(c.UserContext(), principal, services.CollectibleInput{
		Name:            form.get("name"),
		Description:     form.get("description"),
		AcquisitionDate: form.get("acquisition_date"),
		EstimatedValue:  form.get("estimated_value"),
		Condition:       form.get("condition"),
		Group:           form.get("group"),
	}, form.image)
	if err != nil {
		return respondError(c, err, "create collectible")
	}
	return c.Status(fiber.StatusCreated).JSON(collectible)
}

// HandleGetCollectible returns one of the caller's collectibles.
func (h *CollectibleHandler) HandleGetCollectible(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "retrieve collectible")
	}
	collectible, err := h.service.GetCollectible(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return respondError(c, err, "retrieve collectible")
	}
	return c.JSON(collectible)
}

// HandleUpdateCollectible applies the fields present in the form to one of the
// caller's collectibles. An empty group value ungroups it.
func (h *CollectibleHandler) HandleUpdateCollectible(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "update collectible")
	}

	form, err := readForm(c)
	if err != nil {
		return badForm(c, err)
	}

	collectible, err := h.service.UpdateCollectible(c.UserContext(), principal, c.Params("id"), services.CollectiblePatch{
		Name:            form.lookup("name"),
		Description:     form.lookup("description"),
		AcquisitionDate: form.lookup("acquisition_date"),
		EstimatedValue:  form.lookup("estimated_value"),
		Condition:       form.lookup("condition"),
		Group:           form.lookup("group"),
	}, form.image)
	if err != nil {
		return respondError(c, err, "update collectible")
	}
	return c.JSON(collectible)
}

// HandleDeleteCollectible deletes one of the caller's collectibles.
func (h *CollectibleHandler) HandleDeleteCollectible(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "delete collectible")
	}
	if err := h.service.DeleteCollectible(c.UserContext(), principal, c.Params("id")); err != nil {
		return respondError(c, err, "delete collectible")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func badForm(c *fiber.Ctx, err error) error {
	if errors.Is(err, errUnsupportedMedia) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"message": "Use multipart/form-data or application/x-www-form-urlencoded",
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
