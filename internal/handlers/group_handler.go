package handlers

import (
	"koleksi/internal/middleware"
	"koleksi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GroupHandler handles HTTP requests for groups.
type GroupHandler struct {
	service *services.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{
		service: service,
	}
}

// groupRequest is the writable part of a group payload. Absent fields stay nil.
type groupRequest struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
}

// RegisterRoutes registers the group routes on router.
func (h *GroupHandler) RegisterRoutes(router fiber.Router) {
	groupRoutes := router.Group("/groups")
	groupRoutes.Get("/", h.HandleListGroups)
	groupRoutes.Post("/", h.HandleCreateGroup)
	groupRoutes.Get("/:id", h.HandleGetGroup)
	groupRoutes.Put("/:id", h.HandleUpdateGroup)
	groupRoutes.Patch("/:id", h.HandleUpdateGroup)
	groupRoutes.Delete("/:id", h.HandleDeleteGroup)
}

// HandleListGroups lists the caller's groups.
func (h *GroupHandler) HandleListGroups(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "list groups")
	}
	groups, err := h.service.ListGroups(c.UserContext(), principal)
	if err != nil {
		return respondError(c, err, "list groups")
	}
	return c.JSON(groups)
}

// HandleCreateGroup creates a group owned by the caller.
func (h *GroupHandler) HandleCreateGroup(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "create group")
	}

	var req groupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	input := services.GroupInput{}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}

	group, err := h.service.CreateGroup(c.UserContext(), principal, input)
	if err != nil {
		return respondError(c, err, "create group")
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// HandleGetGroup returns one of the caller's groups.
func (h *GroupHandler) HandleGetGroup(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "retrieve group")
	}
	group, err := h.service.GetGroup(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return respondError(c, err, "retrieve group")
	}
	return c.JSON(group)
}

// HandleUpdateGroup applies the fields present in the body to one of the caller's groups.
func (h *GroupHandler) HandleUpdateGroup(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "update group")
	}

	var req groupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	group, err := h.service.UpdateGroup(c.UserContext(), principal, c.Params("id"), services.GroupPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err, "update group")
	}
	return c.JSON(group)
}

// HandleDeleteGroup deletes one of the caller's groups, ungrouping its collectibles.
func (h *GroupHandler) HandleDeleteGroup(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, services.ErrUnauthenticated, "delete group")
	}
	if err := h.service.DeleteGroup(c.UserContext(), principal, c.Params("id")); err != nil {
		return respondError(c, err, "delete group")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
