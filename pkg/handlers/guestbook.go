package handlers

import (
	"errors"
	"strconv"

	"guestbook/pkg/logger"
	"guestbook/pkg/metrics"
	"guestbook/pkg/models"
	"guestbook/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type GuestbookHandler struct {
	service services.GuestbookService
	metrics *metrics.Metrics
}

func NewGuestbook(service services.GuestbookService, m *metrics.Metrics) *GuestbookHandler {
	return &GuestbookHandler{service: service, metrics: m}
}

// Register mounts the single method-routed resource on path. GET is added
// without the implicit HEAD route so HEAD falls through to 405.
func (h *GuestbookHandler) Register(router fiber.Router, path string, postLimiter fiber.Handler) {
	router.Add(fiber.MethodGet, path, h.List)
	if postLimiter != nil {
		router.Post(path, postLimiter, h.Create)
	} else {
		router.Post(path, h.Create)
	}
	router.Delete(path, h.Delete)
	router.All(path, h.MethodNotAllowed)
}

// GET /api/guestbook
func (h *GuestbookHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, fiber.StatusOK, models.WireList(entries))
}

// POST /api/guestbook
func (h *GuestbookHandler) Create(c *fiber.Ctx) error {
	var req models.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, fiber.Map{"error": "Invalid JSON body"})
	}

	id, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	if h.metrics != nil {
		h.metrics.Created.Inc()
	}
	return h.respond(c, fiber.StatusOK, fiber.Map{"status": "success", "id": id})
}

// DELETE /api/guestbook
func (h *GuestbookHandler) Delete(c *fiber.Ctx) error {
	var req models.DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respond(c, fiber.StatusBadRequest, fiber.Map{"error": "Invalid JSON body"})
	}

	if err := h.service.Delete(c.UserContext(), req.ID, req.Username); err != nil {
		return h.fail(c, err)
	}

	if h.metrics != nil {
		h.metrics.Deleted.Inc()
	}
	return h.respond(c, fiber.StatusOK, fiber.Map{"status": "deleted"})
}

func (h *GuestbookHandler) MethodNotAllowed(c *fiber.Ctx) error {
	return h.respond(c, fiber.StatusMethodNotAllowed, fiber.Map{"error": "Method not allowed"})
}

func (h *GuestbookHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidEntry):
		return h.respond(c, fiber.StatusBadRequest, fiber.Map{"error": "Name and message are required"})
	case errors.Is(err, services.ErrForbidden):
		if h.metrics != nil {
			h.metrics.Denied.Inc()
		}
		return h.respond(c, fiber.StatusForbidden, fiber.Map{"error": "权限不足 / UNAUTHORIZED"})
	case errors.Is(err, services.ErrNotFound):
		return h.respond(c, fiber.StatusNotFound, fiber.Map{"error": "Message not found"})
	default:
		logger.For("guestbook").Error("store error", "method", c.Method(), "err", err)
		return h.respond(c, fiber.StatusInternalServerError, fiber.Map{
			"error":   "Failed to process request",
			"details": err.Error(),
		})
	}
}

func (h *GuestbookHandler) respond(c *fiber.Ctx, status int, body interface{}) error {
	if h.metrics != nil {
		h.metrics.Requests.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()
	}
	return c.Status(status).JSON(body)
}
