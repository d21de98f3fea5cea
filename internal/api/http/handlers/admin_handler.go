package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Sweeper runs one SLA breach pass.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	sweeper Sweeper
}

// NewAdminHandler constructs handler.
func NewAdminHandler(sweeper Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// SweepSLA handles POST /admin/sla/sweep.
func (h *AdminHandler) SweepSLA(c *fiber.Ctx) error {
	breached, err := h.sweeper.Sweep(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"breached": breached})
}
