// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"time"

	"senioraid/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAllUsers handles GET /api/admin/users
// Admin check is enforced by AdminRequired middleware on the route.
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	page := parsePagination(c, 100)

	users, err := s.userService.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error": "Request timeout",
			})
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(users)
}

// AssignVolunteer handles PUT /api/admin/assign/:requestId
// Claims a pending request on behalf of the named volunteer. Rides the same
// conditional transition as a volunteer acceptance, so a lost race returns 409.
func (s *Server) AssignVolunteer(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	var req struct {
		VolunteerID uint `json:"volunteer_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.VolunteerID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("volunteer_id is required"))
	}

	request, err := s.requestService.AssignVolunteer(c.Context(), requestID, req.VolunteerID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(request)
}

// ReconcileAssignments handles POST /api/admin/assignments/reconcile
// Rebuilds the volunteer assignment index from request rows.
func (s *Server) ReconcileAssignments(c *fiber.Ctx) error {
	rebuilt, err := s.requestService.ReconcileAssignments(c.Context())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message":   "Assignment index rebuilt",
		"rebuilt":   rebuilt,
		"timestamp": time.Now().UTC(),
	})
}
