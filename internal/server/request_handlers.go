// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"senioraid/internal/models"
	"senioraid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateRequest handles POST /api/requests
// @Summary Create a help request
// @Description Create a new help request in the Pending state
// @Tags requests
// @Accept json
// @Produce json
// @Param request body object{title=string,description=string,type=string,urgency=string,destination=string} true "Request payload"
// @Success 201 {object} models.Request
// @Failure 400 {object} object{error=string}
// @Router /requests [post]
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	var req struct {
		Title       string             `json:"title"`
		Description string             `json:"description"`
		Type        models.RequestType `json:"type"`
		Urgency     models.Urgency     `json:"urgency"`
		Destination string             `json:"destination"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.CreateRequest(c.Context(), service.CreateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Urgency:     req.Urgency,
		Destination: req.Destination,
		CreatedByID: s.actorID(c),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetRequests handles GET /api/requests?status=...
// The listing is role-scoped: seniors see their own requests, volunteers see
// their accepted work (or the open pool with ?status=Pending), admins see all.
func (s *Server) GetRequests(c *fiber.Ctx) error {
	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		st := models.RequestStatus(raw)
		status = &st
	}

	requests, err := s.requestService.ListRequests(c.Context(), s.actorID(c), s.actorRole(c), status)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(requests)
}

// GetRequest handles GET /api/requests/:id
func (s *Server) GetRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	request, err := s.requestService.GetRequest(c.Context(), s.actorID(c), s.actorRole(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(request)
}

// AcceptRequest handles PUT /api/requests/:id/accept
// @Summary Accept a pending request
// @Description Claim a pending help request; exactly one concurrent accept wins
// @Tags requests
// @Produce json
// @Success 200 {object} models.Request
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /requests/{id}/accept [put]
func (s *Server) AcceptRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	request, err := s.requestService.AcceptRequest(c.Context(), s.actorID(c), s.actorRole(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(request)
}

// CompleteRequest handles PUT /api/requests/:id/complete
func (s *Server) CompleteRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	request, err := s.requestService.CompleteRequest(c.Context(), s.actorID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(request)
}

// CancelRequest handles PUT /api/requests/:id/cancel
// Returns the actor's accepted request to the open pool.
func (s *Server) CancelRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	request, err := s.requestService.CancelRequest(c.Context(), s.actorID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(request)
}

// UpdateRequestStatus handles PUT /api/requests/:id with a {"status": ...}
// body. It dispatches to the same transitions as the named endpoints.
func (s *Server) UpdateRequestStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status models.RequestStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.UpdateStatus(c.Context(), s.actorID(c), s.actorRole(c), id, req.Status)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(request)
}

// GetMyAssignments handles GET /api/requests/assigned/me
func (s *Server) GetMyAssignments(c *fiber.Ctx) error {
	assignments, err := s.requestService.MyAssignments(c.Context(), s.actorID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(assignments)
}
