// Package service contains the business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"

	"senioraid/internal/featureflags"
	"senioraid/internal/middleware"
	"senioraid/internal/models"
	"senioraid/internal/observability"
	"senioraid/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// RequestService is the request lifecycle engine. It owns the Pending ->
// Accepted -> Completed state machine, enforces role-based transition rules,
// and keeps the derived assignment index in step with successful transitions.
//
// Concurrency safety does not rely on in-process locking: every transition is
// delegated to a conditional update on RequestRepository, so the engine is
// safe under arbitrary concurrent invocation across server instances.
type RequestService struct {
	requestRepo repository.RequestRepository
	userRepo    repository.UserRepository
	flags       *featureflags.Manager
}

// NewRequestService returns a new RequestService.
func NewRequestService(requestRepo repository.RequestRepository, userRepo repository.UserRepository, flags *featureflags.Manager) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		flags:       flags,
	}
}

// CreateRequestInput carries the fields a caller may set at creation time.
type CreateRequestInput struct {
	Title       string
	Description string
	Type        models.RequestType
	Urgency     models.Urgency
	Destination string
	CreatedByID uint
}

// CreateRequest creates a new help request in the Pending state.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.Request, error) {
	if in.Title == "" || in.Type == "" {
		return nil, models.NewValidationError("Title and Type are required")
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Unknown request type")
	}
	if in.Urgency == "" {
		in.Urgency = models.UrgencyLow
	}
	if !in.Urgency.Valid() {
		return nil, models.NewValidationError("Unknown urgency level")
	}

	request := &models.Request{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Urgency:     in.Urgency,
		Destination: in.Destination,
		Status:      models.StatusPending,
		CreatedByID: in.CreatedByID,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	return s.requestRepo.GetByID(ctx, request.ID)
}

// ListRequests returns the role-scoped view of requests for the actor.
//
// Volunteers with no status filter get the restrictive default: their own
// accepted and completed requests. The open Pending pool requires an explicit
// Pending filter, unless the volunteer_open_pool_default flag restores the
// permissive legacy view.
func (s *RequestService) ListRequests(ctx context.Context, actorID uint, role models.Role, status *models.RequestStatus) ([]models.Request, error) {
	if status != nil && !status.Valid() {
		return nil, models.NewValidationError("Unknown status filter")
	}

	switch role {
	case models.RoleSenior:
		return s.requestRepo.List(ctx, repository.RequestFilter{
			Status:      status,
			CreatedByID: actorID,
		})

	case models.RoleVolunteer:
		if status != nil {
			if *status == models.StatusPending {
				// The open pool: every unclaimed request system-wide.
				return s.requestRepo.List(ctx, repository.RequestFilter{Status: status})
			}
			return s.requestRepo.List(ctx, repository.RequestFilter{
				Status:       status,
				AcceptedByID: actorID,
			})
		}
		if s.flags.Enabled("volunteer_open_pool_default", actorID) {
			return s.requestRepo.List(ctx, repository.RequestFilter{})
		}
		return s.requestRepo.List(ctx, repository.RequestFilter{AcceptedByID: actorID})

	case models.RoleAdmin:
		return s.requestRepo.List(ctx, repository.RequestFilter{Status: status})
	}

	return nil, models.NewForbiddenError("Unknown role")
}

// GetRequest returns one request if it is visible to the actor.
func (s *RequestService) GetRequest(ctx context.Context, actorID uint, role models.Role, id uint) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
		return request, nil
	case models.RoleSenior:
		if request.CreatedByID == actorID {
			return request, nil
		}
	case models.RoleVolunteer:
		if request.Status == models.StatusPending ||
			request.CreatedByID == actorID ||
			(request.AcceptedByID != nil && *request.AcceptedByID == actorID) {
			return request, nil
		}
	}

	// Hide existence from actors outside the request's visibility scope.
	return nil, models.NewNotFoundError("Request", id)
}

// AcceptRequest claims a Pending request for the actor. Open to volunteers
// and admins. Exactly one of any set of concurrent accept attempts succeeds;
// the rest receive a conflict.
func (s *RequestService) AcceptRequest(ctx context.Context, actorID uint, role models.Role, id uint) (*models.Request, error) {
	if role != models.RoleVolunteer && role != models.RoleAdmin {
		return nil, models.NewForbiddenError("Only volunteers can accept requests")
	}

	span, ctx := observability.NewSpan(ctx, "request.accept")
	defer span.End()
	span.AddAttributes(attribute.Int("request.id", int(id)))

	request, err := s.requestRepo.AcceptIfPending(ctx, id, actorID)
	if err != nil {
		s.noteTransitionFailure(span, err, models.StatusAccepted)
		return nil, err
	}

	s.updateAssignmentIndex(ctx, actorID, id, true)
	return request, nil
}

// CompleteRequest marks an accepted request as done. Only the recorded
// acceptor may complete it. Completed is terminal.
func (s *RequestService) CompleteRequest(ctx context.Context, actorID uint, id uint) (*models.Request, error) {
	span, ctx := observability.NewSpan(ctx, "request.complete")
	defer span.End()
	span.AddAttributes(attribute.Int("request.id", int(id)))

	request, err := s.requestRepo.CompleteIfAcceptedBy(ctx, id, actorID)
	if err != nil {
		s.noteTransitionFailure(span, err, models.StatusCompleted)
		return nil, err
	}

	s.updateAssignmentIndex(ctx, actorID, id, false)
	return request, nil
}

// CancelRequest returns an accepted request to the open pool. Only the
// recorded acceptor may unassign themselves.
func (s *RequestService) CancelRequest(ctx context.Context, actorID uint, id uint) (*models.Request, error) {
	span, ctx := observability.NewSpan(ctx, "request.cancel")
	defer span.End()
	span.AddAttributes(attribute.Int("request.id", int(id)))

	request, err := s.requestRepo.ReopenIfAcceptedBy(ctx, id, actorID)
	if err != nil {
		s.noteTransitionFailure(span, err, models.StatusPending)
		return nil, err
	}

	s.updateAssignmentIndex(ctx, actorID, id, false)
	return request, nil
}

// UpdateStatus is the parameterized transition entry point. It dispatches to
// the same conditional updates as the named operations; semantics are
// identical by construction.
func (s *RequestService) UpdateStatus(ctx context.Context, actorID uint, role models.Role, id uint, target models.RequestStatus) (*models.Request, error) {
	switch target {
	case models.StatusAccepted:
		return s.AcceptRequest(ctx, actorID, role, id)
	case models.StatusCompleted:
		return s.CompleteRequest(ctx, actorID, id)
	case models.StatusPending:
		return s.CancelRequest(ctx, actorID, id)
	}
	return nil, models.NewValidationError("Invalid status update")
}

// AssignVolunteer lets an admin claim a Pending request on behalf of a
// specific volunteer. It rides the same conditional update as AcceptRequest,
// with the volunteer recorded as acceptor.
func (s *RequestService) AssignVolunteer(ctx context.Context, id, volunteerID uint) (*models.Request, error) {
	volunteer, err := s.userRepo.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if volunteer.Role != models.RoleVolunteer {
		return nil, models.NewValidationError("Assignee must be a volunteer")
	}

	request, err := s.requestRepo.AcceptIfPending(ctx, id, volunteerID)
	if err != nil {
		return nil, err
	}

	s.updateAssignmentIndex(ctx, volunteerID, id, true)
	return request, nil
}

// MyAssignments returns the actor's derived assignment set.
func (s *RequestService) MyAssignments(ctx context.Context, actorID uint) ([]models.Assignment, error) {
	return s.requestRepo.GetAssignments(ctx, actorID)
}

// ReconcileAssignments rebuilds the assignment index from the authoritative
// request rows. Recovery path for index drift; safe to run at any time.
func (s *RequestService) ReconcileAssignments(ctx context.Context) (int64, error) {
	return s.requestRepo.ReconcileAssignments(ctx)
}

// updateAssignmentIndex applies the secondary index change after a committed
// transition. Best-effort: a failure here never rolls back the transition,
// since the request row is the source of truth and the index can be rebuilt.
func (s *RequestService) updateAssignmentIndex(ctx context.Context, volunteerID, requestID uint, add bool) {
	var err error
	if add {
		err = s.requestRepo.AddAssignment(ctx, volunteerID, requestID)
	} else {
		err = s.requestRepo.RemoveAssignment(ctx, volunteerID, requestID)
	}
	if err != nil {
		middleware.AssignmentIndexFailures.Inc()
		middleware.Logger.WarnContext(ctx, "assignment index update failed",
			slog.Uint64("volunteer_id", uint64(volunteerID)),
			slog.Uint64("request_id", uint64(requestID)),
			slog.Bool("add", add),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RequestService) noteTransitionFailure(span *observability.Span, err error, target models.RequestStatus) {
	span.SetError(err)
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == "CONFLICT" {
		middleware.TransitionConflicts.WithLabelValues(string(target)).Inc()
	}
}
