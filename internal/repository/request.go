package repository

import (
	"context"
	"errors"

	"senioraid/internal/cache"
	"senioraid/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows a request listing. Zero values mean "no constraint".
type RequestFilter struct {
	Status       *models.RequestStatus
	CreatedByID  uint
	AcceptedByID uint
}

// RequestRepository defines persistence operations for help requests and the
// derived assignment index.
//
// The three *If* methods are the engine's conditional-transition primitives:
// each is a single UPDATE whose WHERE clause carries the expected prior state,
// so a concurrent writer that changed the row first makes the update match
// zero rows. They never read-then-write.
type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id uint) (*models.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]models.Request, error)

	// AcceptIfPending transitions Pending -> Accepted and records the actor
	// as acceptor, only if the request is still Pending.
	AcceptIfPending(ctx context.Context, id, actorID uint) (*models.Request, error)
	// CompleteIfAcceptedBy transitions Accepted -> Completed, only if the
	// request is Accepted and the actor is the recorded acceptor.
	CompleteIfAcceptedBy(ctx context.Context, id, actorID uint) (*models.Request, error)
	// ReopenIfAcceptedBy transitions Accepted -> Pending and clears the
	// acceptor, only if the request is Accepted and the actor is the
	// recorded acceptor.
	ReopenIfAcceptedBy(ctx context.Context, id, actorID uint) (*models.Request, error)

	AddAssignment(ctx context.Context, volunteerID, requestID uint) error
	RemoveAssignment(ctx context.Context, volunteerID, requestID uint) error
	GetAssignments(ctx context.Context, volunteerID uint) ([]models.Assignment, error)
	ReconcileAssignments(ctx context.Context) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	var request models.Request
	if err := readDB(r.db).WithContext(ctx).
		Preload("CreatedBy").
		Preload("AcceptedBy").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

// current reads the request from the primary connection, bypassing replica
// and cache. Used to disambiguate a zero-row conditional update: a stale
// read here would misreport a conflict as not-found or vice versa.
func (r *requestRepository) current(ctx context.Context, id uint) (*models.Request, error) {
	var request models.Request
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]models.Request, error) {
	q := readDB(r.db).WithContext(ctx).
		Preload("CreatedBy").
		Preload("AcceptedBy").
		Order("created_at DESC")

	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.CreatedByID != 0 {
		q = q.Where("created_by_id = ?", filter.CreatedByID)
	}
	if filter.AcceptedByID != 0 {
		q = q.Where("accepted_by_id = ?", filter.AcceptedByID)
	}

	var requests []models.Request
	if err := q.Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) AcceptIfPending(ctx context.Context, id, actorID uint) (*models.Request, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":         models.StatusAccepted,
			"accepted_by_id": actorID,
		})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := r.current(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.StatusCompleted {
			return nil, models.NewConflictError("Request is already completed")
		}
		return nil, models.NewConflictError("Request already accepted by another volunteer")
	}

	cache.InvalidateRequest(ctx, id)
	return r.GetByID(ctx, id)
}

func (r *requestRepository) CompleteIfAcceptedBy(ctx context.Context, id, actorID uint) (*models.Request, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ? AND accepted_by_id = ?", id, models.StatusAccepted, actorID).
		Update("status", models.StatusCompleted)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.explainOwnershipMiss(ctx, id, actorID, "complete")
	}

	cache.InvalidateRequest(ctx, id)
	return r.GetByID(ctx, id)
}

func (r *requestRepository) ReopenIfAcceptedBy(ctx context.Context, id, actorID uint) (*models.Request, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ? AND accepted_by_id = ?", id, models.StatusAccepted, actorID).
		Updates(map[string]interface{}{
			"status":         models.StatusPending,
			"accepted_by_id": nil,
		})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.explainOwnershipMiss(ctx, id, actorID, "unassign")
	}

	cache.InvalidateRequest(ctx, id)
	return r.GetByID(ctx, id)
}

// explainOwnershipMiss turns a zero-row Complete/Cancel update into the right
// error: not-found when the row is gone, forbidden when another volunteer
// holds the request, conflict when the state no longer allows the transition.
func (r *requestRepository) explainOwnershipMiss(ctx context.Context, id, actorID uint, verb string) error {
	current, err := r.current(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.StatusAccepted &&
		current.AcceptedByID != nil && *current.AcceptedByID != actorID {
		return models.NewForbiddenError("Not authorized to " + verb + " this request")
	}
	return models.NewConflictError("Request is not in an accepted state")
}

func (r *requestRepository) AddAssignment(ctx context.Context, volunteerID, requestID uint) error {
	assignment := models.Assignment{VolunteerID: volunteerID, RequestID: requestID}
	// Idempotent under retry: re-adding an existing membership is a no-op.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) RemoveAssignment(ctx context.Context, volunteerID, requestID uint) error {
	// Idempotent: removing an absent membership is a no-op.
	if err := r.db.WithContext(ctx).
		Where("volunteer_id = ? AND request_id = ?", volunteerID, requestID).
		Delete(&models.Assignment{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetAssignments(ctx context.Context, volunteerID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := readDB(r.db).WithContext(ctx).
		Where("volunteer_id = ?", volunteerID).
		Preload("Request").
		Preload("Request.CreatedBy").
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return assignments, nil
}

// ReconcileAssignments rebuilds the assignment index from the authoritative
// request rows. Returns the number of memberships after the rebuild.
func (r *requestRepository) ReconcileAssignments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM assignments").Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`INSERT INTO assignments (volunteer_id, request_id, created_at)
			 SELECT accepted_by_id, id, CURRENT_TIMESTAMP FROM requests
			 WHERE status = ? AND accepted_by_id IS NOT NULL`,
			models.StatusAccepted,
		).Error; err != nil {
			return err
		}
		return tx.Model(&models.Assignment{}).Count(&count).Error
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
