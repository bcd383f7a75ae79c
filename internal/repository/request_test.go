package repository

import (
	"context"
	"errors"
	"testing"

	"senioraid/internal/database"
	"senioraid/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    name + "@senioraid.test",
		Password: "password123",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createTestRequest(t *testing.T, db *gorm.DB, senior *models.User) *models.Request {
	t.Helper()
	request := &models.Request{
		Title:       "Pick up prescription",
		Type:        models.TypeMedicine,
		Urgency:     models.UrgencyMedium,
		Status:      models.StatusPending,
		CreatedByID: senior.ID,
	}
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return request
}

func requireAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, appErr)
	}
	return appErr
}

func TestAcceptIfPending(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	request := createTestRequest(t, db, senior)

	accepted, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != models.StatusAccepted {
		t.Errorf("expected status Accepted, got %s", accepted.Status)
	}
	if accepted.AcceptedByID == nil || *accepted.AcceptedByID != volunteer.ID {
		t.Errorf("expected acceptor %d, got %v", volunteer.ID, accepted.AcceptedByID)
	}
}

func TestAcceptIfPendingAlreadyAccepted(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	first := createTestUser(t, db, "tom", models.RoleVolunteer)
	second := createTestUser(t, db, "ana", models.RoleVolunteer)
	request := createTestRequest(t, db, senior)

	if _, err := repo.AcceptIfPending(ctx, request.ID, first.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	_, err := repo.AcceptIfPending(ctx, request.ID, second.ID)
	appErr := requireAppErrorCode(t, err, "CONFLICT")
	if appErr.Message != "Request already accepted by another volunteer" {
		t.Errorf("unexpected conflict message: %s", appErr.Message)
	}

	// Acceptor must still be the first winner.
	reloaded, err := repo.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.AcceptedByID == nil || *reloaded.AcceptedByID != first.ID {
		t.Errorf("expected acceptor %d, got %v", first.ID, reloaded.AcceptedByID)
	}
}

func TestAcceptIfPendingCompleted(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	request := createTestRequest(t, db, senior)

	if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := repo.CompleteIfAcceptedBy(ctx, request.ID, volunteer.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	_, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID)
	appErr := requireAppErrorCode(t, err, "CONFLICT")
	if appErr.Message != "Request is already completed" {
		t.Errorf("unexpected conflict message: %s", appErr.Message)
	}
}

func TestAcceptIfPendingMissingRequest(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)

	_, err := repo.AcceptIfPending(context.Background(), 9999, 1)
	requireAppErrorCode(t, err, "NOT_FOUND")
}

func TestCompleteIfAcceptedBy(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	other := createTestUser(t, db, "ana", models.RoleVolunteer)

	t.Run("Success", func(t *testing.T) {
		request := createTestRequest(t, db, senior)
		if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		completed, err := repo.CompleteIfAcceptedBy(ctx, request.ID, volunteer.ID)
		if err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if completed.Status != models.StatusCompleted {
			t.Errorf("expected status Completed, got %s", completed.Status)
		}
		if completed.AcceptedByID == nil || *completed.AcceptedByID != volunteer.ID {
			t.Errorf("expected acceptor preserved, got %v", completed.AcceptedByID)
		}
	})

	t.Run("Wrong Actor", func(t *testing.T) {
		request := createTestRequest(t, db, senior)
		if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		_, err := repo.CompleteIfAcceptedBy(ctx, request.ID, other.ID)
		appErr := requireAppErrorCode(t, err, "FORBIDDEN")
		if appErr.Message != "Not authorized to complete this request" {
			t.Errorf("unexpected message: %s", appErr.Message)
		}
	})

	t.Run("Still Pending", func(t *testing.T) {
		request := createTestRequest(t, db, senior)
		_, err := repo.CompleteIfAcceptedBy(ctx, request.ID, volunteer.ID)
		appErr := requireAppErrorCode(t, err, "CONFLICT")
		if appErr.Message != "Request is not in an accepted state" {
			t.Errorf("unexpected message: %s", appErr.Message)
		}
	})
}

func TestReopenIfAcceptedBy(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	other := createTestUser(t, db, "ana", models.RoleVolunteer)

	t.Run("Success", func(t *testing.T) {
		request := createTestRequest(t, db, senior)
		if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		reopened, err := repo.ReopenIfAcceptedBy(ctx, request.ID, volunteer.ID)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		if reopened.Status != models.StatusPending {
			t.Errorf("expected status Pending, got %s", reopened.Status)
		}
		if reopened.AcceptedByID != nil {
			t.Errorf("expected acceptor cleared, got %v", *reopened.AcceptedByID)
		}

		// The request is claimable again by anyone.
		if _, err := repo.AcceptIfPending(ctx, request.ID, other.ID); err != nil {
			t.Fatalf("re-accept after reopen failed: %v", err)
		}
	})

	t.Run("Wrong Actor", func(t *testing.T) {
		request := createTestRequest(t, db, senior)
		if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		_, err := repo.ReopenIfAcceptedBy(ctx, request.ID, other.ID)
		appErr := requireAppErrorCode(t, err, "FORBIDDEN")
		if appErr.Message != "Not authorized to unassign this request" {
			t.Errorf("unexpected message: %s", appErr.Message)
		}
	})

	t.Run("Already Completed", func(t *testing.T) {
		request := createTestRequest(t, db, senior)
		if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if _, err := repo.CompleteIfAcceptedBy(ctx, request.ID, volunteer.ID); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		_, err := repo.ReopenIfAcceptedBy(ctx, request.ID, volunteer.ID)
		requireAppErrorCode(t, err, "CONFLICT")
	})
}

func TestAssignmentIdempotence(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	request := createTestRequest(t, db, senior)

	// Adding the same membership twice leaves a single row.
	if err := repo.AddAssignment(ctx, volunteer.ID, request.ID); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := repo.AddAssignment(ctx, volunteer.ID, request.ID); err != nil {
		t.Fatalf("repeated add failed: %v", err)
	}

	var count int64
	db.Model(&models.Assignment{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 assignment row, got %d", count)
	}

	// Removing an absent membership is a no-op.
	if err := repo.RemoveAssignment(ctx, volunteer.ID, request.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := repo.RemoveAssignment(ctx, volunteer.ID, request.ID); err != nil {
		t.Fatalf("repeated remove failed: %v", err)
	}

	db.Model(&models.Assignment{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected 0 assignment rows, got %d", count)
	}
}

func TestGetAssignments(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	other := createTestUser(t, db, "ana", models.RoleVolunteer)

	mine := createTestRequest(t, db, senior)
	theirs := createTestRequest(t, db, senior)

	if _, err := repo.AcceptIfPending(ctx, mine.ID, volunteer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := repo.AcceptIfPending(ctx, theirs.ID, other.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := repo.AddAssignment(ctx, volunteer.ID, mine.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := repo.AddAssignment(ctx, other.ID, theirs.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	assignments, err := repo.GetAssignments(ctx, volunteer.ID)
	if err != nil {
		t.Fatalf("get assignments failed: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(assignments))
	}
	if assignments[0].RequestID != mine.ID {
		t.Errorf("expected request %d, got %d", mine.ID, assignments[0].RequestID)
	}
	if assignments[0].Request == nil || assignments[0].Request.Title == "" {
		t.Error("expected request preloaded on assignment")
	}
}

func TestReconcileAssignments(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)

	accepted := createTestRequest(t, db, senior)
	done := createTestRequest(t, db, senior)
	open := createTestRequest(t, db, senior)
	_ = open

	if _, err := repo.AcceptIfPending(ctx, accepted.ID, volunteer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := repo.AcceptIfPending(ctx, done.ID, volunteer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := repo.CompleteIfAcceptedBy(ctx, done.ID, volunteer.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// Corrupt the index: a stale membership for the completed request and no
	// membership at all for the accepted one.
	if err := db.Create(&models.Assignment{VolunteerID: volunteer.ID, RequestID: done.ID}).Error; err != nil {
		t.Fatalf("failed to plant stale assignment: %v", err)
	}

	count, err := repo.ReconcileAssignments(ctx)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 membership after rebuild, got %d", count)
	}

	var rebuilt []models.Assignment
	if err := db.Find(&rebuilt).Error; err != nil {
		t.Fatalf("failed to read assignments: %v", err)
	}
	if len(rebuilt) != 1 || rebuilt[0].RequestID != accepted.ID || rebuilt[0].VolunteerID != volunteer.ID {
		t.Fatalf("rebuilt index does not match accepted requests: %+v", rebuilt)
	}
}

func TestListFilters(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", models.RoleSenior)
	bob := createTestUser(t, db, "bob", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)

	r1 := createTestRequest(t, db, alice)
	createTestRequest(t, db, alice)
	createTestRequest(t, db, bob)

	if _, err := repo.AcceptIfPending(ctx, r1.ID, volunteer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	pending := models.StatusPending
	accepted := models.StatusAccepted

	cases := []struct {
		name   string
		filter RequestFilter
		want   int
	}{
		{"All", RequestFilter{}, 3},
		{"By Creator", RequestFilter{CreatedByID: alice.ID}, 2},
		{"Pending Pool", RequestFilter{Status: &pending}, 2},
		{"Accepted By Volunteer", RequestFilter{Status: &accepted, AcceptedByID: volunteer.ID}, 1},
		{"Creator And Status", RequestFilter{Status: &pending, CreatedByID: bob.ID}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("expected %d requests, got %d", tc.want, len(got))
			}
		})
	}
}

func TestGetByIDPreloadsIdentity(t *testing.T) {
	db := openRepoDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	senior := createTestUser(t, db, "margaret", models.RoleSenior)
	volunteer := createTestUser(t, db, "tom", models.RoleVolunteer)
	request := createTestRequest(t, db, senior)

	if _, err := repo.AcceptIfPending(ctx, request.ID, volunteer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	got, err := repo.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CreatedBy == nil || got.CreatedBy.Name != "margaret" {
		t.Errorf("expected creator preloaded, got %+v", got.CreatedBy)
	}
	if got.AcceptedBy == nil || got.AcceptedBy.Name != "tom" {
		t.Errorf("expected acceptor preloaded, got %+v", got.AcceptedBy)
	}

	_, err = repo.GetByID(ctx, 9999)
	requireAppErrorCode(t, err, "NOT_FOUND")
}
