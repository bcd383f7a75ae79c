package repository

import (
	"context"
	"testing"

	"senioraid/internal/cache"
	"senioraid/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := openRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{Name: "margaret", Email: "margaret@senioraid.test", Password: "x", Role: models.RoleSenior}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	dup := &models.User{Name: "other", Email: "margaret@senioraid.test", Password: "x", Role: models.RoleVolunteer}
	err := repo.Create(ctx, dup)
	appErr := requireAppErrorCode(t, err, "VALIDATION_ERROR")
	if appErr.Message != "User already exists" {
		t.Errorf("unexpected message: %s", appErr.Message)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := openRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createTestUser(t, db, "tom", models.RoleVolunteer)

	found, err := repo.GetByEmail(ctx, created.Email)
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected user %d, got %+v", created.ID, found)
	}

	// Missing email is not an error: callers use the nil result to
	// distinguish "no such account" during signup and login.
	missing, err := repo.GetByEmail(ctx, "nobody@senioraid.test")
	if err != nil {
		t.Fatalf("unexpected error for missing email: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing email, got %+v", missing)
	}
}

func TestUpdateKeepsPasswordAfterCachedRead(t *testing.T) {
	db := openRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	prev := cache.GetClient()
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(prev) })

	created := createTestUser(t, db, "margaret", models.RoleSenior)

	// First read primes the cache; the cached JSON copy has no password
	// hash, and the second read is served from it.
	if _, err := repo.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("first get failed: %v", err)
	}
	cached, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if cached.Password != "" {
		t.Fatalf("expected cached copy without password hash, got %q", cached.Password)
	}

	cached.Address = "12 Elm Street"
	if err := repo.Update(ctx, cached); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var row models.User
	if err := db.First(&row, created.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if row.Address != "12 Elm Street" {
		t.Errorf("expected updated address, got %q", row.Address)
	}
	if row.Password != "password123" {
		t.Fatalf("password hash lost by profile update, got %q", row.Password)
	}
	if row.Email != created.Email || row.Role != created.Role {
		t.Errorf("email/role must be untouched by profile update, got %q/%q", row.Email, row.Role)
	}
}

func TestUserUpdateAndList(t *testing.T) {
	db := openRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "tom", models.RoleVolunteer)
	createTestUser(t, db, "ana", models.RoleVolunteer)
	createTestUser(t, db, "margaret", models.RoleSenior)

	user.Address = "12 Elm Street"
	user.Phone = "+1 555 0100"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Address != "12 Elm Street" {
		t.Errorf("expected updated address, got %q", got.Address)
	}

	users, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected page of 2 users, got %d", len(users))
	}

	rest, err := repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1 user on second page, got %d", len(rest))
	}

	_, err = repo.GetByID(ctx, 9999)
	requireAppErrorCode(t, err, "NOT_FOUND")
}
