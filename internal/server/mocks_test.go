package server

import (
	"context"

	"senioraid/internal/featureflags"
	"senioraid/internal/models"
	"senioraid/internal/repository"
	"senioraid/internal/service"

	"senioraid/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

// MockRequestRepository is a mock of the RequestRepository interface
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, request *models.Request) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]models.Request, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockRequestRepository) AcceptIfPending(ctx context.Context, id, actorID uint) (*models.Request, error) {
	args := m.Called(ctx, id, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestRepository) CompleteIfAcceptedBy(ctx context.Context, id, actorID uint) (*models.Request, error) {
	args := m.Called(ctx, id, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestRepository) ReopenIfAcceptedBy(ctx context.Context, id, actorID uint) (*models.Request, error) {
	args := m.Called(ctx, id, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestRepository) AddAssignment(ctx context.Context, volunteerID, requestID uint) error {
	args := m.Called(ctx, volunteerID, requestID)
	return args.Error(0)
}

func (m *MockRequestRepository) RemoveAssignment(ctx context.Context, volunteerID, requestID uint) error {
	args := m.Called(ctx, volunteerID, requestID)
	return args.Error(0)
}

func (m *MockRequestRepository) GetAssignments(ctx context.Context, volunteerID uint) ([]models.Assignment, error) {
	args := m.Called(ctx, volunteerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Assignment), args.Error(1)
}

func (m *MockRequestRepository) ReconcileAssignments(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// newTestServer wires a Server around mock repositories with no DB or Redis.
func newTestServer(userRepo *MockUserRepository, requestRepo *MockRequestRepository) *Server {
	flags := featureflags.NewManager("")
	return &Server{
		config:         &config.Config{JWTSecret: "test_secret", Env: "test"},
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		featureFlags:   flags,
		requestService: service.NewRequestService(requestRepo, userRepo, flags),
		userService:    service.NewUserService(userRepo),
	}
}

// asUser injects auth locals the way AuthRequired does, skipping token checks.
func asUser(userID uint, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("userRole", string(role))
		return c.Next()
	}
}
