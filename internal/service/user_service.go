package service

import (
	"context"

	"senioraid/internal/models"
	"senioraid/internal/repository"
	"senioraid/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID  uint
	Name    string
	Address string
	Phone   string
	Age     *int
	Gender  string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile edits the actor's own profile fields. Role and email are
// immutable through this path.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = in.Name
	}
	if in.Address != "" {
		const maxAddressLen = 200
		if len(in.Address) > maxAddressLen {
			return nil, models.NewValidationError("Address too long (max 200 characters)")
		}
		user.Address = in.Address
	}
	if in.Phone != "" {
		if err := validation.ValidatePhone(in.Phone); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Phone = in.Phone
	}
	if in.Age != nil {
		if *in.Age < 1 || *in.Age > 130 {
			return nil, models.NewValidationError("Age out of range")
		}
		user.Age = *in.Age
	}
	if in.Gender != "" {
		user.Gender = in.Gender
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
