package seed

import (
	"fmt"
	"log"

	"senioraid/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed populates the database with a demo population: one admin, a pool of
// seniors and volunteers, and requests spread across the lifecycle states.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d seniors, %d volunteers, %d requests...",
		opts.NumSeniors, opts.NumVolunteers, opts.NumRequests)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	if err := ensureAdmin(db); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	seniors := make([]*models.User, 0, opts.NumSeniors)
	for i := 0; i < opts.NumSeniors; i++ {
		u, err := f.CreateUser(models.RoleSenior)
		if err != nil {
			return fmt.Errorf("failed to create seniors: %w", err)
		}
		seniors = append(seniors, u)
	}
	log.Printf("created %d seniors", len(seniors))

	volunteers := make([]*models.User, 0, opts.NumVolunteers)
	for i := 0; i < opts.NumVolunteers; i++ {
		u, err := f.CreateUser(models.RoleVolunteer)
		if err != nil {
			return fmt.Errorf("failed to create volunteers: %w", err)
		}
		volunteers = append(volunteers, u)
	}
	log.Printf("created %d volunteers", len(volunteers))

	if len(seniors) == 0 || opts.NumRequests == 0 {
		return nil
	}

	// Roughly half the requests stay Pending, a third get accepted and the
	// rest complete, so every lifecycle state is represented.
	for i := 0; i < opts.NumRequests; i++ {
		senior := seniors[f.rng.Intn(len(seniors))]
		request, err := f.CreateRequest(senior)
		if err != nil {
			return fmt.Errorf("failed to create requests: %w", err)
		}

		if len(volunteers) == 0 {
			continue
		}
		volunteer := volunteers[f.rng.Intn(len(volunteers))]

		switch f.rng.Intn(6) {
		case 0, 1:
			if err := f.AcceptAs(request, volunteer); err != nil {
				return err
			}
		case 2:
			if err := f.CompleteAs(request, volunteer); err != nil {
				return err
			}
		}
	}
	log.Printf("created %d requests", opts.NumRequests)

	return nil
}

// ClearAll removes all seeded data. Order matters because of foreign keys.
func ClearAll(db *gorm.DB) error {
	for _, model := range []any{
		&models.Assignment{},
		&models.Request{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin creates the development admin account if it does not exist.
func ensureAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("email = ?", "admin@senioraid.dev").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Name:     "SeniorAid Admin",
		Email:    "admin@senioraid.dev",
		Password: string(hash),
		Role:     models.RoleAdmin,
	}).Error
}
