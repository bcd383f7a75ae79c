// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"senioraid/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumSeniors    int
	NumVolunteers int
	NumRequests   int
	ShouldClean   bool
	// SkipBcrypt stores a plaintext marker password instead of a bcrypt hash.
	// Only useful to speed up large dev seeds; never enable outside dev.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user with the given role.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:    gofakeit.Name(),
		Email:   gofakeit.Email(),
		Role:    role,
		Address: gofakeit.Street() + ", " + gofakeit.City(),
		Phone:   gofakeit.Phone(),
		Gender:  gofakeit.Gender(),
	}

	switch role {
	case models.RoleSenior:
		user.Age = gofakeit.Number(65, 95)
	default:
		user.Age = gofakeit.Number(18, 64)
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

var requestTitles = map[models.RequestType][]string{
	models.TypeMedicine: {
		"Pick up prescription refill", "Pharmacy run for blood pressure pills",
		"Collect new inhaler from the chemist",
	},
	models.TypeGrocery: {
		"Weekly grocery shopping", "Pick up milk, bread and eggs",
		"Farmers market run",
	},
	models.TypeTransport: {
		"Ride to the cardiologist", "Lift to the community center",
		"Drive to physical therapy appointment",
	},
	models.TypeCompanion: {
		"Afternoon tea and a chat", "Help with a jigsaw puzzle",
		"Walk in the park together",
	},
	models.TypeSOS: {
		"Fallen and need help up", "Power outage, oxygen machine down",
	},
}

var requestTypes = []models.RequestType{
	models.TypeMedicine, models.TypeGrocery, models.TypeTransport,
	models.TypeCompanion, models.TypeSOS,
}

var urgencies = []models.Urgency{
	models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical,
}

// CreateRequest constructs and persists a sample request for the given senior.
func (f *Factory) CreateRequest(senior *models.User, overrides ...func(*models.Request)) (*models.Request, error) {
	rt := requestTypes[f.rng.Intn(len(requestTypes))]
	titles := requestTitles[rt]

	request := &models.Request{
		Title:       titles[f.rng.Intn(len(titles))],
		Description: gofakeit.Sentence(12),
		Type:        rt,
		Urgency:     urgencies[f.rng.Intn(len(urgencies))],
		Status:      models.StatusPending,
		CreatedByID: senior.ID,
	}
	if rt == models.TypeTransport {
		request.Destination = gofakeit.Street() + ", " + gofakeit.City()
	}
	if rt == models.TypeSOS {
		request.Urgency = models.UrgencyCritical
	}

	// realistic created_at spread over the last month
	daysBack := f.rng.Intn(30)
	hoursBack := f.rng.Intn(24)
	request.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(request)
	}

	if err := f.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return request, nil
}

// AcceptAs moves a seeded request into the Accepted state for the volunteer,
// maintaining the assignment index the way the live transition path does.
func (f *Factory) AcceptAs(request *models.Request, volunteer *models.User) error {
	if err := f.db.Model(request).Updates(map[string]any{
		"status":         models.StatusAccepted,
		"accepted_by_id": volunteer.ID,
	}).Error; err != nil {
		return fmt.Errorf("accept request: %w", err)
	}
	assignment := &models.Assignment{VolunteerID: volunteer.ID, RequestID: request.ID}
	if err := f.db.Create(assignment).Error; err != nil {
		return fmt.Errorf("index assignment: %w", err)
	}
	return nil
}

// CompleteAs moves a seeded accepted request into the Completed state.
func (f *Factory) CompleteAs(request *models.Request, volunteer *models.User) error {
	if err := f.AcceptAs(request, volunteer); err != nil {
		return err
	}
	if err := f.db.Model(request).Update("status", models.StatusCompleted).Error; err != nil {
		return fmt.Errorf("complete request: %w", err)
	}
	if err := f.db.Where("volunteer_id = ? AND request_id = ?", volunteer.ID, request.ID).
		Delete(&models.Assignment{}).Error; err != nil {
		return fmt.Errorf("unindex assignment: %w", err)
	}
	return nil
}
