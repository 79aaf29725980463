package enrollment

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Group statuses
const (
	GroupStatusActive   = "active"
	GroupStatusArchived = "archived"
)

// Enrollment statuses
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrInvalidCapacity = errors.New("the per-group capacity must be greater than zero")
)

// Group is a capacity-bounded subset of a cohort's learners (a "class").
// CurrentCount is derived from assigned enrollments and only ever mutated
// transactionally alongside them.
type Group struct {
	ID           string    `json:"id"`
	CohortID     string    `json:"cohort_id"`
	Name         string    `json:"name"`
	Capacity     int       `json:"capacity"`
	CurrentCount int       `json:"current_count"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (g Group) Available() int {
	return g.Capacity - g.CurrentCount
}

// Enrollment is a learner's membership record in a cohort; GroupID is empty
// while the learner is unassigned.
type Enrollment struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"learner_id"`
	CohortID  string    `json:"cohort_id"`
	GroupID   string    `json:"group_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// DistributeCohort contains the allocation parameters of one Distribute run.
type DistributeCohort struct {
	MaxPerGroup int `json:"max_per_group" validate:"required,gt=0"`
}

func (dc *DistributeCohort) Validate(validate *validator.Validate) error {
	return validate.Struct(dc)
}

// DistributionResult reports the outcome of one Distribute run.
type DistributionResult struct {
	AssignedCount int `json:"assigned_count"`
	GroupsCreated int `json:"groups_created"`
}
