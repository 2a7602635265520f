package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus represents the progress state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000

	// DueDateGrace tolerates client clocks slightly behind ours.
	DueDateGrace = time.Minute
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is the owned entity every data operation is scoped to.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	DueDate     time.Time
	CreatedAt   time.Time
	OwnerID     string
}

// ValidateTitle enforces the 1..MaxTitleLength rule on a non-blank title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
	}
	return nil
}

// ValidateDescription enforces the MaxDescriptionLength rule.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, MaxDescriptionLength)
	}
	return nil
}

// ValidateDueDate requires due to be present or in the future relative to now.
func ValidateDueDate(due, now time.Time) error {
	if due.IsZero() {
		return fmt.Errorf("%w: dueDate is required", ErrValidation)
	}
	if due.Before(now.Add(-DueDateGrace)) {
		return fmt.Errorf("%w: dueDate must be in the present or future", ErrValidation)
	}
	return nil
}

// ValidateStatus rejects unknown status values.
func ValidateStatus(s TaskStatus) error {
	if !s.Valid() {
		return fmt.Errorf("%w: status must be one of: PENDING IN_PROGRESS COMPLETED", ErrValidation)
	}
	return nil
}
