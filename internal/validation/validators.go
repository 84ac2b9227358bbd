package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("reminder_type", validateReminderType); err != nil {
		panic(fmt.Sprintf("failed to register reminder_type validator: %v", err))
	}
}

// validateTaskStatus validates that a string is a valid TaskStatus enum value
func validateTaskStatus(fl validator.FieldLevel) bool {
	return ValidateTaskStatus(fl.Field().String()) == nil
}

// validateReminderType validates that a string is a valid ReminderType enum value
func validateReminderType(fl validator.FieldLevel) bool {
	return ValidateReminderType(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	switch models.TaskStatus(value) {
	case models.TaskStatusPending, models.TaskStatusDone:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending' or 'done')", value)
	}
}

// ValidateReminderType validates a ReminderType string value
func ValidateReminderType(value string) error {
	switch models.ReminderType(value) {
	case models.ReminderType1Hour, models.ReminderType1Day, models.ReminderTypeCustom, models.ReminderTypeDeadline:
		return nil
	default:
		return fmt.Errorf("invalid reminder type: %s (must be '1hour', '1day', 'custom', or 'deadline')", value)
	}
}
