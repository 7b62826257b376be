package listings

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/tung/internal/models"
)

// ValidationError describes the first invalid field of a draft
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ValidateDraft checks a listing draft the same way the backend does, so the
// user gets feedback before a round trip
func ValidateDraft(d models.Draft, now time.Time) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return invalid("name", "Listing name is required")
	case d.Price < 0:
		return invalid("price", "Valid price is required")
	case d.Capacity < 1:
		return invalid("capacity", "Capacity must be greater than 0")
	case d.Duration <= 0:
		return invalid("duration", "Duration must be greater than 0")
	case strings.TrimSpace(d.Address) == "":
		return invalid("address", "Address is required")
	case !d.Located:
		return invalid("address", "Please select a valid address from the suggestions")
	case len(d.CategoryIDs) == 0:
		return invalid("categories", "Please select at least one category")
	case d.Deadline.IsZero():
		return invalid("deadline", "Please select a deadline")
	case d.PosterUID == 0:
		return invalid("poster", "User must be logged in to create listing")
	}

	minDeadline := now.Add(time.Duration(d.Duration) * time.Minute)
	if !d.Deadline.After(minDeadline) {
		return invalid("deadline", fmt.Sprintf("Deadline must be at least %d minutes from now", d.Duration))
	}
	return nil
}
