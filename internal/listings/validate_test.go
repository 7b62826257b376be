package listings

import (
	"errors"
	"testing"
	"time"

	"github.com/tgienger/tung/internal/models"
)

func validDraft(now time.Time) models.Draft {
	return models.Draft{
		Name:        "Assemble desk",
		Price:       40,
		Capacity:    1,
		Duration:    60,
		Deadline:    models.Timestamp{Time: now.Add(3 * time.Hour)},
		Address:     "200 University Ave W, Waterloo",
		Latitude:    43.47,
		Longitude:   -80.54,
		Located:     true,
		PosterUID:   9,
		CategoryIDs: []int64{3},
	}
}

func TestValidateDraft(t *testing.T) {
	now := time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*models.Draft)
		field  string
	}{
		{"valid", func(*models.Draft) {}, ""},
		{"blank name", func(d *models.Draft) { d.Name = "  " }, "name"},
		{"negative price", func(d *models.Draft) { d.Price = -1 }, "price"},
		{"zero capacity", func(d *models.Draft) { d.Capacity = 0 }, "capacity"},
		{"zero duration", func(d *models.Draft) { d.Duration = 0 }, "duration"},
		{"no address", func(d *models.Draft) { d.Address = "" }, "address"},
		{"not geocoded", func(d *models.Draft) { d.Located = false }, "address"},
		{"no categories", func(d *models.Draft) { d.CategoryIDs = nil }, "categories"},
		{"no deadline", func(d *models.Draft) { d.Deadline = models.Timestamp{} }, "deadline"},
		{"anonymous", func(d *models.Draft) { d.PosterUID = 0 }, "poster"},
		{"deadline too soon", func(d *models.Draft) { d.Deadline = models.Timestamp{Time: now.Add(time.Hour)} }, "deadline"},
		{"free listing", func(d *models.Draft) { d.Price = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft(now)
			tt.mutate(&d)
			err := ValidateDraft(d, now)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q (%s)", verr.Field, tt.field, verr.Message)
			}
		})
	}
}
