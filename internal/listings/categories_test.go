package listings

import (
	"testing"

	"github.com/tgienger/tung/internal/models"
)

func TestCategories(t *testing.T) {
	reg := NewCategories([]models.TaskCategory{
		{ID: 1, Name: "Cleaning"},
		{ID: 2, Name: "Tutoring"},
		{ID: 1, Name: "Duplicate"},
	})
	if reg.Len() != 2 {
		t.Fatalf("expected duplicates dropped, got %d", reg.Len())
	}
	if name, ok := reg.Name(1); !ok || name != "Cleaning" {
		t.Fatalf("name(1) = %q, %v", name, ok)
	}
	if id, ok := reg.ID("tutoring"); !ok || id != 2 {
		t.Fatalf("id(tutoring) = %d, %v", id, ok)
	}
	if _, ok := reg.ID("Moving"); ok {
		t.Fatalf("unexpected match for unknown name")
	}
	names := reg.Names([]int64{2, 7, 1})
	if len(names) != 2 || names[0] != "Tutoring" || names[1] != "Cleaning" {
		t.Fatalf("names = %v", names)
	}
}
