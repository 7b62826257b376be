package listings

import (
	"strings"

	"github.com/tgienger/tung/internal/models"
)

// Categories is the category registry keyed by server id. Display names are
// resolved through it instead of comparing free text.
type Categories struct {
	ordered []models.TaskCategory
	byID    map[int64]models.TaskCategory
}

// NewCategories builds a registry, keeping the first entry for duplicate ids
func NewCategories(cats []models.TaskCategory) Categories {
	c := Categories{byID: make(map[int64]models.TaskCategory, len(cats))}
	for _, cat := range cats {
		if _, dup := c.byID[cat.ID]; dup {
			continue
		}
		c.byID[cat.ID] = cat
		c.ordered = append(c.ordered, cat)
	}
	return c
}

// All returns the categories in server order
func (c Categories) All() []models.TaskCategory {
	return c.ordered
}

// Len returns the number of registered categories
func (c Categories) Len() int {
	return len(c.ordered)
}

// Name resolves a category id to its display name
func (c Categories) Name(id int64) (string, bool) {
	cat, ok := c.byID[id]
	return cat.Name, ok
}

// ID resolves a display name (case-insensitive) to its id
func (c Categories) ID(name string) (int64, bool) {
	for _, cat := range c.ordered {
		if strings.EqualFold(cat.Name, name) {
			return cat.ID, true
		}
	}
	return 0, false
}

// Names resolves ids to names, skipping unknown ids
func (c Categories) Names(ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := c.Name(id); ok {
			names = append(names, name)
		}
	}
	return names
}
