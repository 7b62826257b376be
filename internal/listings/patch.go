package listings

import "github.com/tgienger/tung/internal/models"

// ApplyPatch returns a copy of ls with the listing identified by id replaced
// by updated. Order and every other entry are preserved. When id is not in
// ls the input is returned as is: patches only target fetched listings.
func ApplyPatch(ls []models.Listing, id int64, updated models.Listing) []models.Listing {
	idx := -1
	for i := range ls {
		if ls[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ls
	}

	out := make([]models.Listing, len(ls))
	copy(out, ls)
	out[idx] = updated
	return out
}
