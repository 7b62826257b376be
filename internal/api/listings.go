package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tgienger/tung/internal/models"
)

// Listings fetches every listing in server order
func (c *Client) Listings(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.do(ctx, http.MethodGet, "/listings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterListings fetches listings belonging to every named category
func (c *Client) FilterListings(ctx context.Context, categories []string) ([]models.Listing, error) {
	q := url.Values{}
	for _, cat := range categories {
		q.Add("categories", cat)
	}
	var out []models.Listing
	if err := c.do(ctx, http.MethodGet, "/listings/filter", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterAndSort fetches the combined filtered and ordered listing set
func (c *Client) FilterAndSort(ctx context.Context, lq models.ListingQuery) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.do(ctx, http.MethodGet, "/listings/filterAndSort", EncodeQuery(lq), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeQuery renders lq as filter-and-sort parameters: repeated
// categories, everything else singular
func EncodeQuery(lq models.ListingQuery) url.Values {
	q := url.Values{}
	for _, cat := range lq.Categories {
		q.Add("categories", cat)
	}
	status := lq.Status
	if status == "" {
		status = "all"
	}
	sort := lq.Sort
	if sort == "" {
		sort = "--"
	}
	q.Set("status", status)
	q.Set("sort", sort)
	q.Set("search", lq.Search)
	q.Set("uid", strconv.FormatInt(lq.UID, 10))
	q.Set("latitude", strconv.FormatFloat(lq.Location.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lq.Location.Longitude, 'f', -1, 64))
	return q
}

// Categories fetches the category vocabulary
func (c *Client) Categories(ctx context.Context) ([]models.TaskCategory, error) {
	var out []models.TaskCategory
	if err := c.do(ctx, http.MethodGet, "/taskcategories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Created is the server's acknowledgement of a new listing
type Created struct {
	ListingID int64            `json:"listid"`
	Message   string           `json:"message"`
	Deadline  models.Timestamp `json:"deadline"`
}

// CreateListing posts a draft
func (c *Client) CreateListing(ctx context.Context, d models.Draft) (Created, error) {
	var out Created
	if err := c.do(ctx, http.MethodPost, "/listings", nil, d, &out); err != nil {
		return Created{}, err
	}
	return out, nil
}

// Listing fetches one listing
func (c *Client) Listing(ctx context.Context, id int64) (models.Listing, error) {
	var out models.Listing
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d", id), nil, nil, &out); err != nil {
		return models.Listing{}, err
	}
	return out, nil
}

// Reviews fetches the reviews left on a listing
func (c *Client) Reviews(ctx context.Context, id int64) ([]models.Review, error) {
	var out []models.Review
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d/reviews", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assign adds uid to the listing's assignees and returns the server's
// confirmation text
func (c *Client) Assign(ctx context.Context, id, uid int64) (string, error) {
	var msg string
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/assign/%d", id, uid), nil, nil, &msg)
	return msg, err
}

// Unassign removes uid from the listing's assignees
func (c *Client) Unassign(ctx context.Context, id, uid int64) (string, error) {
	var msg string
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/unassign/%d", id, uid), nil, nil, &msg)
	return msg, err
}

// AssignedUsers fetches the listing's assignee roster
func (c *Client) AssignedUsers(ctx context.Context, id int64) ([]models.AssignedUser, error) {
	var out []models.AssignedUser
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d/assigned-users", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Complete marks a listing completed on behalf of its poster
func (c *Client) Complete(ctx context.Context, id, posterUID int64) (string, error) {
	body := map[string]int64{"poster_uid": posterUID}
	var msg string
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/complete", id), nil, body, &msg)
	return msg, err
}

// SubmitReview posts a review of a worker
func (c *Client) SubmitReview(ctx context.Context, r models.NewReview) error {
	return c.do(ctx, http.MethodPost, "/reviews", nil, r, nil)
}
