package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/tung/internal/models"
)

// Signup registers an account and returns the created user
func (c *Client) Signup(ctx context.Context, s models.Signup) (models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/signup", nil, s, &out); err != nil {
		return models.User{}, err
	}
	return out, nil
}

// Login authenticates with email or phone number
func (c *Client) Login(ctx context.Context, cr models.Credentials) (models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/login", nil, cr, &out); err != nil {
		return models.User{}, err
	}
	return out, nil
}

// UserName resolves a uid to a display name
func (c *Client) UserName(ctx context.Context, uid int64) (string, error) {
	var name string
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/name", uid), nil, nil, &name); err != nil {
		return "", err
	}
	return name, nil
}

// Profile fetches a user with their reviews and listings
func (c *Client) Profile(ctx context.Context, uid int64) (models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/profile/%d", uid), nil, nil, &out); err != nil {
		return models.Profile{}, err
	}
	return out, nil
}

// SavePreferences records the categories a user is interested in
func (c *Client) SavePreferences(ctx context.Context, uid int64, categoryIDs []int64) error {
	if categoryIDs == nil {
		categoryIDs = []int64{}
	}
	var ok bool
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/preferences/%d", uid), nil, categoryIDs, &ok); err != nil {
		return err
	}
	if !ok {
		return &ServerError{Status: 200, Message: "Could not save preferences"}
	}
	return nil
}
