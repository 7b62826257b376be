package market

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tgienger/tung/internal/api"
	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/models"
)

// AuthError is a failed login or signup with the text to show the user
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Session returns the stored user, or nil
func (s *Service) Session() *models.User {
	if s.store == nil {
		return nil
	}
	u, err := s.store.LoadSession()
	if err != nil {
		s.log.Warn("load session", zap.Error(err))
		return nil
	}
	return u
}

// Login authenticates with an email or phone number and stores the session
func (s *Service) Login(ctx context.Context, cr models.Credentials) (models.User, error) {
	cr.Email = strings.TrimSpace(cr.Email)
	cr.PhoneNumber = strings.TrimSpace(cr.PhoneNumber)
	if cr.Email == "" && cr.PhoneNumber == "" {
		return models.User{}, &AuthError{Message: "Email or phone number is required"}
	}
	if strings.TrimSpace(cr.Password) == "" {
		return models.User{}, &AuthError{Message: "Password is required"}
	}
	u, err := s.client.Login(ctx, cr)
	if err != nil {
		s.log.Info("login failed", zap.Error(err))
		return models.User{}, &AuthError{Message: api.Message(err, authFailed), Err: err}
	}
	s.remember(u)
	return u, nil
}

// Signup registers an account and stores the session
func (s *Service) Signup(ctx context.Context, in models.Signup) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	switch {
	case in.Name == "":
		return models.User{}, &AuthError{Message: "Name is required"}
	case in.Email == "" && in.PhoneNumber == "":
		return models.User{}, &AuthError{Message: "Email or phone number is required"}
	case strings.TrimSpace(in.Password) == "":
		return models.User{}, &AuthError{Message: "Password is required"}
	}
	u, err := s.client.Signup(ctx, in)
	if err != nil {
		s.log.Info("signup failed", zap.Error(err))
		return models.User{}, &AuthError{Message: api.Message(err, authFailed), Err: err}
	}
	s.remember(u)
	return u, nil
}

func (s *Service) remember(u models.User) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSession(u); err != nil {
		s.log.Warn("save session", zap.Error(err))
	}
}

// Logout forgets the stored session
func (s *Service) Logout() error {
	if s.store == nil {
		return nil
	}
	return s.store.ClearSession()
}

// SavePreferences records the categories a new user is interested in
func (s *Service) SavePreferences(ctx context.Context, uid int64, categoryIDs []int64) error {
	if uid == 0 {
		return ErrNotLoggedIn
	}
	if len(categoryIDs) == 0 {
		return &listings.ValidationError{Field: "categories", Message: "Please select at least one category"}
	}
	if err := s.client.SavePreferences(ctx, uid, categoryIDs); err != nil {
		s.log.Error("save preferences", zap.Int64("uid", uid), zap.Error(err))
		return err
	}
	return nil
}
