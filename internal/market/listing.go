package market

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/models"
)

// Mutation is the outcome of a state-changing listing action: the
// server's confirmation text and the listing as the server now has it
type Mutation struct {
	Message string
	Listing models.Listing
}

func (s *Service) mutate(ctx context.Context, op string, id int64, call func(context.Context) (string, error)) (Mutation, error) {
	msg, err := call(ctx)
	if err != nil {
		s.log.Error(op, zap.Int64("listing", id), zap.Error(err))
		return Mutation{}, fmt.Errorf("%s: %w", op, err)
	}
	l, err := s.client.Listing(ctx, id)
	if err != nil {
		s.log.Error(op+": refetch", zap.Int64("listing", id), zap.Error(err))
		return Mutation{}, fmt.Errorf("%s: refetch listing: %w", op, err)
	}
	s.log.Info(op, zap.Int64("listing", id), zap.String("status", string(l.Status)))
	return Mutation{Message: msg, Listing: l}, nil
}

// Assign takes the listing for uid
func (s *Service) Assign(ctx context.Context, id, uid int64) (Mutation, error) {
	if uid == 0 {
		return Mutation{}, ErrNotLoggedIn
	}
	return s.mutate(ctx, "assign", id, func(ctx context.Context) (string, error) {
		return s.client.Assign(ctx, id, uid)
	})
}

// Unassign leaves the listing
func (s *Service) Unassign(ctx context.Context, id, uid int64) (Mutation, error) {
	if uid == 0 {
		return Mutation{}, ErrNotLoggedIn
	}
	return s.mutate(ctx, "unassign", id, func(ctx context.Context) (string, error) {
		return s.client.Unassign(ctx, id, uid)
	})
}

// Complete marks the listing done on behalf of its poster
func (s *Service) Complete(ctx context.Context, id, posterUID int64) (Mutation, error) {
	if posterUID == 0 {
		return Mutation{}, ErrNotLoggedIn
	}
	return s.mutate(ctx, "complete", id, func(ctx context.Context) (string, error) {
		return s.client.Complete(ctx, id, posterUID)
	})
}

// ReviewEntry is a review with both parties' names resolved
type ReviewEntry struct {
	models.Review
	Reviewer string
	Reviewee string
}

// Detail is everything the listing screen shows
type Detail struct {
	Listing  models.Listing
	Reviews  []ReviewEntry
	Assigned []models.AssignedUser
}

// Detail loads a listing with its reviews and assignee roster
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	var (
		d       Detail
		reviews []models.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := s.client.Listing(gctx, id)
		d.Listing = l
		return err
	})
	g.Go(func() error {
		r, err := s.client.Reviews(gctx, id)
		reviews = r
		return err
	})
	g.Go(func() error {
		a, err := s.client.AssignedUsers(gctx, id)
		d.Assigned = a
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("load listing detail", zap.Int64("listing", id), zap.Error(err))
		return Detail{}, fmt.Errorf("load listing %d: %w", id, err)
	}

	d.Reviews = make([]ReviewEntry, len(reviews))
	ng, nctx := errgroup.WithContext(ctx)
	ng.SetLimit(4)
	for i, r := range reviews {
		d.Reviews[i].Review = r
		ng.Go(func() error {
			d.Reviews[i].Reviewer = s.UserName(nctx, r.ReviewerUID)
			d.Reviews[i].Reviewee = s.UserName(nctx, r.RevieweeUID)
			return nil
		})
	}
	_ = ng.Wait()
	return d, nil
}

// CreateListing validates and posts a draft, then fetches the stored
// listing
func (s *Service) CreateListing(ctx context.Context, d models.Draft) (models.Listing, error) {
	if err := listings.ValidateDraft(d, s.now()); err != nil {
		return models.Listing{}, err
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	created, err := s.client.CreateListing(ctx, d)
	if err != nil {
		s.log.Error("create listing", zap.Error(err))
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	s.log.Info("listing created", zap.Int64("listing", created.ListingID))
	l, err := s.client.Listing(ctx, created.ListingID)
	if err != nil {
		// the listing exists; show what was submitted
		s.log.Warn("fetch created listing", zap.Int64("listing", created.ListingID), zap.Error(err))
		return models.Listing{
			ID:          created.ListingID,
			Name:        d.Name,
			Description: d.Description,
			Price:       d.Price,
			Duration:    d.Duration,
			Capacity:    d.Capacity,
			Address:     d.Address,
			Latitude:    d.Latitude,
			Longitude:   d.Longitude,
			Deadline:    d.Deadline,
			Status:      models.StatusOpen,
		}, nil
	}
	return l, nil
}

// SubmitReview rates a worker after completion
func (s *Service) SubmitReview(ctx context.Context, r models.NewReview) error {
	switch {
	case r.ReviewerUID == 0:
		return ErrNotLoggedIn
	case r.Rating < 1 || r.Rating > 5:
		return &listings.ValidationError{Field: "rating", Message: "Rating must be between 1 and 5"}
	}
	r.Comment = strings.TrimSpace(r.Comment)
	if err := s.client.SubmitReview(ctx, r); err != nil {
		s.log.Error("submit review", zap.Int64("listing", r.ListingID), zap.Error(err))
		return fmt.Errorf("submit review: %w", err)
	}
	return nil
}

// Profile loads a user's profile
func (s *Service) Profile(ctx context.Context, uid int64) (models.Profile, error) {
	if uid == 0 {
		return models.Profile{}, ErrNotLoggedIn
	}
	p, err := s.client.Profile(ctx, uid)
	if err != nil {
		s.log.Error("load profile", zap.Int64("uid", uid), zap.Error(err))
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}
