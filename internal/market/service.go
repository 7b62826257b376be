// Package market orchestrates the marketplace workflows on top of the API
// client, the local store and the lookup cache. UI code talks to Service
// only; it never calls the API client directly.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tung/internal/api"
	"github.com/tgienger/tung/internal/cache"
	"github.com/tgienger/tung/internal/db"
	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/models"
)

const (
	filtersKey     = "listing_filters"
	categoriesKey  = "categories"
	defaultNameTTL = 10 * time.Minute
	defaultCatTTL  = time.Hour
	authFailed     = "Authentication failed."
	genericFailure = "Something went wrong. Please try again."
)

// ErrNotLoggedIn is returned by operations that need a session
var ErrNotLoggedIn = errors.New("not logged in")

// Options wires a Service
type Options struct {
	Client      *api.Client
	Store       *db.DB // optional; without it nothing is persisted
	Cache       *cache.Cache
	CategoryTTL time.Duration
	NameTTL     time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// Service implements the marketplace use cases
type Service struct {
	client      *api.Client
	store       *db.DB
	cache       *cache.Cache
	categoryTTL time.Duration
	nameTTL     time.Duration
	log         *zap.Logger
	now         func() time.Time
}

// New returns a service
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(nil, opts.Logger)
	}
	if opts.CategoryTTL <= 0 {
		opts.CategoryTTL = defaultCatTTL
	}
	if opts.NameTTL <= 0 {
		opts.NameTTL = defaultNameTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		client:      opts.Client,
		store:       opts.Store,
		cache:       opts.Cache,
		categoryTTL: opts.CategoryTTL,
		nameTTL:     opts.NameTTL,
		log:         opts.Logger.Named("market"),
		now:         opts.Now,
	}
}

// Categories returns the category vocabulary, cached
func (s *Service) Categories(ctx context.Context) ([]models.TaskCategory, error) {
	cats, err := cache.GetOrLoadJSON(s.cache, ctx, categoriesKey, s.categoryTTL, s.client.Categories)
	if err != nil {
		s.log.Error("load categories", zap.Error(err))
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return cats, nil
}

// Listings fetches the filtered and sorted listing set for q
func (s *Service) Listings(ctx context.Context, q models.ListingQuery) ([]models.Listing, error) {
	ls, err := s.client.FilterAndSort(ctx, q)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Error("fetch listings", zap.Error(err), zap.String("sort", q.Sort), zap.String("status", q.Status))
		}
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	return ls, nil
}

// AllListings fetches every listing unfiltered, in server order
func (s *Service) AllListings(ctx context.Context) ([]models.Listing, error) {
	ls, err := s.client.Listings(ctx)
	if err != nil {
		s.log.Error("fetch all listings", zap.Error(err))
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	return ls, nil
}

// FilterListings fetches the listings in every named category, unordered
func (s *Service) FilterListings(ctx context.Context, categories []string) ([]models.Listing, error) {
	ls, err := s.client.FilterListings(ctx, categories)
	if err != nil {
		s.log.Error("filter listings", zap.Error(err), zap.Strings("categories", categories))
		return nil, fmt.Errorf("filter listings: %w", err)
	}
	return ls, nil
}

// Browse fetches q through the plainest endpoint that can answer it. With no
// search and no ordering the category filter or the full set is enough;
// anything else goes to filter-and-sort. Status is left to the caller.
func (s *Service) Browse(ctx context.Context, q models.ListingQuery) ([]models.Listing, error) {
	if q.Search != "" || (q.Sort != "" && q.Sort != string(listings.SortNone)) {
		return s.Listings(ctx, q)
	}
	if len(q.Categories) > 0 {
		return s.FilterListings(ctx, q.Categories)
	}
	return s.AllListings(ctx)
}

// UserName resolves uid to a display name, cached. Lookups never fail:
// an unknown user is shown as "User <uid>".
func (s *Service) UserName(ctx context.Context, uid int64) string {
	key := fmt.Sprintf("user_name:%d", uid)
	name, err := cache.GetOrLoadJSON(s.cache, ctx, key, s.nameTTL, func(ctx context.Context) (string, error) {
		return s.client.UserName(ctx, uid)
	})
	if err != nil || strings.TrimSpace(name) == "" {
		if err != nil {
			s.log.Debug("user name lookup failed", zap.Int64("uid", uid), zap.Error(err))
		}
		return fmt.Sprintf("User %d", uid)
	}
	return name
}

// SaveFilters persists the listing filters for the next session
func (s *Service) SaveFilters(f listings.Filters) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SetJSON(filtersKey, f); err != nil {
		s.log.Warn("save filters", zap.Error(err))
		return err
	}
	return nil
}

// LoadFilters returns the persisted filters, or the defaults
func (s *Service) LoadFilters() listings.Filters {
	f := listings.DefaultFilters()
	if s.store == nil {
		return f
	}
	ok, err := s.store.GetJSON(filtersKey, &f)
	if err != nil {
		s.log.Warn("load filters", zap.Error(err))
		return listings.DefaultFilters()
	}
	if !ok {
		return listings.DefaultFilters()
	}
	return f
}

// Message turns err into text for the status bar
func Message(err error) string {
	var verr *listings.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var aerr *AuthError
	if errors.As(err, &aerr) {
		return aerr.Message
	}
	if errors.Is(err, ErrNotLoggedIn) {
		return "Please log in first"
	}
	return api.Message(err, genericFailure)
}
