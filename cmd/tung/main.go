package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgienger/tung/internal/api"
	"github.com/tgienger/tung/internal/cache"
	"github.com/tgienger/tung/internal/config"
	"github.com/tgienger/tung/internal/db"
	"github.com/tgienger/tung/internal/geo"
	"github.com/tgienger/tung/internal/logger"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tung",
		Short:         "Browse and post TungTung marketplace listings from the terminal",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(configPath)
		},
	}
	root.SetVersionTemplate("tung {{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tung/config.yaml)")

	root.AddCommand(listCmd(&configPath), logoutCmd(&configPath))
	return root
}

// deps is everything a command needs, built from configuration
type deps struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *db.DB
	svc      *market.Service
	geocoder *geo.Geocoder
	locator  geo.Locator
	closers  []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// build wires the application. console adds a stderr log sink.
func build(configPath string, console bool) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg}

	opts := logger.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Enable:     true,
			Filename:   cfg.LogFile(),
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	}
	if console {
		opts.Console = os.Stderr
	}
	log, cleanup, err := logger.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	d.log = log
	d.closers = append(d.closers, cleanup)

	store, err := db.New(cfg.DataDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}
	d.store = store
	d.closers = append(d.closers, func() { _ = store.Close() })

	lookups, err := d.cacheStore()
	if err != nil {
		d.Close()
		return nil, err
	}

	client := api.New(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RatePerSecond: cfg.API.RatePerSecond,
		Burst:         cfg.API.Burst,
		Logger:        log,
	})
	d.svc = market.New(market.Options{
		Client:      client,
		Store:       store,
		Cache:       cache.New(lookups, log),
		CategoryTTL: cfg.Cache.CategoryTTL,
		NameTTL:     cfg.Cache.NameTTL,
		Logger:      log,
	})

	d.geocoder = geo.NewGeocoder(cfg.Geo.GeocoderURL, cfg.Geo.UserAgent, cfg.API.Timeout)
	switch cfg.Geo.Provider {
	case "ip":
		d.locator = geo.NewIPLocator(cfg.Geo.IPURL, cfg.Geo.Timeout)
	case "static":
		d.locator = geo.Static{Latitude: cfg.Geo.Latitude, Longitude: cfg.Geo.Longitude}
	}

	log.Info("tung starting",
		zap.String("version", version),
		zap.String("api", client.BaseURL()),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("geo", cfg.Geo.Provider),
	)
	return d, nil
}

// cacheStore selects the lookup cache backend
func (d *deps) cacheStore() (cache.Store, error) {
	c := d.cfg.Cache
	switch c.Backend {
	case "memory":
		return cache.NewMemory(), nil
	case "redis":
		r := cache.NewRedis(c.Redis.Addr, c.Redis.Password, c.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.API.Timeout)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("connect redis %s: %w", c.Redis.Addr, err)
		}
		d.closers = append(d.closers, func() { _ = r.Close() })
		return r, nil
	case "none":
		return cache.Nop{}, nil
	}
	if n, err := d.store.CachePurge(context.Background(), timeNow()); err == nil && n > 0 {
		d.log.Debug("purged expired lookups", zap.Int64("rows", n))
	}
	return cache.NewSQLite(d.store), nil
}

func runTUI(configPath string) error {
	d, err := build(configPath, false)
	if err != nil {
		return err
	}
	defer d.Close()

	// Create and run the application
	app := ui.NewApp(ui.Options{
		Service:        d.svc,
		Geocoder:       d.geocoder,
		Locator:        d.locator,
		Fallback:       d.cfg.Geo.Fallback(),
		LocateTimeout:  d.cfg.Geo.Timeout,
		SearchDebounce: d.cfg.Search.Debounce,
		Logger:         d.log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetSender(p.Send)

	if _, err := p.Run(); err != nil {
		d.log.Error("program exited", zap.Error(err))
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func logoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := build(*configPath, false)
			if err != nil {
				return err
			}
			defer d.Close()

			u := d.svc.Session()
			if err := d.svc.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged out %s\n", u.Name)
			return nil
		},
	}
}
