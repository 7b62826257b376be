package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/tung/internal/geo"
	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
)

var timeNow = time.Now

type listFlags struct {
	search     string
	status     string
	sort       string
	categories []string
}

func listCmd(configPath *string) *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print listings matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := build(*configPath, true)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runList(ctx, cmd.OutOrStdout(), d, f)
		},
	}
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "search text")
	cmd.Flags().StringVar(&f.status, "status", string(listings.FilterAll), "status filter: all, open, taken, completed, cancelled")
	cmd.Flags().StringVar(&f.sort, "sort", string(listings.SortNone), "sort order: --, best-match, distance, price, category, deadline")
	cmd.Flags().StringArrayVarP(&f.categories, "category", "c", nil, "category name (repeatable)")
	return cmd
}

// runList mirrors the listings screen: the server filters and sorts, then
// the status and search filters apply to the result
func runList(ctx context.Context, out io.Writer, d *deps, f listFlags) error {
	vm := listings.NewViewModel(d.cfg.Geo.Fallback())
	vm.SetSort(listings.SortOption(f.sort))
	vm.SetStatus(listings.StatusFilter(f.status))
	vm.SetQuery(f.search)
	if u := d.svc.Session(); u != nil {
		vm.SetViewer(u.UID)
	}

	if !validStatus(vm.Filters.Status) {
		return fmt.Errorf("unknown status %q", f.status)
	}
	if !validSort(vm.Filters.Sort) {
		return fmt.Errorf("unknown sort %q", f.sort)
	}

	if len(f.categories) > 0 {
		cats, err := d.svc.Categories(ctx)
		if err != nil {
			return &commandError{op: "load categories", err: err}
		}
		vm.SetCategories(cats)
		reg := vm.Registry()
		for _, name := range f.categories {
			id, ok := reg.ID(strings.TrimSpace(name))
			if !ok {
				return fmt.Errorf("unknown category %q", name)
			}
			vm.ToggleCategory(id)
		}
	}

	if vm.Filters.Sort.NeedsLocation() && d.locator != nil {
		c, ok := geo.Resolve(ctx, d.locator, d.cfg.Geo.Timeout, d.cfg.Geo.Fallback(), d.log)
		vm.SetLocation(c, ok)
	}

	token := vm.Begin()
	ls, err := d.svc.Browse(ctx, vm.Request())
	vm.Resolve(token, ls, err)
	if err != nil {
		return &commandError{op: "fetch listings", err: err}
	}

	printListings(out, vm.Visible(), timeNow())
	return nil
}

// commandError prints the user-facing text of err and keeps err in the chain
type commandError struct {
	op  string
	err error
}

func (e *commandError) Error() string {
	return e.op + ": " + market.Message(e.err)
}

func (e *commandError) Unwrap() error {
	return e.err
}

func validStatus(s listings.StatusFilter) bool {
	for _, f := range listings.StatusFilters {
		if f == s {
			return true
		}
	}
	return false
}

func validSort(s listings.SortOption) bool {
	for _, o := range listings.SortOptions {
		if o == s {
			return true
		}
	}
	return false
}

func printListings(out io.Writer, ls []models.Listing, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPRICE\tDEADLINE\tADDRESS")
	for _, l := range ls {
		deadline := "-"
		if !l.Deadline.IsZero() {
			deadline = l.Deadline.Local().Format("2006-01-02 15:04")
			if l.Deadline.Before(now) {
				deadline += " (expired)"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%s\n", l.ID, l.Name, l.Status, l.Price, deadline, l.Address)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d listing(s)\n", len(ls))
}
