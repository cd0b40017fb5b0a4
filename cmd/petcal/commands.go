package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/models"
)

func (a *app) view(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	rawDate := fs.String("date", "", "reference date (YYYY-MM-DD), defaults to today")
	rawGranularity := fs.StringP("granularity", "g", string(calendar.GranularityWeek), "day, week or month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	g, err := calendar.ParseGranularity(*rawGranularity)
	if err != nil {
		return err
	}

	st := calendar.NewState(a.api, calendar.SystemClock, a.loc, g, a.notifier, a.logger)
	if *rawDate != "" {
		ref, err := calendar.ParseBoundary(*rawDate, a.loc)
		if err != nil {
			return err
		}
		if err := st.GoTo(ctx, ref); err != nil {
			return err
		}
	} else if err := st.Refresh(ctx); err != nil {
		return err
	}
	renderGrid(a.out, st.Grid())
	return nil
}

func (a *app) pets(ctx context.Context, _ []string) error {
	pets, err := a.api.ListPets(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIES")
	for _, p := range pets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Species)
	}
	return tw.Flush()
}

func (a *app) done(ctx context.Context, args []string) error {
	ev, err := a.lookup(ctx, args)
	if err != nil {
		return err
	}
	st := a.stateAround(ev)
	if err := st.ToggleDone(ctx, *ev); err != nil {
		return err
	}
	state := "open"
	if !ev.IsDone {
		state = "done"
	}
	fmt.Fprintf(a.out, "%s is now %s\n", ev.Title, state)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	rawScope := fs.String("scope", "", "this or all; asked interactively when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := a.lookup(ctx, fs.Args())
	if err != nil {
		return err
	}
	sel := calendar.NewScopeSelector(a.api, a.stateAround(ev), a.notifier, a.logger)
	if err := sel.BeginDelete(ctx, *ev); err != nil {
		return err
	}
	return a.resolveScope(ctx, sel, *rawScope)
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	rawScope := fs.String("scope", "", "this or all; asked interactively when omitted")
	title := fs.String("title", "", "new title")
	rawStart := fs.String("start", "", "new start (RFC 3339 or YYYY-MM-DDTHH:MM:SS)")
	rawEnd := fs.String("end", "", "new end (RFC 3339 or YYYY-MM-DDTHH:MM:SS)")
	notes := fs.String("notes", "", "new notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := a.lookup(ctx, fs.Args())
	if err != nil {
		return err
	}

	edited := *ev
	if *title != "" {
		edited.Title = *title
	}
	if *notes != "" {
		edited.Notes = *notes
	}
	if *rawStart != "" {
		start, err := calendar.ParseBoundary(*rawStart, a.loc)
		if err != nil {
			return err
		}
		if ev.EndDate != nil && *rawEnd == "" {
			end := start.Add(ev.Duration())
			edited.EndDate = &end
		}
		edited.StartDate = start
	}
	if *rawEnd != "" {
		end, err := calendar.ParseBoundary(*rawEnd, a.loc)
		if err != nil {
			return err
		}
		edited.EndDate = &end
	}

	sel := calendar.NewScopeSelector(a.api, a.stateAround(ev), a.notifier, a.logger)
	if err := sel.BeginEdit(ctx, *ev, edited); err != nil {
		return err
	}
	return a.resolveScope(ctx, sel, *rawScope)
}

func (a *app) move(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	rawDay := fs.String("day", "", "target day (YYYY-MM-DD)")
	hour := fs.Int("hour", -1, "target hour 0-23")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := a.lookup(ctx, fs.Args())
	if err != nil {
		return err
	}
	day, err := calendar.ParseBoundary(*rawDay, a.loc)
	if err != nil {
		return fmt.Errorf("--day: %w", err)
	}
	target := calendar.Bucket{Date: day, Hour: *hour}
	if !target.Valid() {
		return fmt.Errorf("--hour must be between 0 and %d", calendar.HoursPerDay-1)
	}

	gc := calendar.NewGestureController(a.api, a.stateAround(ev), a.notifier, a.logger, a.rowPx)
	if err := gc.BeginDrag(*ev); err != nil {
		return err
	}
	if err := gc.Drop(ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s moved to %s\n", ev.Title, target.Start().Format("Mon 02 Jan 15:04"))
	return nil
}

func (a *app) resize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resize", flag.ContinueOnError)
	rows := fs.Float64("rows", 1, "hour rows to drag the bottom edge by; negative shrinks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := a.lookup(ctx, fs.Args())
	if err != nil {
		return err
	}

	gc := calendar.NewGestureController(a.api, a.stateAround(ev), a.notifier, a.logger, a.rowPx)
	if err := gc.BeginResize(*ev, 0); err != nil {
		return err
	}
	defer gc.EndResize()
	if err := gc.ResizeMove(ctx, *rows*a.rowPx); err != nil {
		return err
	}
	if resized, ok := gc.Resizing(); ok {
		fmt.Fprintf(a.out, "%s now ends at %s\n", resized.Title, resized.EffectiveEnd().In(a.loc).Format("15:04"))
	}
	return nil
}

func (a *app) lookup(ctx context.Context, args []string) (*models.Event, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return nil, errors.New("expected exactly one event id")
	}
	return a.api.GetEvent(ctx, args[0])
}

// stateAround is the refresher used after a mutation: the week of ev.
func (a *app) stateAround(ev *models.Event) *calendar.State {
	st := calendar.NewState(a.api, calendar.SystemClock, a.loc, calendar.GranularityWeek, a.notifier, a.logger)
	st.Position(ev.StartDate)
	return st
}

// resolveScope answers a pending scope question from the flag or the prompt.
func (a *app) resolveScope(ctx context.Context, sel *calendar.ScopeSelector, raw string) error {
	action, ev, pending := sel.Pending()
	if !pending {
		return nil
	}
	if raw == "" {
		fmt.Fprintf(a.out, "%q repeats. %s (t)his event or (a)ll events? [t/a/c] ", ev.Title, actionVerb(action))
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			sel.Cancel()
			return errors.New("no scope chosen")
		}
		raw = promptScope(line)
	}
	if raw == "cancel" {
		sel.Cancel()
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	scope, ok := models.ParseScope(raw)
	if !ok {
		sel.Cancel()
		return fmt.Errorf("unknown scope %q", raw)
	}
	return sel.Choose(ctx, scope)
}

func promptScope(line string) string {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "t", "this", "":
		return "this"
	case "a", "all":
		return "all"
	default:
		return "cancel"
	}
}

func actionVerb(action calendar.Action) string {
	if action == calendar.ActionDelete {
		return "Delete"
	}
	return "Save"
}
