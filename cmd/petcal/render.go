package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/models"
)

const titleWidth = 28

// renderGrid prints a grid as text: month views as a week table, day and
// week views as one block per day listing the occupied hour slots.
func renderGrid(w io.Writer, g calendar.Grid) {
	fmt.Fprintf(w, "%s  %s .. %s\n\n", strings.ToUpper(string(g.Granularity)),
		g.Range.Start.Format("Mon 02 Jan 2006"), g.Range.End.Format("Mon 02 Jan 2006"))
	if g.Granularity == calendar.GranularityMonth {
		renderMonth(w, g)
		return
	}
	renderDays(w, g)
}

func renderMonth(w io.Writer, g calendar.Grid) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintln(tw, "Mon\tTue\tWed\tThu\tFri\tSat\tSun\t")
	for week := 0; week*7 < len(g.Cells); week++ {
		row := g.Cells[week*7 : week*7+7]
		for _, c := range row {
			fmt.Fprint(tw, cellLabel(c)+"\t")
		}
		fmt.Fprintln(tw)
	}
	tw.Flush() //nolint:errcheck

	fmt.Fprintln(w)
	for _, c := range g.Cells {
		if c.Padding || len(c.Events) == 0 {
			continue
		}
		fmt.Fprintln(w, c.Date.Format("Mon 02 Jan"))
		for _, ev := range c.Visible() {
			fmt.Fprintln(w, "  "+eventLine(ev, c.Date.Location()))
		}
		if c.More > 0 {
			fmt.Fprintf(w, "  +%d more\n", c.More)
		}
	}
}

func cellLabel(c calendar.Cell) string {
	if c.Padding {
		return "."
	}
	label := c.Date.Format("02")
	if c.Today {
		label = "[" + label + "]"
	}
	if n := len(c.Events); n > 0 {
		label += fmt.Sprintf("(%d)", n)
	}
	return label
}

func renderDays(w io.Writer, g calendar.Grid) {
	for _, d := range g.Days {
		heading := d.Date.Format("Mon 02 Jan")
		if d.Today {
			heading += "  (today)"
		}
		fmt.Fprintln(w, heading)
		empty := true
		for _, slot := range d.Slots {
			if d.Now != nil && d.Now.Hour == slot.Hour {
				fmt.Fprintf(w, "  %02d:%02d ---- now\n", slot.Hour, int(d.Now.OffsetPercent*60/100))
			}
			for _, ev := range slot.Events {
				fmt.Fprintln(w, "  "+eventLine(ev, d.Date.Location()))
				empty = false
			}
		}
		if empty {
			fmt.Fprintln(w, "  -")
		}
	}
}

// eventLine renders "HH:MM-HH:MM [x] Title (type) id". Times are shown in the
// location of the grid that placed the event.
func eventLine(ev models.Event, loc *time.Location) string {
	mark := "[ ]"
	if ev.IsDone {
		mark = "[x]"
	}
	title := ev.Title
	if len(title) > titleWidth {
		title = title[:titleWidth-3] + "..."
	}
	repeat := ""
	if ev.IsRecurring {
		repeat = " *"
	}
	return fmt.Sprintf("%s-%s %s %s%s (%s) %s",
		ev.StartDate.In(loc).Format("15:04"), ev.EffectiveEnd().In(loc).Format("15:04"),
		mark, title, repeat, calendar.StyleFor(ev.Type).Label, ev.ID)
}
