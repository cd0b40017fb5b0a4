// Command petcal is a terminal front-end for the pet calendar API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/client"
	"github.com/noah-isme/petcal-api/pkg/logger"
)

const usage = `usage: petcal [global flags] <command> [flags] [args]

commands:
  view              show the calendar grid
  pets              list pets
  done <id>         toggle the completion flag of one occurrence
  delete <id>       delete an event (asks for a scope on recurring events)
  edit <id>         change title, start or end (asks for a scope on recurring events)
  move <id>         drop an occurrence on another day and hour, keeping its end
  resize <id>       stretch an occurrence by whole hour rows

global flags:
`

type app struct {
	api      *client.Client
	loc      *time.Location
	logger   *zap.Logger
	notifier calendar.Notifier
	in       *bufio.Reader
	out      io.Writer
	rowPx    float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("petcal", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}
	apiURL := global.String("api", envOr("PETCAL_API_URL", "http://localhost:8080/api/v1"), "calendar API base URL")
	tz := global.String("tz", envOr("CALENDAR_TIMEZONE", "Local"), "IANA timezone used for display and plain dates")
	level := global.String("log-level", "warn", "log level")
	rowPx := global.Float64("row-height", calendar.DefaultHourRowHeight, "pixel height of one hour row")
	global.SetInterspersed(false)
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	logr, err := logger.NewConsole(*level)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Fprintf(stderr, "unknown timezone %q: %v\n", *tz, err)
		return 2
	}

	a := &app{
		api:      client.New(*apiURL, client.WithLogger(logr)),
		loc:      loc,
		logger:   logr,
		notifier: consoleNotifier(stderr),
		in:       bufio.NewReader(stdin),
		out:      stdout,
		rowPx:    *rowPx,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	commands := map[string]func(context.Context, []string) error{
		"view":   a.view,
		"pets":   a.pets,
		"done":   a.done,
		"delete": a.delete,
		"edit":   a.edit,
		"move":   a.move,
		"resize": a.resize,
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return 2
	}
	if err := fn(ctx, rest); err != nil {
		logr.Debug("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(stderr, "petcal %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// consoleNotifier prints toast messages to w.
func consoleNotifier(w io.Writer) calendar.Notifier {
	return calendar.NotifierFunc(func(level calendar.Level, message string) {
		prefix := "ok"
		if level == calendar.LevelError {
			prefix = "error"
		}
		fmt.Fprintf(w, "[%s] %s\n", prefix, message)
	})
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
