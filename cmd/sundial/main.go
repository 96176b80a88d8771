// ABOUTME: Command-line entry point for the sundial calendar engine
// ABOUTME: Thin wrapper over the calendar service with colorized output

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/sundial-labs/sundial/internal/calendar"
	"github.com/sundial-labs/sundial/internal/config"
	"github.com/sundial-labs/sundial/internal/store"
)

const banner = `
                     _ _       _
 ___ _   _ _ __   __| (_) __ _| |
/ __| | | | '_ \ / _' | |/ _' | |
\__ \ |_| | | | | (_| | | (_| | |
|___/\__,_|_| |_|\__,_|_|\__,_|_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	svc := calendar.New(store.New(cfg.Storage.Path), logger)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "init":
		err = cmdInit(svc, cfg)
	case "status":
		err = cmdStatus(svc, cfg)
	case "calendars":
		err = cmdCalendars(svc, args)
	case "events":
		err = cmdEvents(svc, args)
	case "quick":
		err = cmdQuick(svc, args)
	case "slot":
		err = cmdSlot(svc, args)
	case "audit":
		err = cmdAudit(svc, args)
	case "sync":
		err = cmdSync(svc, args)
	case "export-ics":
		err = cmdExportICS(svc, args)
	case "trash":
		err = cmdTrash(svc, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: sundial <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  init                          Create the document store and a first calendar")
	fmt.Println("  status                        Show store health and entity counts")
	fmt.Println("  calendars                     List calendars")
	fmt.Println("  calendars create <name>       Create a calendar")
	fmt.Println("  events <calendar> [date]      List events for a day (default today)")
	fmt.Println("  quick <title> <date> [time]   Quick-add an event from loose text")
	fmt.Println("  slot <calendar> <minutes> [date]  Find a free slot on a day")
	fmt.Println("  audit [n]                     Show the n most recent audit entries")
	fmt.Println("  sync [token]                  Pull changes after the given token")
	fmt.Println("  export-ics <calendar> <start> <end>  Print an ICS export for the range")
	fmt.Println("  trash                         List trashed entities")
	fmt.Println("  trash empty                   Purge trashed entities for good")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SUNDIAL_CONFIG     Config file path (default: $XDG_CONFIG_HOME/sundial/config.yaml)")
	fmt.Println()
}

// loadConfig reads the config file when one exists and falls back to
// defaults otherwise. A missing file is not an error; a broken one is.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("SUNDIAL_CONFIG")
	if path == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err == nil {
				base = filepath.Join(home, ".config")
			}
		}
		path = filepath.Join(base, "sundial", "config.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func cmdInit(svc *calendar.Service, cfg *config.Config) error {
	cals, err := svc.CalendarList()
	if err != nil {
		return err
	}
	if len(cals) > 0 {
		fmt.Printf("store already initialized with %d calendar(s) at %s\n", len(cals), cfg.Storage.Path)
		return nil
	}
	if _, err := svc.PreferencesSetTimezone(cfg.Calendar.Timezone); err != nil {
		return err
	}
	if _, err := svc.PreferencesSetWeekStart(cfg.Calendar.WeekStart); err != nil {
		return err
	}
	if _, err := svc.PreferencesSetDefaultDuration(cfg.Calendar.DefaultDuration); err != nil {
		return err
	}
	cal, err := svc.CalendarCreate("Personal")
	if err != nil {
		return err
	}
	color.Green("Created store at %s with calendar %s (%s)\n", cfg.Storage.Path, cal.Name, cal.ID)
	return nil
}

func cmdStatus(svc *calendar.Service, cfg *config.Config) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	fmt.Println()

	health, err := svc.HealthCheck()
	if err != nil {
		return err
	}
	fmt.Printf("  Store:      %s\n", cfg.Storage.Path)
	fmt.Printf("  Version:    %s\n", health.Version)
	fmt.Printf("  Calendars:  %d\n", health.Calendars)
	fmt.Printf("  Events:     %d\n", health.Events)

	prefs, err := svc.PreferencesGet()
	if err != nil {
		return err
	}
	fmt.Printf("  Timezone:   %s\n", prefs.Timezone)
	if prefs.DefaultCalendarID != "" {
		fmt.Printf("  Default:    %s\n", prefs.DefaultCalendarID)
	}
	fmt.Println()
	return nil
}

func cmdCalendars(svc *calendar.Service, args []string) error {
	if len(args) >= 2 && args[0] == "create" {
		cal, err := svc.CalendarCreate(args[1])
		if err != nil {
			return err
		}
		color.Green("Created %s (%s)\n", cal.Name, cal.ID)
		return nil
	}

	cals, err := svc.CalendarList()
	if err != nil {
		return err
	}
	if len(cals) == 0 {
		fmt.Println("no calendars; run `sundial init` first")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIMEZONE\tDEFAULT")
	for _, cal := range cals {
		def := ""
		if cal.IsDefault {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cal.ID, cal.Name, cal.Timezone, def)
	}
	return w.Flush()
}

func cmdEvents(svc *calendar.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sundial events <calendar> [date]")
	}
	day := time.Now().UTC()
	if len(args) >= 2 {
		parsed, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		day = parsed
	}
	events, err := svc.EventListDay(args[0], day)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Printf("no events on %s\n", day.Format("2006-01-02"))
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tEND\tTITLE\tSTATUS")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ev.ID, ev.Start, ev.End, ev.Title, ev.Status)
	}
	return w.Flush()
}

func cmdQuick(svc *calendar.Service, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sundial quick <title> <date-text> [time-text]")
	}
	req := calendar.QuickAddRequest{Title: args[0], DateText: args[1]}
	if len(args) >= 3 {
		req.TimeText = args[2]
	}
	result, err := svc.EventQuickAdd(req)
	if err != nil {
		return err
	}
	color.Green("Created %s: %s at %s\n", result.Event.ID, result.Event.Title, result.Event.Start)
	for _, assumption := range result.Assumptions {
		color.Yellow("  note: %s\n", assumption)
	}
	return nil
}

func cmdSlot(svc *calendar.Service, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sundial slot <calendar> <minutes> [date]")
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("minutes must be a number: %w", err)
	}
	day := time.Now().UTC()
	if len(args) >= 3 {
		if day, err = time.Parse("2006-01-02", args[2]); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
	}
	slot, err := svc.FindSlotOnDay(args[0], day, minutes)
	if err != nil {
		return err
	}
	color.Green("Free slot: %s - %s (%d minutes)\n",
		slot.Start.Format("2006-01-02 15:04"), slot.End.Format("15:04"), slot.Minutes)
	return nil
}

func cmdAudit(svc *calendar.Service, args []string) error {
	n := 20
	if len(args) >= 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("count must be a number: %w", err)
		}
		n = parsed
	}
	entries, err := svc.AuditListRecent(n)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tACTION")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", entry.ID, entry.Timestamp, entry.Action)
	}
	return w.Flush()
}

func cmdSync(svc *calendar.Service, args []string) error {
	since := ""
	if len(args) >= 1 {
		since = args[0]
	}
	changes, err := svc.SyncPullChanges(since)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Println("up to date")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tTIMESTAMP\tACTION")
	for _, change := range changes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", change.Token, change.Timestamp, change.Action)
	}
	return w.Flush()
}

func cmdExportICS(svc *calendar.Service, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: sundial export-ics <calendar> <start> <end>")
	}
	start, err := time.Parse("2006-01-02", args[1])
	if err != nil {
		return fmt.Errorf("start must be YYYY-MM-DD: %w", err)
	}
	end, err := time.Parse("2006-01-02", args[2])
	if err != nil {
		return fmt.Errorf("end must be YYYY-MM-DD: %w", err)
	}
	payload, err := svc.ExportICS(args[0], start, end)
	if err != nil {
		return err
	}
	fmt.Print(payload)
	return nil
}

func cmdTrash(svc *calendar.Service, args []string) error {
	if len(args) >= 1 && args[0] == "empty" {
		purged, err := svc.TrashEmpty()
		if err != nil {
			return err
		}
		color.Green("Purged %d entities\n", purged)
		return nil
	}
	refs, err := svc.TrashList()
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Println("trash is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tID")
	for _, ref := range refs {
		fmt.Fprintf(w, "%s\t%s\n", ref.Type, ref.ID)
	}
	return w.Flush()
}
