package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"task-app/config"
	"task-app/report"
	"task-app/service"
	"task-app/task"
)

//
// cli/app.go (package cli)
// ------------------------
// This package owns user-facing command/flag handling. It DOES NOT do direct
// business logic or I/O; instead it coordinates with the `service` package.
// Key behaviors:
//  - Accepts flags (-list, -add, -priority, -complete, -delete, -get,
//    -stats, -bypriority, -high, -check, -report, -file, -config).
//  - Uses context-aware logging and returns errors up to main().
//

// App is a thin container for CLI configuration.
type App struct{}

// New constructs an App. Useful for future dependency injection.
func New() *App { return &App{} }

// usage prints human-readable help and includes documentation for global flags.
func usage() {
	fmt.Fprintf(os.Stderr, `Task-App

Manage tasks in a JSON file: add, complete, delete, get, list and filter.

Usage:
  go run . -list [-file out/tasks.json]
  go run . -add "<title>" [-priority <1|2|3>] [-file out/tasks.json]
  go run . -complete "<title>"
  go run . -delete "<title>"
  go run . -get "<title>"
  go run . -stats
  go run . -bypriority <1|2|3>
  go run . -high
  go run . -check
  go run . -report <json|csv|pdf> [-reportout <path>]

Notes:
  * The storage file defaults to out/tasks.json; override with -file or a
    TOML config (-config path, key storage_file).

Global flags (parsed before others in main):
  -logtext              Use plain text logs instead of JSON
  -traceid <value>      Provide an external TraceID (overrides auto-generated)
  --traceid=<value>     Alternate form
`)
}

// Run executes the CLI command flow using the provided context and args.
// Returns an error for any failure (parsing, I/O, validation), which main() logs.
func (a *App) Run(ctx context.Context, args []string) error {
	// Define the CLI flagset
	fs := flag.NewFlagSet("task-app", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listOnly := fs.Bool("list", false, "display current tasks and exit")
	addTitle := fs.String("add", "", "title of the task to add")
	priority := fs.Int("priority", int(task.PriorityLow), "priority for the new task (1|2|3)")
	completeTitle := fs.String("complete", "", "title of the task to mark completed")
	deleteTitle := fs.String("delete", "", "title of the task to delete")
	getTitle := fs.String("get", "", "title of the task to show")
	stats := fs.Bool("stats", false, "show active/completed counters")
	byPriority := fs.Int("bypriority", 0, "show tasks with the given priority (1|2|3)")
	high := fs.Bool("high", false, "show high-priority tasks")
	check := fs.Bool("check", false, "validate the storage file against the task schema")
	reportFormat := fs.String("report", "", "export the task list (json|csv|pdf)")
	reportOut := fs.String("reportout", "", "write the report to this path instead of stdout")
	file := fs.String("file", "", "path to the JSON storage file (overrides config)")
	cfgPath := fs.String("config", "", "path to a TOML config file")

	// Override default usage printer
	fs.Usage = usage

	// Parse args
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		slog.ErrorContext(ctx, "flag parsing failed", "error", err)
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err, "path", *cfgPath)
		return err
	}
	storagePath := cfg.StorageFile
	if strings.TrimSpace(*file) != "" {
		storagePath = *file
	}

	// -check validates the raw file without going through the service,
	// since Load would silently discard corrupt content.
	if *check {
		if err := task.CheckFile(storagePath); err != nil {
			slog.ErrorContext(ctx, "storage check failed", "error", err, "path", storagePath)
			return err
		}
		fmt.Printf("%s: ok\n", storagePath)
		return nil
	}

	var store service.Store
	if cfg.ActorStore {
		actor := service.NewActorStore(storagePath)
		defer actor.Close()
		store = actor
	} else {
		store = service.NewFileStore(storagePath)
	}

	app, err := service.NewApp(ctx, store)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize storage", "error", err, "path", storagePath)
		return err
	}

	// Command routing — mutually exclusive modes for simplicity.
	switch {
	case *listOnly:
		list, err := app.GetAllTasks(ctx)
		if err != nil {
			return err
		}
		PrintList(list)
		return nil

	case *addTitle != "":
		t, err := app.AddTask(ctx, *addTitle, task.Priority(*priority))
		if err != nil {
			slog.ErrorContext(ctx, "add failed", "error", err)
			return err
		}
		PrintList([]task.Task{t})
		return nil

	case *completeTitle != "":
		t, err := app.CompleteTask(ctx, *completeTitle)
		if err != nil {
			slog.ErrorContext(ctx, "complete failed", "error", err, "title", *completeTitle)
			return err
		}
		PrintList([]task.Task{t})
		return nil

	case *deleteTitle != "":
		t, err := app.DeleteTask(ctx, *deleteTitle)
		if err != nil {
			slog.ErrorContext(ctx, "delete failed", "error", err, "title", *deleteTitle)
			return err
		}
		fmt.Printf("deleted: %s\n", t.Title)
		return nil

	case *getTitle != "":
		t, err := app.GetTask(ctx, *getTitle)
		if err != nil {
			slog.ErrorContext(ctx, "get failed", "error", err, "title", *getTitle)
			return err
		}
		PrintList([]task.Task{t})
		return nil

	case *stats:
		list, err := app.GetAllTasks(ctx)
		if err != nil {
			return err
		}
		PrintStats(len(list), task.CountActive(list), task.CountCompleted(list))
		return nil

	case *byPriority != 0:
		list, err := app.TasksByPriority(ctx, task.Priority(*byPriority))
		if err != nil {
			slog.ErrorContext(ctx, "priority filter failed", "error", err, "priority", *byPriority)
			return err
		}
		PrintList(list)
		return nil

	case *high:
		list, err := app.HighPriorityTasks(ctx)
		if err != nil {
			return err
		}
		PrintList(list)
		return nil

	case *reportFormat != "":
		data, err := report.NewExporter(app).Export(ctx, *reportFormat)
		if err != nil {
			slog.ErrorContext(ctx, "report failed", "error", err, "format", *reportFormat)
			return err
		}
		if *reportOut != "" {
			if err := os.WriteFile(*reportOut, data, 0o644); err != nil {
				slog.ErrorContext(ctx, "failed to write report", "error", err, "path", *reportOut)
				return err
			}
			return nil
		}
		_, err = os.Stdout.Write(data)
		return err

	default:
		// No mode selected; show usage and examples.
		usage()
		fmt.Println("\nExamples:")
		fmt.Println("  go run . -list")
		fmt.Println("  go run . -add \"Buy milk\" -priority 2")
		fmt.Println("  go run . -complete \"Buy milk\"")
		fmt.Println("  go run . -delete \"Buy milk\"")
		fmt.Println("  go run . -report csv -reportout tasks.csv")
		return nil
	}
}
