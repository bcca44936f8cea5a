// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	chatvault "github.com/poiesic/chatvault"
	"github.com/poiesic/chatvault/extract"
	"github.com/poiesic/chatvault/load"
	"github.com/poiesic/chatvault/pipeline"
	"github.com/poiesic/chatvault/transform"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "chatvault",
		Usage: "Checkpointed ETL for chat history exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Run a chat export through extract, transform and load",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB checkpoint directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "dsn",
						Usage:   "Relational database DSN (SQLite path or MySQL DSN)",
						EnvVars: []string{"CHATVAULT_DSN"},
						Value:   "chatvault.db",
					},
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Path to the export file (.json or .tar archive)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user-name",
						Usage: "Display name of the exporting user",
					},
					&cli.StringFlag{
						Name:  "resume",
						Usage: "Run ID of a failed run to resume",
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Insertion strategy (bulk, individual)",
						Value: "bulk",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows per bulk insert batch",
						Value: load.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size for transform and load",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N conversations",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "allow-first-member",
						Usage: "Take the first document when an archive holds several",
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "List known runs and their phase state",
				Action: runsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB checkpoint directory",
						Required: true,
					},
				},
			},
			{
				Name:   "prune",
				Usage:  "Delete a run's checkpoints and state",
				Action: pruneCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB checkpoint directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "run",
						Aliases:  []string{"r"},
						Usage:    "Run ID to delete",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	strategy, err := parseStrategy(c.String("strategy"), c.Int("batch-size"))
	if err != nil {
		return err
	}
	workers := c.Int("workers")
	if workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	vault, err := chatvault.Open(c.String("db"), c.String("dsn"))
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer vault.Close()

	pipe, err := vault.NewPipeline(
		[]extract.Option{extract.WithFirstMember(c.Bool("allow-first-member"))},
		[]transform.Option{transform.WithPoolSize(workers)},
		[]load.Option{load.WithStrategy(strategy), load.WithPoolSize(workers)},
		pipeline.WithProgress(os.Stderr, c.Int("report-interval")),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	result, err := pipe.Run(ctx, c.String("source"), c.String("user-name"), &pipeline.RunOptions{
		ResumeRunID: c.String("resume"),
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printResult(result)
	if result.Status == pipeline.StatusFailed {
		return fmt.Errorf("run %s failed in phase %s; resume with --resume %s",
			result.RunID, result.FailedPhase, result.RunID)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	ctx := context.Background()

	vault, err := chatvault.Open(c.String("db"), ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer vault.Close()

	runs, err := vault.CheckpointStore().ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, run := range runs {
		line := fmt.Sprintf("%s  phase=%s status=%s source=%s started=%s",
			run.RunID, run.Phase, run.Status, run.SourceFile,
			run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.ErrorDetail != "" {
			line += fmt.Sprintf(" error=%q", run.ErrorDetail)
		}
		fmt.Println(line)
	}
	return nil
}

func pruneCommand(c *cli.Context) error {
	ctx := context.Background()

	vault, err := chatvault.Open(c.String("db"), ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer vault.Close()

	runID := c.String("run")
	if err := vault.CheckpointStore().DeleteRun(ctx, runID); err != nil {
		return fmt.Errorf("failed to prune run %s: %w", runID, err)
	}
	fmt.Printf("pruned run %s\n", runID)
	return nil
}

func parseStrategy(name string, batchSize int) (load.Strategy, error) {
	switch strings.ToLower(name) {
	case "bulk":
		if batchSize <= 0 {
			return nil, fmt.Errorf("batch-size must be greater than 0")
		}
		return &load.Bulk{BatchSize: batchSize}, nil
	case "individual":
		return &load.Individual{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q: must be bulk or individual", name)
	}
}

func printResult(result *pipeline.Result) {
	fmt.Fprintf(os.Stderr, "Run: %s\n", result.RunID)
	fmt.Fprintf(os.Stderr, "Status: %s\n", result.Status)
	if result.Load != nil {
		fmt.Fprintf(os.Stderr, "Conversations: %d loaded, %d skipped\n",
			result.Load.ConversationsLoaded, result.Load.ConversationsSkipped)
		fmt.Fprintf(os.Stderr, "Messages: %d  Participants: %d  Attachments: %d\n",
			result.Load.MessagesLoaded, result.Load.ParticipantsLoaded, result.Load.AttachmentsLoaded)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "Warnings: %d\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "  %s [%d]: %s (%s)\n", w.ConversationID, w.MessageIndex, w.Detail, w.Kind)
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "Error: %s\n", e)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
